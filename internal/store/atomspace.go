package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Harshitk-cp/atomexec/internal/domain"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidType = errors.New("invalid atom type")
)

type nodeKey struct {
	t    domain.Type
	name string
}

type entry struct {
	atom domain.Atom
	tv   domain.TruthValue
}

// AtomSpace is an in-memory hypergraph store. Atoms live in an arena and
// are addressed by their index; slot 0 is never used so the zero Handle
// stays undefined. A single RWMutex makes insertion and deduplication
// atomic.
type AtomSpace struct {
	mu       sync.RWMutex
	atoms    []entry
	nodes    map[nodeKey]domain.Handle
	links    map[string]domain.Handle
	incoming map[domain.Handle][]domain.Handle
}

func NewAtomSpace() *AtomSpace {
	return &AtomSpace{
		atoms:    make([]entry, 1),
		nodes:    make(map[nodeKey]domain.Handle),
		links:    make(map[string]domain.Handle),
		incoming: make(map[domain.Handle][]domain.Handle),
	}
}

func linkKey(t domain.Type, outgoing []domain.Handle) string {
	var b strings.Builder
	b.WriteString(string(t))
	for _, h := range outgoing {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(h), 10))
	}
	return b.String()
}

func (s *AtomSpace) AddNode(ctx context.Context, t domain.Type, name string) (domain.Handle, error) {
	if !t.IsNode() {
		return domain.UndefinedHandle, fmt.Errorf("%w: %s is not a node type", ErrInvalidType, t)
	}

	key := nodeKey{t: t, name: name}

	s.mu.RLock()
	h, ok := s.nodes[key]
	s.mu.RUnlock()
	if ok {
		return h, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if h, ok = s.nodes[key]; ok {
		return h, nil
	}

	h = s.appendLocked(domain.Atom{Type: t, Name: name})
	s.nodes[key] = h
	return h, nil
}

func (s *AtomSpace) AddLink(ctx context.Context, t domain.Type, outgoing []domain.Handle) (domain.Handle, error) {
	if !t.IsLink() {
		return domain.UndefinedHandle, fmt.Errorf("%w: %s is not a link type", ErrInvalidType, t)
	}

	key := linkKey(t, outgoing)

	s.mu.RLock()
	h, ok := s.links[key]
	s.mu.RUnlock()
	if ok {
		return h, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok = s.links[key]; ok {
		return h, nil
	}

	for _, child := range outgoing {
		if !s.validLocked(child) {
			return domain.UndefinedHandle, fmt.Errorf("outgoing %s: %w", child, ErrNotFound)
		}
	}

	out := make([]domain.Handle, len(outgoing))
	copy(out, outgoing)

	h = s.appendLocked(domain.Atom{Type: t, Outgoing: out})
	s.links[key] = h
	for _, child := range out {
		s.incoming[child] = append(s.incoming[child], h)
	}
	return h, nil
}

func (s *AtomSpace) appendLocked(a domain.Atom) domain.Handle {
	h := domain.Handle(len(s.atoms))
	a.Handle = h
	s.atoms = append(s.atoms, entry{atom: a, tv: domain.DefaultTruthValue})
	return h
}

func (s *AtomSpace) validLocked(h domain.Handle) bool {
	return !h.IsUndefined() && uint64(h) < uint64(len(s.atoms))
}

// Get returns a copy of the stored atom.
func (s *AtomSpace) Get(ctx context.Context, h domain.Handle) (*domain.Atom, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(h) {
		return nil, ErrNotFound
	}
	a := s.atoms[h].atom
	if a.Outgoing != nil {
		out := make([]domain.Handle, len(a.Outgoing))
		copy(out, a.Outgoing)
		a.Outgoing = out
	}
	return &a, nil
}

func (s *AtomSpace) TypeOf(ctx context.Context, h domain.Handle) (domain.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(h) {
		return "", ErrNotFound
	}
	return s.atoms[h].atom.Type, nil
}

func (s *AtomSpace) Outgoing(ctx context.Context, h domain.Handle) ([]domain.Handle, error) {
	a, err := s.Get(ctx, h)
	if err != nil {
		return nil, err
	}
	return a.Outgoing, nil
}

func (s *AtomSpace) Name(ctx context.Context, h domain.Handle) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(h) {
		return "", ErrNotFound
	}
	return s.atoms[h].atom.Name, nil
}

// Incoming returns the links that contain h in their outgoing set.
func (s *AtomSpace) Incoming(ctx context.Context, h domain.Handle) ([]domain.Handle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(h) {
		return nil, ErrNotFound
	}
	in := s.incoming[h]
	out := make([]domain.Handle, len(in))
	copy(out, in)
	return out, nil
}

// Size returns the number of stored atoms.
func (s *AtomSpace) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.atoms) - 1
}

func (s *AtomSpace) TruthValue(ctx context.Context, h domain.Handle) (domain.TruthValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked(h) {
		return domain.TruthValue{}, ErrNotFound
	}
	return s.atoms[h].tv, nil
}

func (s *AtomSpace) SetTruthValue(ctx context.Context, h domain.Handle, tv domain.TruthValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validLocked(h) {
		return ErrNotFound
	}
	s.atoms[h].tv = tv
	return nil
}

// MergeTruthValue revises the attached truth value with tv and stores the
// result. The read and the write happen under one lock.
func (s *AtomSpace) MergeTruthValue(ctx context.Context, h domain.Handle, tv domain.TruthValue, policy domain.MergeControl) (domain.TruthValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.validLocked(h) {
		return domain.TruthValue{}, ErrNotFound
	}
	merged, err := domain.Merge(s.atoms[h].tv, tv, policy)
	if err != nil {
		return domain.TruthValue{}, err
	}
	s.atoms[h].tv = merged
	return merged, nil
}
