package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"go.uber.org/zap"
)

// Instantiator reduces argument lists and executes ExecutionOutputLinks.
//
// Evaluators look their arguments up by handle, so a reduced argument list
// is interned before dispatch. Intermediate atoms created this way stay in
// the store, including when the dispatch that follows fails.
type Instantiator struct {
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewInstantiator(dispatcher *Dispatcher, logger *zap.Logger) *Instantiator {
	return &Instantiator{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ExecuteLink reduces the link's argument list and dispatches its
// procedure with the result.
func (i *Instantiator) ExecuteLink(ctx context.Context, as domain.AtomSpace, l *ExecutionOutputLink) (domain.Handle, error) {
	args, err := i.Reduce(ctx, as, l.args)
	if err != nil {
		return domain.UndefinedHandle, err
	}
	return i.dispatcher.Dispatch(ctx, as, l.schema, args)
}

// Reduce forces every executable child of args. It returns args itself
// when nothing changed, otherwise a newly interned link of the same type.
func (i *Instantiator) Reduce(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
	atom, err := as.Get(ctx, args)
	if err != nil {
		return domain.UndefinedHandle, fmt.Errorf("get arguments %s: %w", args, err)
	}
	if !atom.IsLink() {
		return args, nil
	}

	changed := false
	outgoing := make([]domain.Handle, 0, len(atom.Outgoing))
	for _, child := range atom.Outgoing {
		h, err := i.Execute(ctx, as, child)
		if err != nil {
			return domain.UndefinedHandle, err
		}

		// Deleted arguments drop out of the list.
		if h.IsUndefined() {
			changed = true
			continue
		}

		unwrapped, ok, err := unwrapDontExec(ctx, as, h)
		if err != nil {
			return domain.UndefinedHandle, err
		}
		if ok {
			h = unwrapped
			changed = true
		}

		if h != child {
			changed = true
		}
		outgoing = append(outgoing, h)
	}

	if !changed {
		reductionTotal.WithLabelValues("unchanged").Inc()
		return args, nil
	}

	reduced, err := as.AddLink(ctx, atom.Type, outgoing)
	if err != nil {
		return domain.UndefinedHandle, fmt.Errorf("intern reduced arguments: %w", err)
	}
	reductionTotal.WithLabelValues("rewritten").Inc()

	i.logger.Debug("reduced argument list",
		zap.Uint64("args", uint64(args)),
		zap.Uint64("reduced", uint64(reduced)),
		zap.Int("arity", len(outgoing)))
	return reduced, nil
}

// Execute runs h if it names executable structure and returns its value;
// anything else is returned unchanged. DeleteLink yields the undefined
// handle. Nested lists are searched for ExecutionOutputLinks only.
// DontExecLink is never looked into.
func (i *Instantiator) Execute(ctx context.Context, as domain.AtomSpace, h domain.Handle) (domain.Handle, error) {
	t, err := as.TypeOf(ctx, h)
	if err != nil {
		return domain.UndefinedHandle, fmt.Errorf("type of %s: %w", h, err)
	}

	switch t {
	case domain.ExecutionOutputLink:
		l, err := ExecutionOutputLinkFromAtom(ctx, as, h)
		if err != nil {
			return domain.UndefinedHandle, err
		}
		return i.ExecuteLink(ctx, as, l)
	case domain.DeleteLink:
		return domain.UndefinedHandle, nil
	case domain.ListLink, domain.LinkType:
		return i.executeNested(ctx, as, h)
	}
	return h, nil
}

// executeNested runs the ExecutionOutputLinks found inside a nested list.
// Quoting and deletion apply to the top-level argument list only, so
// DontExecLink and DeleteLink children are kept as they are and never
// entered. A nested execution that yields the undefined handle has no
// value to put in its place and is left out.
func (i *Instantiator) executeNested(ctx context.Context, as domain.AtomSpace, h domain.Handle) (domain.Handle, error) {
	atom, err := as.Get(ctx, h)
	if err != nil {
		return domain.UndefinedHandle, fmt.Errorf("get %s: %w", h, err)
	}

	changed := false
	outgoing := make([]domain.Handle, 0, len(atom.Outgoing))
	for _, child := range atom.Outgoing {
		t, err := as.TypeOf(ctx, child)
		if err != nil {
			return domain.UndefinedHandle, fmt.Errorf("type of %s: %w", child, err)
		}

		var v domain.Handle
		switch t {
		case domain.ExecutionOutputLink:
			l, err := ExecutionOutputLinkFromAtom(ctx, as, child)
			if err != nil {
				return domain.UndefinedHandle, err
			}
			if v, err = i.ExecuteLink(ctx, as, l); err != nil {
				return domain.UndefinedHandle, err
			}
		case domain.ListLink, domain.LinkType:
			if v, err = i.executeNested(ctx, as, child); err != nil {
				return domain.UndefinedHandle, err
			}
		default:
			v = child
		}

		if v.IsUndefined() {
			changed = true
			continue
		}
		if v != child {
			changed = true
		}
		outgoing = append(outgoing, v)
	}

	if !changed {
		return h, nil
	}
	nested, err := as.AddLink(ctx, atom.Type, outgoing)
	if err != nil {
		return domain.UndefinedHandle, fmt.Errorf("intern nested arguments: %w", err)
	}
	return nested, nil
}

// unwrapDontExec strips one DontExecLink level from h.
func unwrapDontExec(ctx context.Context, as domain.AtomSpace, h domain.Handle) (domain.Handle, bool, error) {
	atom, err := as.Get(ctx, h)
	if err != nil {
		return domain.UndefinedHandle, false, fmt.Errorf("get %s: %w", h, err)
	}
	if atom.Type != domain.DontExecLink {
		return h, false, nil
	}
	if atom.Arity() != 1 {
		return domain.UndefinedHandle, false, &domain.ShapeError{
			Atom:   atom.String(),
			Reason: fmt.Sprintf("DontExecLink must wrap exactly 1 atom, got %d", atom.Arity()),
		}
	}
	return atom.Outgoing[0], true, nil
}
