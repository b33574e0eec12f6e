package service

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"go.uber.org/zap"
)

// TruthValueStore attaches truth values to atoms.
type TruthValueStore interface {
	TruthValue(ctx context.Context, h domain.Handle) (domain.TruthValue, error)
	SetTruthValue(ctx context.Context, h domain.Handle, tv domain.TruthValue) error
	MergeTruthValue(ctx context.Context, h domain.Handle, tv domain.TruthValue, policy domain.MergeControl) (domain.TruthValue, error)
}

// RevisionService merges truth values on behalf of the API and records
// the outcome.
type RevisionService struct {
	store  TruthValueStore
	logger *zap.Logger

	DefaultPolicy domain.MergeControl
}

func NewRevisionService(store TruthValueStore, logger *zap.Logger) *RevisionService {
	return &RevisionService{
		store:         store,
		logger:        logger,
		DefaultPolicy: domain.PlnBookRevision,
	}
}

func (s *RevisionService) Merge(a, b domain.TruthValue, policy domain.MergeControl) (domain.TruthValue, error) {
	merged, err := domain.Merge(a, b, policy)
	mergeTotal.WithLabelValues(policy.String(), resultLabel(err)).Inc()
	if err != nil {
		return domain.TruthValue{}, err
	}

	s.logger.Debug("merged truth values",
		zap.String("policy", policy.String()),
		zap.Stringer("a", a),
		zap.Stringer("b", b),
		zap.Stringer("merged", merged))
	return merged, nil
}

// Revise folds tv into the truth value attached to h.
func (s *RevisionService) Revise(ctx context.Context, h domain.Handle, tv domain.TruthValue, policy domain.MergeControl) (domain.TruthValue, error) {
	merged, err := s.store.MergeTruthValue(ctx, h, tv, policy)
	mergeTotal.WithLabelValues(policy.String(), resultLabel(err)).Inc()
	if err != nil {
		return domain.TruthValue{}, fmt.Errorf("revise %s: %w", h, err)
	}

	s.logger.Debug("revised truth value",
		zap.Uint64("handle", uint64(h)),
		zap.String("policy", policy.String()),
		zap.Stringer("evidence", tv),
		zap.Stringer("merged", merged),
		zap.Float64("count", merged.Count()))
	return merged, nil
}

// Assert replaces the truth value attached to h.
func (s *RevisionService) Assert(ctx context.Context, h domain.Handle, tv domain.TruthValue) error {
	if err := s.store.SetTruthValue(ctx, h, tv); err != nil {
		return fmt.Errorf("assert %s: %w", h, err)
	}
	return nil
}

func (s *RevisionService) Get(ctx context.Context, h domain.Handle) (domain.TruthValue, error) {
	return s.store.TruthValue(ctx, h)
}
