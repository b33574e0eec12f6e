package service

import (
	"errors"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// dispatchTotal counts grounded procedure dispatches by family and result
	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atomexec_dispatch_total",
		Help: "Total grounded procedure dispatches by family and result",
	}, []string{"family", "result"})

	// dispatchDuration tracks evaluator latency per family
	dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atomexec_dispatch_duration_seconds",
		Help:    "Grounded procedure dispatch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
	}, []string{"family"})

	// reductionTotal counts argument reductions by whether a new list was interned
	reductionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atomexec_reduction_total",
		Help: "Total argument list reductions by outcome",
	}, []string{"outcome"})

	// mergeTotal counts truth value merges by policy and result
	mergeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "atomexec_truth_value_merge_total",
		Help: "Total truth value merges by policy and result",
	}, []string{"policy", "result"})
)

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnknownProcedure):
		return "unknown_procedure"
	case errors.Is(err, domain.ErrMalformedProcedure):
		return "malformed_procedure"
	case errors.Is(err, domain.ErrUnsupportedFeature):
		return "unsupported_feature"
	case errors.Is(err, domain.ErrEvaluation):
		return "evaluation_error"
	case errors.Is(err, domain.ErrLibraryLoad):
		return "library_load_error"
	case errors.Is(err, domain.ErrSymbolLookup):
		return "symbol_lookup_error"
	case errors.Is(err, domain.ErrIncompatibleMerge):
		return "incompatible"
	case errors.Is(err, domain.ErrUnsupportedMerge):
		return "unsupported_policy"
	}
	return "error"
}
