package domain

import (
	"fmt"
	"math"
)

const (
	// DefaultK is the evidence scale used to convert confidence into an
	// evidence count and back.
	DefaultK = 800.0

	// MaxRevisionConfidence bounds confidences before they are converted
	// to counts during revision; at 1.0 the count diverges.
	MaxRevisionConfidence = 0.9999998

	// RevisionOverlap is the fraction of the smaller evidence pool assumed
	// to be shared by both operands of a book revision.
	RevisionOverlap = 0.2

	TruthValueTolerance = 1e-6
)

var maxConfidence = math.Nextafter(1, 0)

type TruthValueKind int

const (
	SimpleKind TruthValueKind = iota
	CountKind
	IndefiniteKind
)

func (k TruthValueKind) String() string {
	switch k {
	case SimpleKind:
		return "simple"
	case CountKind:
		return "count"
	case IndefiniteKind:
		return "indefinite"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MergeControl selects the revision policy used by Merge.
type MergeControl int

const (
	HigherConfidence MergeControl = iota
	PlnBookRevision
)

func (m MergeControl) String() string {
	switch m {
	case HigherConfidence:
		return "higher_confidence"
	case PlnBookRevision:
		return "pln_book_revision"
	}
	return fmt.Sprintf("merge_control(%d)", int(m))
}

func ParseMergeControl(s string) (MergeControl, error) {
	switch s {
	case "higher_confidence":
		return HigherConfidence, nil
	case "pln_book_revision":
		return PlnBookRevision, nil
	}
	return 0, &UnsupportedMergeError{Policy: s}
}

// TruthValue is an immutable (mean, confidence) belief.
type TruthValue struct {
	kind       TruthValueKind
	mean       float64
	confidence float64
}

// DefaultTruthValue is attached to atoms that were never asserted.
var DefaultTruthValue = NewSimpleTruthValue(1, 0)

// NewSimpleTruthValue clamps mean into [0,1] and confidence into [0,1).
func NewSimpleTruthValue(mean, confidence float64) TruthValue {
	return TruthValue{
		kind:       SimpleKind,
		mean:       clamp(mean, 0, 1),
		confidence: clamp(confidence, 0, maxConfidence),
	}
}

// NewTruthValueOfKind builds a truth value carrying another kind tag. Only
// SimpleKind values take part in book revision.
func NewTruthValueOfKind(kind TruthValueKind, mean, confidence float64) TruthValue {
	tv := NewSimpleTruthValue(mean, confidence)
	tv.kind = kind
	return tv
}

func (tv TruthValue) Kind() TruthValueKind { return tv.kind }

func (tv TruthValue) Mean() float64 { return tv.mean }

func (tv TruthValue) Confidence() float64 { return tv.confidence }

func (tv TruthValue) Count() float64 { return ConfidenceToCount(tv.confidence) }

func (tv TruthValue) Equal(o TruthValue) bool {
	return tv.kind == o.kind &&
		math.Abs(tv.mean-o.mean) < TruthValueTolerance &&
		math.Abs(tv.confidence-o.confidence) < TruthValueTolerance
}

func (tv TruthValue) String() string {
	return fmt.Sprintf("(stv %g %g)", tv.mean, tv.confidence)
}

func ConfidenceToCount(c float64) float64 {
	return DefaultK * c / (1 - c)
}

func CountToConfidence(n float64) float64 {
	if n <= 0 {
		return 0
	}
	return n / (n + DefaultK)
}

// Merge revises a with b under the given policy. Neither input is modified.
func Merge(a, b TruthValue, policy MergeControl) (TruthValue, error) {
	switch policy {
	case HigherConfidence:
		if b.confidence > a.confidence {
			return b, nil
		}
		return a, nil
	case PlnBookRevision:
		return bookRevision(a, b)
	}
	return TruthValue{}, &UnsupportedMergeError{Policy: policy.String()}
}

func (tv TruthValue) Merge(other TruthValue, policy MergeControl) (TruthValue, error) {
	return Merge(tv, other, policy)
}

func bookRevision(a, b TruthValue) (TruthValue, error) {
	if a.kind != SimpleKind || b.kind != SimpleKind {
		return TruthValue{}, &IncompatibleMergeError{Left: a.kind, Right: b.kind}
	}

	countA := ConfidenceToCount(math.Min(a.confidence, MaxRevisionConfidence))
	countB := ConfidenceToCount(math.Min(b.confidence, MaxRevisionConfidence))
	total := countA + countB
	count := total - math.Min(countA, countB)*RevisionOverlap

	// With no evidence on either side the weighted mean is 0/0; keep a's.
	mean := a.mean
	if total > 0 {
		mean = (a.mean*countA + b.mean*countB) / total
	}

	return NewSimpleTruthValue(mean, count/(count+DefaultK)), nil
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
