package domain

import (
	"errors"
	"fmt"
)

var (
	ErrShape              = errors.New("malformed atom shape")
	ErrUnknownProcedure   = errors.New("unknown procedure")
	ErrUnsupportedFeature = errors.New("feature not compiled in")
	ErrEvaluation         = errors.New("evaluation failed")
	ErrLibraryLoad        = errors.New("library load failed")
	ErrSymbolLookup       = errors.New("symbol lookup failed")
	ErrMalformedProcedure = errors.New("malformed procedure name")
	ErrIncompatibleMerge  = errors.New("incompatible truth values")
	ErrUnsupportedMerge   = errors.New("unsupported merge policy")
)

// ShapeError reports an atom that cannot take part in an
// ExecutionOutputLink. Atom is the rendering of the offending atom.
type ShapeError struct {
	Atom   string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Atom == "" {
		return fmt.Sprintf("%s: %s", ErrShape, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrShape, e.Reason, e.Atom)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

type UnknownProcedureError struct {
	Name string
}

func (e *UnknownProcedureError) Error() string {
	return fmt.Sprintf("%s: cannot evaluate %q", ErrUnknownProcedure, e.Name)
}

func (e *UnknownProcedureError) Is(target error) bool { return target == ErrUnknownProcedure }

type UnsupportedFeatureError struct {
	Feature string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedFeature, e.Feature)
}

func (e *UnsupportedFeatureError) Is(target error) bool { return target == ErrUnsupportedFeature }

// EvaluationError is returned when an evaluator reports an internal
// failure. Err is only set by evaluators that surface their own error;
// otherwise the evaluator's log carries the detail.
type EvaluationError struct {
	Family    string
	Procedure string
	Err       error
}

func (e *EvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s procedure %q: %v", ErrEvaluation, e.Family, e.Procedure, e.Err)
	}
	return fmt.Sprintf("%s: %s procedure %q", ErrEvaluation, e.Family, e.Procedure)
}

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

func (e *EvaluationError) Unwrap() error { return e.Err }

type LibraryLoadError struct {
	Library    string
	Diagnostic string
}

func (e *LibraryLoadError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrLibraryLoad, e.Library, e.Diagnostic)
}

func (e *LibraryLoadError) Is(target error) bool { return target == ErrLibraryLoad }

type SymbolLookupError struct {
	Library    string
	Symbol     string
	Diagnostic string
}

func (e *SymbolLookupError) Error() string {
	return fmt.Sprintf("%s: %q in %q: %s", ErrSymbolLookup, e.Symbol, e.Library, e.Diagnostic)
}

func (e *SymbolLookupError) Is(target error) bool { return target == ErrSymbolLookup }

type MalformedProcedureError struct {
	Name   string
	Reason string
}

func (e *MalformedProcedureError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrMalformedProcedure, e.Name, e.Reason)
}

func (e *MalformedProcedureError) Is(target error) bool { return target == ErrMalformedProcedure }

type IncompatibleMergeError struct {
	Left  TruthValueKind
	Right TruthValueKind
}

func (e *IncompatibleMergeError) Error() string {
	return fmt.Sprintf("%s: cannot revise %s with %s", ErrIncompatibleMerge, e.Left, e.Right)
}

func (e *IncompatibleMergeError) Is(target error) bool { return target == ErrIncompatibleMerge }

type UnsupportedMergeError struct {
	Policy string
}

func (e *UnsupportedMergeError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnsupportedMerge, e.Policy)
}

func (e *UnsupportedMergeError) Is(target error) bool { return target == ErrUnsupportedMerge }
