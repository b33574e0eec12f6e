package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"go.uber.org/zap"
)

// Family identifies the evaluator a grounded procedure is routed to.
type Family string

const (
	FamilyScripting Family = "scm"
	FamilyDynamic   Family = "py"
	FamilyNative    Family = "lib"
)

// NativeSeparator splits a lib: procedure into library path and symbol.
const NativeSeparator = `\`

var familyPrefixes = []Family{FamilyScripting, FamilyDynamic, FamilyNative}

// GroundedProcedure is a parsed procedure name of the form <tag>:<rest>.
type GroundedProcedure struct {
	Family Family
	Raw    string
	Name   string

	// Set for FamilyNative only.
	Library string
	Symbol  string
}

// ParseProcedureName recognises the scm:, py: and lib: tags, in that
// order. Leading spaces after the colon are dropped.
func ParseProcedureName(raw string) (GroundedProcedure, error) {
	for _, f := range familyPrefixes {
		prefix := string(f) + ":"
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		p := GroundedProcedure{
			Family: f,
			Raw:    raw,
			Name:   strings.TrimLeft(raw[len(prefix):], " "),
		}
		if f == FamilyNative {
			if strings.Count(p.Name, NativeSeparator) != 1 {
				return GroundedProcedure{}, &domain.MalformedProcedureError{
					Name:   raw,
					Reason: `expected exactly one \ between library and function`,
				}
			}
			p.Library, p.Symbol, _ = strings.Cut(p.Name, NativeSeparator)
			if p.Library == "" || p.Symbol == "" {
				return GroundedProcedure{}, &domain.MalformedProcedureError{
					Name:   raw,
					Reason: "library and function must both be named",
				}
			}
		}
		return p, nil
	}
	return GroundedProcedure{}, &domain.UnknownProcedureError{Name: raw}
}

// Dispatcher routes grounded procedures to their evaluator family. A nil
// family is treated as not compiled in. The dispatcher adds no locking of
// its own: evaluators serialize according to their own contracts.
type Dispatcher struct {
	scripting domain.ScriptingProvider
	dynamic   domain.DynamicEvaluator
	native    domain.NativeProcedureLoader
	logger    *zap.Logger
}

func NewDispatcher(
	scripting domain.ScriptingProvider,
	dynamic domain.DynamicEvaluator,
	native domain.NativeProcedureLoader,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		scripting: scripting,
		dynamic:   dynamic,
		native:    native,
		logger:    logger,
	}
}

// Features reports which evaluator families are available.
func (d *Dispatcher) Features() map[Family]bool {
	return map[Family]bool{
		FamilyScripting: d.scripting != nil,
		FamilyDynamic:   d.dynamic != nil,
		FamilyNative:    d.native != nil,
	}
}

// Dispatch applies the procedure named by schema to args. args is never
// rewritten here.
func (d *Dispatcher) Dispatch(ctx context.Context, as domain.AtomSpace, schema, args domain.Handle) (domain.Handle, error) {
	atom, err := as.Get(ctx, schema)
	if err != nil {
		return domain.UndefinedHandle, fmt.Errorf("get procedure %s: %w", schema, err)
	}
	if !atom.IsNode() {
		return domain.UndefinedHandle, &domain.ShapeError{
			Atom:   atom.String(),
			Reason: "procedure must be a named schema node",
		}
	}

	proc, err := ParseProcedureName(atom.Name)
	if err != nil {
		dispatchTotal.WithLabelValues("none", resultLabel(err)).Inc()
		return domain.UndefinedHandle, err
	}

	start := time.Now()
	result, err := d.dispatch(ctx, as, proc, args)
	dispatchDuration.WithLabelValues(string(proc.Family)).Observe(time.Since(start).Seconds())
	dispatchTotal.WithLabelValues(string(proc.Family), resultLabel(err)).Inc()

	if err != nil {
		d.logger.Debug("dispatch failed",
			zap.String("procedure", proc.Raw),
			zap.Uint64("args", uint64(args)),
			zap.Error(err))
		return domain.UndefinedHandle, err
	}

	d.logger.Debug("dispatched procedure",
		zap.String("procedure", proc.Raw),
		zap.Uint64("args", uint64(args)),
		zap.Uint64("result", uint64(result)))
	return result, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, as domain.AtomSpace, proc GroundedProcedure, args domain.Handle) (domain.Handle, error) {
	switch proc.Family {
	case FamilyScripting:
		if d.scripting == nil {
			return domain.UndefinedHandle, &domain.UnsupportedFeatureError{Feature: "scripting evaluator (scm:)"}
		}
		result, failed, err := applyScripting(ctx, d.scripting.GetEvaluator(as), proc.Name, args)
		if err != nil || failed {
			return domain.UndefinedHandle, &domain.EvaluationError{Family: string(proc.Family), Procedure: proc.Name}
		}
		return result, nil

	case FamilyDynamic:
		if d.dynamic == nil {
			return domain.UndefinedHandle, &domain.UnsupportedFeatureError{Feature: "dynamic evaluator (py:)"}
		}
		result, err := d.dynamic.Apply(ctx, as, proc.Name, args)
		if err != nil {
			return domain.UndefinedHandle, &domain.EvaluationError{Family: string(proc.Family), Procedure: proc.Name, Err: err}
		}
		return result, nil

	case FamilyNative:
		if d.native == nil {
			return domain.UndefinedHandle, &domain.UnsupportedFeatureError{Feature: "native library loader (lib:)"}
		}
		return d.native.Call(ctx, as, proc.Library, proc.Symbol, args)
	}
	return domain.UndefinedHandle, &domain.UnknownProcedureError{Name: proc.Raw}
}

func applyScripting(ctx context.Context, ev domain.ScriptingEvaluator, name string, args domain.Handle) (domain.Handle, bool, error) {
	if checked, ok := ev.(domain.CheckedScriptingEvaluator); ok {
		return checked.ApplyChecked(ctx, name, args)
	}
	result, err := ev.Apply(ctx, name, args)
	return result, ev.HadError(), err
}
