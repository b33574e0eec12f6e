package evaluator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"go.uber.org/zap"
)

var ErrProcedureNotDefined = errors.New("procedure not defined")

// Procedure is a grounded procedure callable through scm: names.
type Procedure func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error)

// Registry holds procedure definitions shared by every store and hands out
// one evaluator per store.
type Registry struct {
	mu         sync.RWMutex
	procedures map[string]Procedure
	evaluators map[domain.AtomSpace]*ScriptEvaluator
	logger     *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		procedures: make(map[string]Procedure),
		evaluators: make(map[domain.AtomSpace]*ScriptEvaluator),
		logger:     logger,
	}
}

// Define binds name to fn, replacing any previous definition.
func (r *Registry) Define(name string, fn Procedure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procedures[name] = fn
}

func (r *Registry) lookup(name string) (Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.procedures[name]
	return fn, ok
}

// Names returns the defined procedure names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	return names
}

// GetEvaluator returns the evaluator bound to as, creating it on first use.
func (r *Registry) GetEvaluator(as domain.AtomSpace) domain.ScriptingEvaluator {
	r.mu.RLock()
	ev, ok := r.evaluators[as]
	r.mu.RUnlock()
	if ok {
		return ev
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ev, ok = r.evaluators[as]; ok {
		return ev
	}
	ev = &ScriptEvaluator{registry: r, as: as, logger: r.logger}
	r.evaluators[as] = ev
	return ev
}

// Release drops the evaluator bound to as.
func (r *Registry) Release(as domain.AtomSpace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.evaluators, as)
}

// ScriptEvaluator applies registry procedures against one store. Calls on
// the same evaluator run one at a time, so a procedure must not call back
// into the evaluator that is running it.
type ScriptEvaluator struct {
	registry *Registry
	as       domain.AtomSpace
	logger   *zap.Logger

	mu       sync.Mutex
	hadError bool
}

func (e *ScriptEvaluator) Apply(ctx context.Context, name string, args domain.Handle) (domain.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply(ctx, name, args)
}

// ApplyChecked runs name and reads the error flag under one lock, so a
// concurrent failure cannot be reported against this call.
func (e *ScriptEvaluator) ApplyChecked(ctx context.Context, name string, args domain.Handle) (domain.Handle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result, err := e.apply(ctx, name, args)
	return result, e.hadError, err
}

func (e *ScriptEvaluator) apply(ctx context.Context, name string, args domain.Handle) (domain.Handle, error) {
	e.hadError = false

	fn, ok := e.registry.lookup(name)
	if !ok {
		return e.fail(name, args, ErrProcedureNotDefined)
	}

	result, err := e.call(ctx, fn, args)
	if err != nil {
		return e.fail(name, args, err)
	}
	return result, nil
}

func (e *ScriptEvaluator) call(ctx context.Context, fn Procedure, args domain.Handle) (result domain.Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("procedure panicked: %v", r)
		}
	}()
	return fn(ctx, e.as, args)
}

func (e *ScriptEvaluator) fail(name string, args domain.Handle, err error) (domain.Handle, error) {
	e.hadError = true
	e.logger.Warn("scripting evaluation failed",
		zap.String("procedure", name),
		zap.Uint64("args", uint64(args)),
		zap.Error(err))
	return domain.UndefinedHandle, err
}

func (e *ScriptEvaluator) HadError() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hadError
}
