package evaluator

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// ScriptPackage is the import path scripts use to reach the store.
const ScriptPackage = "atomspace"

var (
	ErrNoStoreBound      = errors.New("no atomspace bound to the evaluator")
	ErrFunctionNotFound  = errors.New("function not found")
	ErrBadSignature      = errors.New("function has unsupported signature")
	ErrInvalidScriptName = errors.New("invalid function name")
)

// GoEvaluator runs procedures written in Go source and interpreted with
// yaegi. Scripts import "atomspace" and define either
//
//	func Name(args uint64) uint64
//	func Name(args uint64) (uint64, error)
//
// Handles cross into scripts as plain numbers scoped to the store passed
// to Apply. One evaluation runs at a time per instance.
type GoEvaluator struct {
	mu     sync.Mutex
	interp *interp.Interpreter
	logger *zap.Logger

	// Bound for the duration of Apply.
	ctx context.Context
	as  domain.AtomSpace
}

var (
	instance     *GoEvaluator
	instanceErr  error
	instanceOnce sync.Once
)

// Instance returns the process-wide evaluator, logging through zap.L().
func Instance() (*GoEvaluator, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = NewGoEvaluator(zap.L())
	})
	return instance, instanceErr
}

func NewGoEvaluator(logger *zap.Logger) (*GoEvaluator, error) {
	e := &GoEvaluator{logger: logger}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if err := i.Use(e.exports()); err != nil {
		return nil, fmt.Errorf("failed to load %s symbols: %w", ScriptPackage, err)
	}
	e.interp = i
	return e, nil
}

// exports builds the symbols scripts see under the atomspace import path.
func (e *GoEvaluator) exports() interp.Exports {
	addNode := func(t, name string) (uint64, error) {
		as, ctx, err := e.bound()
		if err != nil {
			return 0, err
		}
		h, err := as.AddNode(ctx, domain.Type(t), name)
		return uint64(h), err
	}
	addLink := func(t string, outgoing []uint64) (uint64, error) {
		as, ctx, err := e.bound()
		if err != nil {
			return 0, err
		}
		out := make([]domain.Handle, len(outgoing))
		for i, h := range outgoing {
			out[i] = domain.Handle(h)
		}
		h, err := as.AddLink(ctx, domain.Type(t), out)
		return uint64(h), err
	}
	outgoing := func(h uint64) ([]uint64, error) {
		as, ctx, err := e.bound()
		if err != nil {
			return nil, err
		}
		out, err := as.Outgoing(ctx, domain.Handle(h))
		if err != nil {
			return nil, err
		}
		res := make([]uint64, len(out))
		for i, c := range out {
			res[i] = uint64(c)
		}
		return res, nil
	}
	name := func(h uint64) (string, error) {
		as, ctx, err := e.bound()
		if err != nil {
			return "", err
		}
		return as.Name(ctx, domain.Handle(h))
	}
	typeOf := func(h uint64) (string, error) {
		as, ctx, err := e.bound()
		if err != nil {
			return "", err
		}
		t, err := as.TypeOf(ctx, domain.Handle(h))
		return string(t), err
	}

	return interp.Exports{
		ScriptPackage + "/" + ScriptPackage: {
			"AddNode":  reflect.ValueOf(addNode),
			"AddLink":  reflect.ValueOf(addLink),
			"Outgoing": reflect.ValueOf(outgoing),
			"Name":     reflect.ValueOf(name),
			"TypeOf":   reflect.ValueOf(typeOf),
		},
	}
}

func (e *GoEvaluator) bound() (domain.AtomSpace, context.Context, error) {
	if e.as == nil {
		return nil, nil, ErrNoStoreBound
	}
	return e.as, e.ctx, nil
}

// LoadSource evaluates Go source, wrapping it in package main if needed.
func (e *GoEvaluator) LoadSource(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !strings.Contains(src, "package main") {
		src = "package main\n\n" + src
	}
	if _, err := e.interp.Eval(src); err != nil {
		return fmt.Errorf("code evaluation failed: %w", err)
	}
	return nil
}

// LoadDir evaluates every .go file in dir in lexical order.
func (e *GoEvaluator) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var files []string
	for _, ent := range entries {
		if ent.IsDir() || filepath.Ext(ent.Name()) != ".go" {
			continue
		}
		files = append(files, filepath.Join(dir, ent.Name()))
	}
	sort.Strings(files)

	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		if err := e.LoadSource(string(src)); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		e.logger.Info("loaded script", zap.String("file", f))
	}
	return nil
}

func (e *GoEvaluator) Apply(ctx context.Context, as domain.AtomSpace, name string, args domain.Handle) (domain.Handle, error) {
	if !token.IsIdentifier(name) {
		return domain.UndefinedHandle, fmt.Errorf("%w: %q", ErrInvalidScriptName, name)
	}
	if err := ctx.Err(); err != nil {
		return domain.UndefinedHandle, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	fn, err := e.lookup(name)
	if err != nil {
		return domain.UndefinedHandle, err
	}

	e.ctx, e.as = ctx, as
	defer func() { e.ctx, e.as = nil, nil }()

	result, err := invoke(fn, uint64(args))
	if err != nil {
		e.logger.Debug("script failed", zap.String("function", name), zap.Error(err))
		return domain.UndefinedHandle, err
	}
	return domain.Handle(result), nil
}

func (e *GoEvaluator) lookup(name string) (any, error) {
	v, err := e.interp.Eval("main." + name)
	if err != nil || !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s", ErrFunctionNotFound, name)
	}
	return v.Interface(), nil
}

func invoke(fn any, args uint64) (result uint64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panicked: %v", r)
		}
	}()

	switch f := fn.(type) {
	case func(uint64) uint64:
		return f(args), nil
	case func(uint64) (uint64, error):
		return f(args)
	}
	return 0, fmt.Errorf("%w: %T", ErrBadSignature, fn)
}
