package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

type fakeProcedure func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error)

// fakeScripting hands out one evaluator per store, like the real registry.
type fakeScripting struct {
	procs      map[string]fakeProcedure
	evaluators map[domain.AtomSpace]*fakeScriptEvaluator
}

func newFakeScripting() *fakeScripting {
	return &fakeScripting{
		procs:      make(map[string]fakeProcedure),
		evaluators: make(map[domain.AtomSpace]*fakeScriptEvaluator),
	}
}

func (f *fakeScripting) GetEvaluator(as domain.AtomSpace) domain.ScriptingEvaluator {
	ev, ok := f.evaluators[as]
	if !ok {
		ev = &fakeScriptEvaluator{owner: f, as: as}
		f.evaluators[as] = ev
	}
	return ev
}

type fakeScriptEvaluator struct {
	owner    *fakeScripting
	as       domain.AtomSpace
	hadError bool
	calls    []fakeCall
}

type fakeCall struct {
	name string
	args domain.Handle
}

func (e *fakeScriptEvaluator) Apply(ctx context.Context, name string, args domain.Handle) (domain.Handle, error) {
	e.calls = append(e.calls, fakeCall{name: name, args: args})
	e.hadError = false
	fn, ok := e.owner.procs[name]
	if !ok {
		e.hadError = true
		return domain.UndefinedHandle, errors.New("undefined")
	}
	h, err := fn(ctx, e.as, args)
	if err != nil {
		e.hadError = true
	}
	return h, err
}

func (e *fakeScriptEvaluator) HadError() bool { return e.hadError }

type fakeDynamic struct {
	calls  []fakeCall
	result domain.Handle
	err    error
}

func (f *fakeDynamic) Apply(ctx context.Context, as domain.AtomSpace, name string, args domain.Handle) (domain.Handle, error) {
	f.calls = append(f.calls, fakeCall{name: name, args: args})
	return f.result, f.err
}

type nativeCall struct {
	library, symbol string
	args            domain.Handle
}

type fakeNative struct {
	calls  []nativeCall
	result domain.Handle
	err    error
}

func (f *fakeNative) Call(ctx context.Context, as domain.AtomSpace, library, symbol string, args domain.Handle) (domain.Handle, error) {
	f.calls = append(f.calls, nativeCall{library: library, symbol: symbol, args: args})
	return f.result, f.err
}

type testEnv struct {
	ctx       context.Context
	as        *store.AtomSpace
	scripting *fakeScripting
	dynamic   *fakeDynamic
	native    *fakeNative
	inst      *Instantiator
	disp      *Dispatcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:       context.Background(),
		as:        store.NewAtomSpace(),
		scripting: newFakeScripting(),
		dynamic:   &fakeDynamic{},
		native:    &fakeNative{},
	}
	env.disp = NewDispatcher(env.scripting, env.dynamic, env.native, zap.NewNop())
	env.inst = NewInstantiator(env.disp, zap.NewNop())
	return env
}

func (env *testEnv) node(t *testing.T, typ domain.Type, name string) domain.Handle {
	t.Helper()
	h, err := env.as.AddNode(env.ctx, typ, name)
	if err != nil {
		t.Fatalf("AddNode(%s, %q): %v", typ, name, err)
	}
	return h
}

func (env *testEnv) link(t *testing.T, typ domain.Type, outgoing ...domain.Handle) domain.Handle {
	t.Helper()
	h, err := env.as.AddLink(env.ctx, typ, outgoing)
	if err != nil {
		t.Fatalf("AddLink(%s): %v", typ, err)
	}
	return h
}

func (env *testEnv) outgoing(t *testing.T, h domain.Handle) []domain.Handle {
	t.Helper()
	out, err := env.as.Outgoing(env.ctx, h)
	if err != nil {
		t.Fatalf("Outgoing(%s): %v", h, err)
	}
	return out
}

// exec builds ExecutionOutputLink(GroundedSchemaNode name, ListLink args...).
func (env *testEnv) exec(t *testing.T, name string, args ...domain.Handle) domain.Handle {
	t.Helper()
	schema := env.node(t, domain.GroundedSchemaNode, name)
	list := env.link(t, domain.ListLink, args...)
	l, err := NewExecutionOutputLinkFromPair(env.ctx, env.as, schema, list)
	if err != nil {
		t.Fatalf("NewExecutionOutputLinkFromPair: %v", err)
	}
	return l.Handle()
}
