package domain

import "context"

// ScriptingEvaluator applies named procedures against the store it was
// obtained for. After a failed Apply, HadError reports true until the
// next call; the failure detail goes to the evaluator's own log.
type ScriptingEvaluator interface {
	Apply(ctx context.Context, name string, args Handle) (Handle, error)
	HadError() bool
}

// CheckedScriptingEvaluator is implemented by evaluators that can report a
// call's error flag atomically with the call. Evaluators shared between
// goroutines need it, since Apply followed by HadError can observe another
// caller's failure.
type CheckedScriptingEvaluator interface {
	ScriptingEvaluator
	ApplyChecked(ctx context.Context, name string, args Handle) (Handle, bool, error)
}

// ScriptingProvider hands out the scripting evaluator bound to a store.
type ScriptingProvider interface {
	GetEvaluator(as AtomSpace) ScriptingEvaluator
}

// DynamicEvaluator is a process-wide evaluator that is told which store
// to run against on every call.
type DynamicEvaluator interface {
	Apply(ctx context.Context, as AtomSpace, name string, args Handle) (Handle, error)
}

// NativeProcedureLoader invokes a function exported by a dynamically
// loaded library. Handles cross the boundary as plain numbers.
type NativeProcedureLoader interface {
	Call(ctx context.Context, as AtomSpace, library, symbol string, args Handle) (Handle, error)
}
