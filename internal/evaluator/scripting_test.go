package evaluator

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistry_GetEvaluator(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	as1 := store.NewAtomSpace()
	as2 := store.NewAtomSpace()

	ev1 := r.GetEvaluator(as1)
	assert.Same(t, ev1, r.GetEvaluator(as1), "one evaluator per store")
	assert.NotSame(t, ev1, r.GetEvaluator(as2))

	r.Release(as1)
	assert.NotSame(t, ev1, r.GetEvaluator(as1))
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	RegisterBuiltins(r)

	names := r.Names()
	sort.Strings(names)
	assert.Equal(t, []string{"arity", "car", "cdr", "identity"}, names)
}

func TestScriptEvaluator_Apply(t *testing.T) {
	ctx := context.Background()
	as := store.NewAtomSpace()
	r := NewRegistry(zap.NewNop())

	var seen domain.AtomSpace
	r.Define("echo", func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
		seen = as
		return args, nil
	})
	r.Define("fails", func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
		return domain.UndefinedHandle, assert.AnError
	})
	r.Define("panics", func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
		panic("bad procedure")
	})

	args, err := as.AddLink(ctx, domain.ListLink, nil)
	require.NoError(t, err)
	ev := r.GetEvaluator(as)

	t.Run("success", func(t *testing.T) {
		got, err := ev.Apply(ctx, "echo", args)
		require.NoError(t, err)
		assert.Equal(t, args, got)
		assert.False(t, ev.HadError())
		assert.Equal(t, domain.AtomSpace(as), seen, "procedure sees the bound store")
	})

	t.Run("procedure error", func(t *testing.T) {
		_, err := ev.Apply(ctx, "fails", args)
		assert.ErrorIs(t, err, assert.AnError)
		assert.True(t, ev.HadError())
	})

	t.Run("flag resets on next call", func(t *testing.T) {
		_, err := ev.Apply(ctx, "echo", args)
		require.NoError(t, err)
		assert.False(t, ev.HadError())
	})

	t.Run("undefined", func(t *testing.T) {
		_, err := ev.Apply(ctx, "nope", args)
		assert.ErrorIs(t, err, ErrProcedureNotDefined)
		assert.True(t, ev.HadError())
	})

	t.Run("panic", func(t *testing.T) {
		_, err := ev.Apply(ctx, "panics", args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad procedure")
		assert.True(t, ev.HadError())
	})

	t.Run("redefine", func(t *testing.T) {
		r.Define("fails", func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
			return args, nil
		})
		_, err := ev.Apply(ctx, "fails", args)
		require.NoError(t, err)
	})
}

func TestScriptEvaluator_ApplyCheckedConcurrent(t *testing.T) {
	ctx := context.Background()
	as := store.NewAtomSpace()
	r := NewRegistry(zap.NewNop())
	r.Define("slow_ok", func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
		time.Sleep(2 * time.Millisecond)
		return args, nil
	})
	r.Define("fail", func(ctx context.Context, as domain.AtomSpace, args domain.Handle) (domain.Handle, error) {
		return domain.UndefinedHandle, assert.AnError
	})

	args, err := as.AddLink(ctx, domain.ListLink, nil)
	require.NoError(t, err)
	ev, ok := r.GetEvaluator(as).(*ScriptEvaluator)
	require.True(t, ok)

	const rounds = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		okFlagged int
		failClean int
	)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			got, failed, err := ev.ApplyChecked(ctx, "slow_ok", args)
			if err != nil || failed || got != args {
				mu.Lock()
				okFlagged++
				mu.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			_, failed, err := ev.ApplyChecked(ctx, "fail", args)
			if err == nil || !failed {
				mu.Lock()
				failClean++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, okFlagged, "successful calls must not see another call's failure")
	assert.Zero(t, failClean, "failed calls must report their own failure")
}
