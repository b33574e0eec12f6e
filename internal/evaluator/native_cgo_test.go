//go:build cgo && linux

package evaluator

import (
	"context"
	"errors"
	"runtime/cgo"
	"testing"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"github.com/Harshitk-cp/atomexec/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDLLoader_LibraryLoadError(t *testing.T) {
	loader := NewDLLoader(zap.NewNop())
	require.NotNil(t, loader)

	_, err := loader.Call(context.Background(), store.NewAtomSpace(), "/nonexistent/libnope.so", "f", domain.UndefinedHandle)
	require.ErrorIs(t, err, domain.ErrLibraryLoad)

	var loadErr *domain.LibraryLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "/nonexistent/libnope.so", loadErr.Library)
	assert.NotEmpty(t, loadErr.Diagnostic)
}

func TestDLLoader_SymbolLookupError(t *testing.T) {
	loader := NewDLLoader(zap.NewNop())

	_, err := loader.Call(context.Background(), store.NewAtomSpace(), "libc.so.6", "ax_no_such_symbol", domain.UndefinedHandle)
	if errors.Is(err, domain.ErrLibraryLoad) {
		t.Skip("libc.so.6 not available on this system")
	}
	require.ErrorIs(t, err, domain.ErrSymbolLookup)

	var symErr *domain.SymbolLookupError
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, "ax_no_such_symbol", symErr.Symbol)
}

func TestDLLoader_CancelledContext(t *testing.T) {
	loader := NewDLLoader(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Call(ctx, store.NewAtomSpace(), "libc.so.6", "abs", domain.UndefinedHandle)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAtomSpaceFromRef(t *testing.T) {
	as := store.NewAtomSpace()
	ref := cgo.NewHandle(as)
	defer ref.Delete()

	got, ok := AtomSpaceFromRef(uintptr(ref))
	require.True(t, ok)
	assert.Same(t, as, got.(*store.AtomSpace))

	_, ok = AtomSpaceFromRef(0)
	assert.False(t, ok)
}
