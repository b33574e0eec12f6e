//go:build cgo && (linux || darwin)

package evaluator

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef uint64_t (*ax_grounded_fn)(void*, uint64_t);

static void* ax_dlopen(const char* path) {
	return dlopen(path, RTLD_LAZY | RTLD_LOCAL);
}

static const char* ax_dlerror(void) {
	return dlerror();
}

static int ax_dlclose(void* h) {
	return dlclose(h);
}

// Clear dlerror, call dlsym, and return the error (if any) alongside the symbol.
static void* ax_dlsym_clear(void* h, const char* name, const char** err) {
	dlerror();
	void* p = dlsym(h, name);
	*err = dlerror();
	return p;
}

static uint64_t ax_call(void* fn, uintptr_t as, uint64_t args) {
	return ((ax_grounded_fn)fn)((void*)as, args);
}
*/
import "C"

import (
	"context"
	"runtime/cgo"
	"unsafe"

	"github.com/Harshitk-cp/atomexec/internal/domain"
	"go.uber.org/zap"
)

// DLLoader calls C functions of the form
//
//	uint64_t fn(void *atomspace, uint64_t args);
//
// The atomspace argument is an opaque runtime/cgo handle, not a pointer
// into Go memory. The library is opened for each call and closed after
// it; calls block until the function returns.
type DLLoader struct {
	logger *zap.Logger
}

func NewDLLoader(logger *zap.Logger) domain.NativeProcedureLoader {
	return &DLLoader{logger: logger}
}

// dlerr returns the last dlerror as a Go string, or a fallback label.
func dlerr() string {
	errC := C.ax_dlerror()
	if errC != nil {
		return C.GoString(errC)
	}
	return "unknown dlerror"
}

func (l *DLLoader) Call(ctx context.Context, as domain.AtomSpace, library, symbol string, args domain.Handle) (domain.Handle, error) {
	if err := ctx.Err(); err != nil {
		return domain.UndefinedHandle, err
	}

	clib := C.CString(library)
	defer C.free(unsafe.Pointer(clib))

	h := C.ax_dlopen(clib)
	if h == nil {
		return domain.UndefinedHandle, &domain.LibraryLoadError{Library: library, Diagnostic: dlerr()}
	}
	defer func() {
		if C.ax_dlclose(h) != 0 {
			l.logger.Warn("dlclose failed", zap.String("library", library), zap.String("error", dlerr()))
		}
	}()

	csym := C.CString(symbol)
	defer C.free(unsafe.Pointer(csym))

	var cerr *C.char
	fn := C.ax_dlsym_clear(h, csym, &cerr)
	if cerr != nil || fn == nil {
		diag := "symbol resolved to NULL"
		if cerr != nil {
			diag = C.GoString(cerr)
		}
		return domain.UndefinedHandle, &domain.SymbolLookupError{Library: library, Symbol: symbol, Diagnostic: diag}
	}

	ref := cgo.NewHandle(as)
	defer ref.Delete()

	result := C.ax_call(fn, C.uintptr_t(ref), C.uint64_t(args))

	l.logger.Debug("native procedure returned",
		zap.String("library", library),
		zap.String("symbol", symbol),
		zap.Uint64("result", uint64(result)))
	return domain.Handle(result), nil
}

// AtomSpaceFromRef resolves the opaque store reference passed to native
// procedures. Go code linked into the same process (for instance cgo
// exports called back by the native side) uses it to reach the store.
func AtomSpaceFromRef(ref uintptr) (domain.AtomSpace, bool) {
	defer func() { _ = recover() }()
	as, ok := cgo.Handle(ref).Value().(domain.AtomSpace)
	return as, ok
}
