//go:build !cgo || !(linux || darwin)

package evaluator

import (
	"github.com/Harshitk-cp/atomexec/internal/domain"
	"go.uber.org/zap"
)

// NewDLLoader returns nil when the binary is built without cgo; lib:
// procedures then fail as an unsupported feature.
func NewDLLoader(logger *zap.Logger) domain.NativeProcedureLoader {
	return nil
}

func AtomSpaceFromRef(ref uintptr) (domain.AtomSpace, bool) {
	return nil, false
}
