package builder

import (
	"fmt"

	"github.com/qbridge-dev/qbridge/internal/ast"
)

// BuildError is the builder's only error type. Position points at the
// statement or expression that failed.
type BuildError struct {
	Message  string
	Position ast.Position
}

func (e *BuildError) Error() string {
	if e.Position.IsValid() {
		return fmt.Sprintf("%s: %s", e.Position, e.Message)
	}
	return e.Message
}

func errorf(pos ast.Position, format string, args ...any) *BuildError {
	return &BuildError{Message: fmt.Sprintf(format, args...), Position: pos}
}
