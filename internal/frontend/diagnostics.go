package frontend

import (
	"fmt"
	"strings"

	"github.com/qbridge-dev/qbridge/internal/ast"
)

// Diagnostic is one positioned front-end error.
type Diagnostic struct {
	Message  string
	Position ast.Position
}

func (d Diagnostic) Error() string {
	if d.Position.IsValid() {
		return fmt.Sprintf("%s: %s", d.Position, d.Message)
	}
	return d.Message
}

// DiagnosticList aggregates every diagnostic from one Parse call.
type DiagnosticList []Diagnostic

func (l DiagnosticList) Error() string {
	if len(l) == 1 {
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d parse errors:", len(l))
	for _, d := range l {
		sb.WriteString("\n\t")
		sb.WriteString(d.Error())
	}
	return sb.String()
}
