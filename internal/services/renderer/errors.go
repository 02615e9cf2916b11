package renderer

import (
	"fmt"
	"strings"
)

// RenderError carries the Node-side diagnostics for a failed render so the
// user sees the composition and the script's own message, not just an exit
// code.
type RenderError struct {
	Composition string
	Message     string
	Stack       string
	Stderr      string
}

func (e *RenderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "render %s failed", e.Composition)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Stderr != "" {
		b.WriteString(" (stderr: ")
		b.WriteString(e.Stderr)
		b.WriteString(")")
	}
	return b.String()
}
