package inspector

import (
	"fmt"
	"strings"
)

// Kind classifies a detected fault. The set is open: downstream code must
// treat unknown kinds as opaque labels.
type Kind string

const (
	KindSyntaxError        Kind = "SyntaxError"
	KindIndentationError   Kind = "IndentationError"
	KindRuntimeErrorReport Kind = "RuntimeErrorReport"
)

// ErrorEvent is the canonical record of one detected fault. It is a value
// type and never mutated after construction; two events describe the same
// fault iff their fingerprints match, regardless of identity.
type ErrorEvent struct {
	File    string `json:"file"`
	Line    int    `json:"line"`   // 1-based
	Column  int    `json:"column"` // 1-based
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	// Context holds the source lines surrounding the fault, bounded by the
	// inspector's window. ContextStart is the 1-based line number of
	// Context[0].
	Context      []string `json:"context"`
	ContextStart int      `json:"context_start"`
}

func (e ErrorEvent) String() string {
	return fmt.Sprintf("%s:%d:%d: %s - %s", e.File, e.Line, e.Column, e.Kind, e.Message)
}

// ContextSnippet renders the context window with line numbers, marking the
// faulty line with ">>>". Used for prompts and terminal rendering.
func (e ErrorEvent) ContextSnippet() string {
	if len(e.Context) == 0 || e.ContextStart < 1 {
		return "No code context available"
	}

	errorIndex := e.Line - e.ContextStart
	if errorIndex < 0 || errorIndex >= len(e.Context) {
		return "Error line not found in context"
	}

	var b strings.Builder
	for i, line := range e.Context {
		lineNo := e.ContextStart + i
		if i == errorIndex {
			fmt.Fprintf(&b, ">>> %3d: %s", lineNo, line)
		} else {
			fmt.Fprintf(&b, "    %3d: %s", lineNo, line)
		}
		if i < len(e.Context)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// extractContext returns a window of lines around the 1-based errorLine,
// clipped at file boundaries, plus the 1-based number of the first returned
// line.
func extractContext(lines []string, errorLine, window int) ([]string, int) {
	if len(lines) == 0 || errorLine < 1 {
		return nil, 0
	}
	if errorLine > len(lines) {
		errorLine = len(lines)
	}

	start := errorLine - 1 - window
	if start < 0 {
		start = 0
	}
	end := errorLine + window
	if end > len(lines) {
		end = len(lines)
	}

	out := make([]string, end-start)
	copy(out, lines[start:end])
	return out, start + 1
}
