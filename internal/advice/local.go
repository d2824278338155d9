package advice

import (
	"fmt"
	"strings"

	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

// Static explanations for the fallback path: when the inference budget is
// exhausted or the backend is unreachable, the run still needs to say
// something concrete about each fault.

type localAdvice struct {
	explanation string
	fix         string
}

var localByMessage = map[string]localAdvice{
	"expected ':'": {
		explanation: "Compound statements such as def, class, if and for must end their header line with a colon.",
		fix:         "Append ':' to the end of the statement header.",
	},
	"'(' was never closed": {
		explanation: "An opening parenthesis has no matching ')', so the parser consumed the rest of the file looking for one.",
		fix:         "Close the parenthesis on the reported line or the line below it.",
	},
	"'[' was never closed": {
		explanation: "An opening bracket has no matching ']', so the parser consumed the rest of the file looking for one.",
		fix:         "Close the bracket on the reported line or the line below it.",
	},
	"'{' was never closed": {
		explanation: "An opening brace has no matching '}', so the parser consumed the rest of the file looking for one.",
		fix:         "Close the brace on the reported line or the line below it.",
	},
	"unterminated string literal": {
		explanation: "A string literal is opened but the closing quote never appears on the same line.",
		fix:         "Add the missing closing quote, or use triple quotes for a multi-line string.",
	},
	"unexpected indent": {
		explanation: "The line is indented deeper than the previous statement, but nothing above it opens a block.",
		fix:         "Align the line with the surrounding block, or add the missing block header above it.",
	},
}

var localByKind = map[inspector.Kind]localAdvice{
	inspector.KindSyntaxError: {
		explanation: "The parser could not build a syntax tree at this position; the statement is structurally malformed.",
		fix:         "Review the marked line for unbalanced delimiters, missing colons or stray tokens.",
	},
	inspector.KindIndentationError: {
		explanation: "The indentation at this position does not match any open block.",
		fix:         "Re-indent the line to match the surrounding block structure.",
	},
	inspector.KindRuntimeErrorReport: {
		explanation: "A runtime error was reported at this position.",
		fix:         "Inspect the reported message and the surrounding code path.",
	},
}

// BuildLocal synthesizes a local-analysis-only recommendation for the event.
// It never fails: every known kind has fallback text, and unknown kinds get
// a generic explanation derived from the message.
func BuildLocal(event inspector.ErrorEvent) Recommendation {
	key := inspector.NormalizeMessage(event.Message)
	adviceText, ok := localByMessage[key]
	if !ok {
		if byKind, kindOK := localByKind[event.Kind]; kindOK {
			adviceText = byKind
		} else {
			adviceText = localAdvice{
				explanation: fmt.Sprintf("Static analysis flagged this position: %s.", strings.TrimSuffix(event.Message, ".")),
				fix:         "",
			}
		}
	}

	rec, err := NewBuilder().
		WithExplanation(adviceText.explanation).
		WithFix(adviceText.fix).
		WithConfidence(ConfidenceLocal).
		WithSource(SourceLocalAnalysis).
		Build()
	if err != nil {
		// Unreachable: explanation is always set above.
		return Recommendation{
			Explanation: "Static analysis detected a fault at this position.",
			Confidence:  ConfidenceLocal,
			Source:      SourceLocalAnalysis,
		}
	}
	return rec
}
