package infer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

const systemPrompt = "You are a Python code analysis expert. Provide clear, actionable advice for fixing code errors."

// BuildPrompt renders one fault into the sectioned prompt every backend
// receives. The response-format contract below is what ParseResponse
// understands.
func BuildPrompt(event inspector.ErrorEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this Python error and provide a helpful recommendation:\n\n")
	fmt.Fprintf(&b, "FILE: %s\n", event.File)
	fmt.Fprintf(&b, "ERROR TYPE: %s\n", event.Kind)
	fmt.Fprintf(&b, "ERROR MESSAGE: %s\n", event.Message)
	fmt.Fprintf(&b, "LINE: %d\n\n", event.Line)
	fmt.Fprintf(&b, "CODE CONTEXT:\n%s\n\n", event.ContextSnippet())
	b.WriteString(`Please provide your response in this exact format:

EXPLANATION:
[Explain what caused this error in simple terms]

SUGGESTED FIX:
[Provide specific steps to fix the error]

CONFIDENCE:
[Rate your confidence from 0.0 to 1.0]`)
	return b.String()
}

// ParseResponse extracts the EXPLANATION / SUGGESTED FIX / CONFIDENCE
// sections from a backend's free-text answer. Missing sections fall back to
// safe defaults rather than failing: a sloppy but well-meaning answer is
// still better than nothing.
func ParseResponse(response string) *ports.RawSuggestion {
	suggestion := &ports.RawSuggestion{}

	var explanation, fix strings.Builder
	section := ""

	for _, raw := range strings.Split(response, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, "EXPLANATION:"):
			section = "explanation"
			continue
		case strings.HasPrefix(line, "SUGGESTED FIX:"):
			section = "fix"
			continue
		case strings.HasPrefix(line, "CONFIDENCE:"):
			section = "confidence"
			rest := strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			if rest != "" {
				applyConfidence(suggestion, rest)
			}
			continue
		}

		if line == "" {
			continue
		}
		switch section {
		case "explanation":
			explanation.WriteString(line)
			explanation.WriteByte(' ')
		case "fix":
			fix.WriteString(line)
			fix.WriteByte(' ')
		case "confidence":
			applyConfidence(suggestion, line)
			section = ""
		}
	}

	suggestion.Explanation = strings.TrimSpace(explanation.String())
	if suggestion.Explanation == "" {
		suggestion.Explanation = "Unable to analyze this error"
	}
	suggestion.SuggestedFix = strings.TrimSpace(fix.String())
	if suggestion.SuggestedFix == "" {
		suggestion.SuggestedFix = "No specific fix suggested"
	}
	return suggestion
}

func applyConfidence(s *ports.RawSuggestion, text string) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	s.Confidence = value
	s.ConfidenceReported = true
}
