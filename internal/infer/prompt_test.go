package infer

import (
	"strings"
	"testing"

	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

func TestBuildPrompt(t *testing.T) {
	event := inspector.ErrorEvent{
		File:         "app/main.py",
		Line:         12,
		Column:       5,
		Kind:         inspector.KindSyntaxError,
		Message:      "expected ':'",
		Context:      []string{"def main()", "    pass"},
		ContextStart: 12,
	}

	prompt := BuildPrompt(event)

	for _, want := range []string{
		"FILE: app/main.py",
		"ERROR TYPE: SyntaxError",
		"ERROR MESSAGE: expected ':'",
		"LINE: 12",
		"EXPLANATION:",
		"SUGGESTED FIX:",
		"CONFIDENCE:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name            string
		response        string
		wantExplanation string
		wantFix         string
		wantConfidence  float64
		wantReported    bool
	}{
		{
			name: "well formed",
			response: `EXPLANATION:
The function definition is missing a colon.

SUGGESTED FIX:
Add a colon at the end of line 12.

CONFIDENCE:
0.9`,
			wantExplanation: "The function definition is missing a colon.",
			wantFix:         "Add a colon at the end of line 12.",
			wantConfidence:  0.9,
			wantReported:    true,
		},
		{
			name:            "confidence on the same line",
			response:        "EXPLANATION:\nBad indent.\n\nSUGGESTED FIX:\nDedent.\n\nCONFIDENCE: 0.75",
			wantExplanation: "Bad indent.",
			wantFix:         "Dedent.",
			wantConfidence:  0.75,
			wantReported:    true,
		},
		{
			name:            "multi-line sections joined",
			response:        "EXPLANATION:\nfirst line\nsecond line\n\nSUGGESTED FIX:\ndo this\nthen that\n\nCONFIDENCE:\n0.5",
			wantExplanation: "first line second line",
			wantFix:         "do this then that",
			wantConfidence:  0.5,
			wantReported:    true,
		},
		{
			name:            "confidence above one clamped",
			response:        "EXPLANATION:\nx\n\nSUGGESTED FIX:\ny\n\nCONFIDENCE:\n7",
			wantExplanation: "x",
			wantFix:         "y",
			wantConfidence:  1,
			wantReported:    true,
		},
		{
			name:            "negative confidence clamped",
			response:        "EXPLANATION:\nx\n\nSUGGESTED FIX:\ny\n\nCONFIDENCE:\n-0.5",
			wantExplanation: "x",
			wantFix:         "y",
			wantConfidence:  0,
			wantReported:    true,
		},
		{
			name:            "unparseable confidence ignored",
			response:        "EXPLANATION:\nx\n\nSUGGESTED FIX:\ny\n\nCONFIDENCE:\nvery high",
			wantExplanation: "x",
			wantFix:         "y",
			wantConfidence:  0,
			wantReported:    false,
		},
		{
			name:            "free text without sections",
			response:        "I think the code looks broken somewhere.",
			wantExplanation: "Unable to analyze this error",
			wantFix:         "No specific fix suggested",
			wantConfidence:  0,
			wantReported:    false,
		},
		{
			name:            "empty response",
			response:        "",
			wantExplanation: "Unable to analyze this error",
			wantFix:         "No specific fix suggested",
			wantConfidence:  0,
			wantReported:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseResponse(tt.response)
			if got.Explanation != tt.wantExplanation {
				t.Errorf("explanation = %q, want %q", got.Explanation, tt.wantExplanation)
			}
			if got.SuggestedFix != tt.wantFix {
				t.Errorf("fix = %q, want %q", got.SuggestedFix, tt.wantFix)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConfidence)
			}
			if got.ConfidenceReported != tt.wantReported {
				t.Errorf("confidence reported = %v, want %v", got.ConfidenceReported, tt.wantReported)
			}
		})
	}
}
