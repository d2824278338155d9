package inspector

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Fingerprinting must be deterministic across runs and processes: cache
// correctness depends on it. File path, line and column are deliberately
// excluded so the same fault recurring elsewhere reuses a cached
// recommendation.

var (
	// Absolute path substrings embedded in parser messages.
	pathPattern = regexp.MustCompile(`(?:[A-Za-z]:)?[/\\][^\s'",)]+`)
	// Positional references such as "line 12" or "column 3".
	positionPattern = regexp.MustCompile(`\b(?:line|column|col)\s+\d+\b`)
)

// Fingerprint derives a stable content-based key over (kind, normalized
// message, normalized context).
func Fingerprint(e ErrorEvent) string {
	parts := []string{
		"kind:" + string(e.Kind),
		"msg:" + NormalizeMessage(e.Message),
		"ctx:" + normalizeContext(e.Context),
	}
	canonical := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// NormalizeMessage strips file-specific substrings from a parser message so
// that equivalent faults hash identically.
func NormalizeMessage(msg string) string {
	msg = pathPattern.ReplaceAllString(msg, "<path>")
	msg = positionPattern.ReplaceAllString(msg, "<pos>")
	return strings.TrimSpace(msg)
}

func normalizeContext(lines []string) string {
	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Join(trimmed, "\n")
}
