package inspector

import "strings"

// The grammar reports structural faults as bare ERROR nodes without prose.
// These checks inspect the faulty line to recover the message a Python user
// would expect to read.

var blockKeywords = []string{
	"def ", "class ", "if ", "elif ", "else", "for ", "while ",
	"try", "except", "finally", "with ",
}

// classifyLine inspects the source line at the reported fault position and
// returns a refined kind and message. The fallback is a generic SyntaxError.
func classifyLine(lines []string, line int) (Kind, string) {
	if line < 1 || line > len(lines) {
		return KindSyntaxError, "invalid syntax"
	}
	raw := lines[line-1]
	trimmed := strings.TrimSpace(raw)

	if kind, msg, ok := classifyIndent(lines, line); ok {
		return kind, msg
	}

	for _, kw := range blockKeywords {
		if strings.HasPrefix(trimmed, kw) || trimmed == strings.TrimSpace(kw) {
			if !strings.HasSuffix(trimmed, ":") && !strings.Contains(trimmed, ": ") {
				return KindSyntaxError, "expected ':'"
			}
			break
		}
	}

	if strings.Count(trimmed, "(") > strings.Count(trimmed, ")") {
		return KindSyntaxError, "'(' was never closed"
	}
	if strings.Count(trimmed, "[") > strings.Count(trimmed, "]") {
		return KindSyntaxError, "'[' was never closed"
	}
	if strings.Count(trimmed, "{") > strings.Count(trimmed, "}") {
		return KindSyntaxError, "'{' was never closed"
	}

	if quoteParityBroken(trimmed, '\'') || quoteParityBroken(trimmed, '"') {
		return KindSyntaxError, "unterminated string literal"
	}

	return KindSyntaxError, "invalid syntax"
}

// classifyIndent flags a line indented deeper than its predecessor when the
// predecessor does not open a block.
func classifyIndent(lines []string, line int) (Kind, string, bool) {
	if line < 2 {
		return "", "", false
	}
	cur := lines[line-1]
	if strings.TrimSpace(cur) == "" {
		return "", "", false
	}

	// Find the previous non-blank line.
	prev := ""
	for i := line - 2; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			prev = lines[i]
			break
		}
	}
	if prev == "" {
		if indentWidth(cur) > 0 {
			return KindIndentationError, "unexpected indent", true
		}
		return "", "", false
	}

	if indentWidth(cur) > indentWidth(prev) && !strings.HasSuffix(strings.TrimSpace(prev), ":") &&
		!endsWithContinuation(prev) {
		return KindIndentationError, "unexpected indent", true
	}
	return "", "", false
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 8
		default:
			return width
		}
	}
	return width
}

func endsWithContinuation(line string) bool {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, "\\") {
		return true
	}
	// Open brackets continue the logical line.
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}, {"{", "}"}} {
		if strings.Count(trimmed, pair[0]) > strings.Count(trimmed, pair[1]) {
			return true
		}
	}
	return false
}

func quoteParityBroken(line string, quote byte) bool {
	count := 0
	escaped := false
	inOther := false
	var other byte
	if quote == '\'' {
		other = '"'
	} else {
		other = '\''
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case other:
			if count%2 == 0 {
				inOther = !inOther
			}
		case quote:
			if !inOther {
				count++
			}
		}
	}
	return count%2 != 0
}
