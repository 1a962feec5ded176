package finalize

import (
	"regexp"
	"strings"
)

// Same tag requirement as the extractor: only JSON-tagged fences are
// tool-call syntax. Other code blocks are content.
var fencedBlockRx = regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n?.*?```\\n?")

// StripArtifacts removes tool-call leftovers from a reply: fenced JSON
// blocks first, then at most one bare JSON value sitting at the very start
// of the text. Prose that merely contains braces is untouched, and running
// the function twice gives the same answer as running it once.
func StripArtifacts(s string) string {
	s = fencedBlockRx.ReplaceAllString(s, "")
	s = stripLeadingJSON(s)
	return strings.TrimSpace(s)
}

// stripLeadingJSON drops one balanced JSON object or array at the start of
// the (whitespace-trimmed) text. Braces inside string literals and escaped
// quotes do not count toward the balance.
func stripLeadingJSON(s string) string {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	if trimmed == "" {
		return s
	}
	open := trimmed[0]
	if open != '{' && open != '[' {
		return s
	}
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return trimmed[i+1:]
			}
		}
	}
	// Unbalanced: leave the text alone rather than guess.
	return s
}
