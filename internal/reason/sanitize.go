package reason

import (
	"regexp"
	"strings"
)

// voiceTagPrefix is the synthesis-markup prefix some replies leak when the
// model confuses text and voice output.
const voiceTagPrefix = "[voice]"

var (
	assistantPrefixRx = regexp.MustCompile(`(?i)^\s*assistant\s*:\s*`)
	voiceHeaderRx     = regexp.MustCompile(`(?im)^Voice message\s*-.*$\n?`)
	// A line that is nothing but a bracketed tone descriptor, e.g.
	// "[low, amused, intimate]" or "[whispering]".
	toneLineRx   = regexp.MustCompile(`(?m)^\[[a-zA-Z ,'-]+\]\s*$\n?`)
	newlineRunRx = regexp.MustCompile(`\n{3,}`)
)

// Sanitize cleans one raw model reply: role-prefix artifacts, voice
// formatting leakage, and runaway blank lines. The model-identity prefix
// ("<botName>: ") is preserved only for the owner identity, who uses it to
// inspect raw output.
func Sanitize(raw, botName string, owner bool) string {
	s := raw

	s = assistantPrefixRx.ReplaceAllString(s, "")

	if !owner && botName != "" {
		namePrefix := regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(botName) + `\s*:\s*`)
		s = namePrefix.ReplaceAllString(s, "")
	}

	if strings.HasPrefix(strings.TrimSpace(s), voiceTagPrefix) {
		s = strings.Replace(s, voiceTagPrefix, "", 1)
	}
	s = voiceHeaderRx.ReplaceAllString(s, "")
	s = toneLineRx.ReplaceAllString(s, "")

	s = newlineRunRx.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
