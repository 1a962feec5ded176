package gateway

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessageShortTextSingleChunk(t *testing.T) {
	chunks := SplitMessage("hello", 100)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("got %v", chunks)
	}
}

func TestSplitMessageLossless(t *testing.T) {
	texts := []string{
		strings.Repeat("a", 4500),
		strings.Repeat("line one\nline two\n", 300),
		strings.Repeat("é", 2500),
		"short",
		"",
	}
	for _, text := range texts {
		chunks := SplitMessage(text, 1800)
		if strings.Join(chunks, "") != text {
			t.Errorf("concatenated chunks differ from input (len %d)", len(text))
		}
		for i, c := range chunks {
			if n := len([]rune(c)); n > 1800 {
				t.Errorf("chunk %d has %d runes, over limit", i, n)
			}
		}
	}
}

func TestSplitMessageBreaksAtNewline(t *testing.T) {
	// A newline sits at position 90 of a 100-rune limit: the break should
	// land just after it rather than mid-word.
	text := strings.Repeat("x", 90) + "\n" + strings.Repeat("y", 50)
	chunks := SplitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Errorf("first chunk should end at the newline, got %q tail", chunks[0][len(chunks[0])-5:])
	}
	if chunks[1] != strings.Repeat("y", 50) {
		t.Errorf("second chunk wrong: %q", chunks[1])
	}
}

func TestSplitMessageIgnoresEarlyNewline(t *testing.T) {
	// The only newline sits well before 60% of the limit, so the split
	// falls back to a hard cut at the limit.
	text := strings.Repeat("x", 10) + "\n" + strings.Repeat("y", 200)
	chunks := SplitMessage(text, 100)
	if len([]rune(chunks[0])) != 100 {
		t.Errorf("first chunk has %d runes, want hard cut at 100", len([]rune(chunks[0])))
	}
	if strings.Join(chunks, "") != text {
		t.Errorf("lossless property violated")
	}
}

func TestSplitMessageMultibyteBoundary(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 500)
	chunks := SplitMessage(text, 1800)
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d broke a rune boundary", i)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Errorf("lossless property violated")
	}
}
