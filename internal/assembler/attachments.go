package assembler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/emberbot/emberbot/internal/core"
)

const (
	// maxAttachmentBytes is the declared-size ceiling above which a text
	// attachment is skipped unread.
	maxAttachmentBytes = 256 * 1024
	// maxAttachmentChars is where fetched attachment text is cut off.
	maxAttachmentChars = 8000
	truncatedMarker    = "\n… [truncated]"
)

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".log": true, ".json": true,
	".csv": true, ".yaml": true, ".yml": true,
}

var audioExtensions = map[string]bool{
	".ogg": true, ".mp3": true, ".wav": true, ".m4a": true, ".opus": true,
}

func isTextAttachment(a core.Attachment) bool {
	if strings.HasPrefix(a.ContentType, "text/") {
		return true
	}
	return textExtensions[strings.ToLower(filepath.Ext(a.Name))]
}

func isAudioAttachment(a core.Attachment) bool {
	if strings.HasPrefix(a.ContentType, "audio/") {
		return true
	}
	return audioExtensions[strings.ToLower(filepath.Ext(a.Name))]
}

// collectAttachmentText fetches and truncates the readable text attachments.
// Failures are aggregated into the returned skip list, never fatal.
func (a *Assembler) collectAttachmentText(ctx context.Context, attachments []core.Attachment) (text string, skipped []string) {
	var b strings.Builder
	for _, att := range attachments {
		if isAudioAttachment(att) {
			continue // handled by transcription
		}
		if !isTextAttachment(att) {
			skipped = append(skipped, fmt.Sprintf("%s: unsupported type %q", att.Name, att.ContentType))
			continue
		}
		if att.Size > maxAttachmentBytes {
			skipped = append(skipped, fmt.Sprintf("%s (%s): too large", att.Name, humanize.Bytes(uint64(att.Size))))
			continue
		}
		content, err := a.fetch(ctx, att.URL)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: fetch failed: %v", att.Name, err))
			continue
		}
		if len([]rune(content)) > maxAttachmentChars {
			content = string([]rune(content)[:maxAttachmentChars]) + truncatedMarker
		}
		fmt.Fprintf(&b, "\n\n[Attachment: %s]\n%s", att.Name, content)
	}
	return b.String(), skipped
}

func (a *Assembler) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := a.httpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxAttachmentBytes {
		return "", fmt.Errorf("body exceeds %s", humanize.Bytes(maxAttachmentBytes))
	}
	return string(data), nil
}

// collectTranscripts transcribes up to maxAudio audio attachments.
// Transcription failures are silently skipped: enrichment, not requirement.
func (a *Assembler) collectTranscripts(ctx context.Context, attachments []core.Attachment, maxAudio int) (string, int) {
	if a.Transcriber == nil || maxAudio <= 0 {
		return "", 0
	}
	var b strings.Builder
	count := 0
	for _, att := range attachments {
		if count >= maxAudio {
			break
		}
		if !isAudioAttachment(att) {
			continue
		}
		transcript, err := a.Transcriber.Transcribe(ctx, att.URL, att.Name, att.ContentType)
		if err != nil || strings.TrimSpace(transcript) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\n[Voice note: %s]\n%s", att.Name, strings.TrimSpace(transcript))
		count++
	}
	return b.String(), count
}
