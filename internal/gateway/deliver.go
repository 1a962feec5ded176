package gateway

import (
	"time"
)

const (
	// ChunkLimit is the per-message character ceiling for outgoing text.
	ChunkLimit = 1800

	// chunkPacing spaces out follow-on chunks so they arrive in order on
	// transports that don't guarantee it.
	chunkPacing = 250 * time.Millisecond
)

// Deliver sends reply text through a channel, splitting it into chunks
// under the size limit. The first chunk carries the reply reference; the
// rest go out as plain sends.
func Deliver(ch Channel, channelID, replyToID, text string) error {
	chunks := SplitMessage(text, ChunkLimit)
	for i, chunk := range chunks {
		ref := ""
		if i == 0 {
			ref = replyToID
		} else {
			time.Sleep(chunkPacing)
		}
		if err := ch.Send(channelID, chunk, ref); err != nil {
			return err
		}
	}
	return nil
}

// SplitMessage breaks text into pieces of at most limit runes. When a piece
// would cut mid-thought, the break moves back to the last newline, as long
// as that newline sits past 60% of the limit. Concatenating the pieces
// reproduces the input exactly.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || text == "" {
		return []string{text}
	}
	runes := []rune(text)
	var chunks []string
	for len(runes) > limit {
		cut := limit
		floor := limit * 60 / 100
		for i := limit - 1; i >= floor; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return append(chunks, string(runes))
}
