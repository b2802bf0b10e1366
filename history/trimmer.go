// Package history bounds the conversational context handed to the model.
package history

import (
	"unicode/utf8"

	"chatnet/models"
)

// Turn is a single prior exchange entry in model-context form.
type Turn struct {
	Role    models.Role
	Content string
}

// BuildContext converts a chronological message history into a model
// context bounded by maxTurns entries and maxBytes of content. Trimming
// removes whole turns from the oldest end first. The most recent turn is
// never dropped: if it alone exceeds maxBytes its content is truncated so
// the model always sees the latest utterance. The result is deterministic
// for a given input.
func BuildContext(msgs []models.DMMessage, maxTurns, maxBytes int) []Turn {
	if len(msgs) == 0 {
		return nil
	}
	if maxTurns < 1 {
		maxTurns = 1
	}

	turns := make([]Turn, 0, len(msgs))
	size := 0
	for _, m := range msgs {
		turns = append(turns, Turn{Role: m.Role, Content: m.Content})
		size += len(m.Content)
	}

	for len(turns) > 1 && (len(turns) > maxTurns || size > maxBytes) {
		size -= len(turns[0].Content)
		turns = turns[1:]
	}

	if size > maxBytes {
		turns[0].Content = truncate(turns[0].Content, maxBytes)
	}

	return turns
}

// truncate cuts s to at most n bytes without splitting a multi-byte rune.
func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
