package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReply(t *testing.T) {
	text, err := parseReply(`{"response": "こんにちは"}`)
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", text)
}

func TestParseReplyRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":         `hello there`,
		"missing field":    `{"reply": "hi"}`,
		"wrong type":       `{"response": 42}`,
		"empty response":   `{"response": ""}`,
		"array payload":    `["hi"]`,
		"truncated object": `{"response": "hi"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseReply(raw)
			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}
