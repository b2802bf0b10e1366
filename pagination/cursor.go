// Package pagination implements the opaque cursor tokens used for stable
// page navigation over posts and DM threads. A cursor is anchored to the
// ordering key of the last item a caller has seen, never to an offset, so
// concurrent inserts cannot duplicate or skip already-returned items.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrBadCursor is returned when a caller supplies a token that this package
// did not produce.
var ErrBadCursor = errors.New("pagination: malformed cursor")

// Cursor marks the position strictly after (or before, for reverse feeds)
// the last item returned on the previous page. The zero Cursor requests the
// first page.
type Cursor struct {
	LastSeenAt time.Time
	LastSeenID string
}

type cursorWire struct {
	T  int64  `json:"t"`
	ID string `json:"id"`
}

// IsZero reports whether the cursor requests the first page.
func (c Cursor) IsZero() bool {
	return c.LastSeenID == "" && c.LastSeenAt.IsZero()
}

// Encode serializes the cursor into an opaque token. Callers must not
// inspect or construct tokens themselves.
func Encode(c Cursor) string {
	if c.IsZero() {
		return ""
	}
	raw, _ := json.Marshal(cursorWire{T: c.LastSeenAt.UnixMilli(), ID: c.LastSeenID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses a token produced by Encode. The empty string decodes to the
// zero cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrBadCursor
	}
	var w cursorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Cursor{}, ErrBadCursor
	}
	if w.ID == "" {
		return Cursor{}, ErrBadCursor
	}
	return Cursor{LastSeenAt: time.UnixMilli(w.T).UTC(), LastSeenID: w.ID}, nil
}
