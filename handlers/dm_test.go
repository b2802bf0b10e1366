package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatnet/cache"
	"chatnet/middleware"
	"chatnet/models"
	"chatnet/npc"
	"chatnet/pagination"
)

type memoryMessageStore struct {
	messages []models.DMMessage
}

func (s *memoryMessageStore) ThreadPage(_ context.Context, conversationID string, limit int, cursor pagination.Cursor) ([]models.DMMessage, pagination.Cursor, bool, error) {
	var ordered []models.DMMessage
	for _, m := range s.messages {
		if m.ConversationID == conversationID {
			ordered = append(ordered, m)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var items []models.DMMessage
	for _, m := range ordered {
		if !cursor.IsZero() {
			after := m.CreatedAt.After(cursor.LastSeenAt) ||
				(m.CreatedAt.Equal(cursor.LastSeenAt) && m.ID > cursor.LastSeenID)
			if !after {
				continue
			}
		}
		items = append(items, m)
		if len(items) == limit+1 {
			break
		}
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}
	var next pagination.Cursor
	if hasMore {
		last := items[len(items)-1]
		next = pagination.Cursor{LastSeenAt: last.CreatedAt, LastSeenID: last.ID}
	}
	return items, next, hasMore, nil
}

func dmTestHandler(t *testing.T, store *memoryMessageStore) http.HandlerFunc {
	t.Helper()
	catalog, err := npc.NewCatalog([]*npc.Definition{
		{ID: "npc-a", DisplayName: "A", Persona: "p", Fallback: "f"},
	})
	require.NoError(t, err)
	h := &Handler{
		Cache:    cache.New(time.Minute, time.Minute),
		Messages: store,
		Catalog:  catalog,
		PageSize: 10,
	}
	return middleware.RequireUser(h.DMHandler)
}

func TestDMPageIsChronological(t *testing.T) {
	conv := models.ConversationID("player-1", "npc-a")
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	store := &memoryMessageStore{}
	for i := 0; i < 25; i++ {
		store.messages = append(store.messages, models.DMMessage{
			ID:             fmt.Sprintf("m-%03d", i),
			ConversationID: conv,
			SenderID:       "player-1",
			Role:           models.RoleUser,
			Content:        fmt.Sprintf("msg %d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
	}
	fn := dmTestHandler(t, store)

	var all []string
	cursor := ""
	for {
		url := "/dm?npc_id=npc-a"
		if cursor != "" {
			url += "&cursor=" + cursor
		}
		req := httptest.NewRequest(http.MethodGet, url, nil)
		req.Header.Set("X-User-ID", "player-1")
		rec := httptest.NewRecorder()
		fn(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp DMPageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		for _, m := range resp.Messages {
			all = append(all, m.ID)
		}
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	require.Len(t, all, 25)
	assert.Equal(t, "m-000", all[0], "DM threads read oldest first")
	assert.Equal(t, "m-024", all[24])
}

func TestDMUnknownNPC(t *testing.T) {
	fn := dmTestHandler(t, &memoryMessageStore{})

	req := httptest.NewRequest(http.MethodGet, "/dm?npc_id=ghost", nil)
	req.Header.Set("X-User-ID", "player-1")
	rec := httptest.NewRecorder()
	fn(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDMRequiresNPCID(t *testing.T) {
	fn := dmTestHandler(t, &memoryMessageStore{})

	req := httptest.NewRequest(http.MethodGet, "/dm", nil)
	req.Header.Set("X-User-ID", "player-1")
	rec := httptest.NewRecorder()
	fn(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
