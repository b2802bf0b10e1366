package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chatnet/cache"
	"chatnet/middleware"
	"chatnet/models"
	"chatnet/pagination"
)

type DMMessageView struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type DMPageResponse struct {
	NPCID      string          `json:"npc_id"`
	Messages   []DMMessageView `json:"messages"`
	NextCursor string          `json:"next_cursor,omitempty"`
	HasMore    bool            `json:"has_more"`
}

// DMHandler serves one chronological page of a DM thread, through the page
// cache.
func (h *Handler) DMHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	npcID := r.URL.Query().Get("npc_id")
	if npcID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "npc_id is required")
		return
	}
	if _, ok := h.Catalog.Get(npcID); !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Unknown contact")
		return
	}

	cursorToken := r.URL.Query().Get("cursor")
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid cursor")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := cache.DMKey(userID, npcID, cursorToken)
	payload, err := h.Cache.Get(ctx, key, func(ctx context.Context) ([]byte, error) {
		items, next, hasMore, err := h.Messages.ThreadPage(ctx, models.ConversationID(userID, npcID), h.PageSize, cursor)
		if err != nil {
			return nil, err
		}
		resp := DMPageResponse{NPCID: npcID, Messages: make([]DMMessageView, 0, len(items)), HasMore: hasMore}
		for _, m := range items {
			resp.Messages = append(resp.Messages, DMMessageView{
				ID:        m.ID,
				SenderID:  m.SenderID,
				Role:      string(m.Role),
				Content:   m.Content,
				CreatedAt: m.CreatedAt,
			})
		}
		if hasMore {
			resp.NextCursor = pagination.Encode(next)
		}
		return json.Marshal(resp)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to fetch messages")
		return
	}
	writeCached(w, payload)
}
