package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chatnet/middleware"
)

type SendMessageRequest struct {
	NPCID   string `json:"npc_id"`
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Reply     string    `json:"reply"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
	Fallback  bool      `json:"fallback,omitempty"`
}

// SendMessageHandler runs the full send pipeline: rate check, context
// build, model call with retry, ledger append, cache invalidation.
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res, err := h.Sender.Generate(ctx, userID, req.NPCID, req.Message)
	if err != nil {
		writeSendError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SendMessageResponse{
		Reply:     res.Reply.Content,
		MessageID: res.Reply.ID,
		CreatedAt: res.Reply.CreatedAt,
		Fallback:  res.Fallback,
	})
}
