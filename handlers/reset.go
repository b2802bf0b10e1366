package handlers

import (
	"context"
	"log"
	"net/http"

	"chatnet/cache"
	"chatnet/middleware"
)

// ResetHandler wipes the calling player's state in one logical operation:
// relationships, contacts, DM messages, authored posts and every cached
// page. Partial resets are not supported.
func (h *Handler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Ledger.Reset(ctx, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to reset")
		return
	}

	h.Cache.Invalidate(cache.PlayerDMPrefix(userID))
	// Deleted posts were visible on every user's timeline.
	h.Cache.Invalidate(cache.AllTimelinesPrefix())

	log.Printf("[RESET] player=%s state cleared", userID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
