package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"chatnet/db"
	"chatnet/middleware"
)

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref"`
}

// ProfileHandler updates the only mutable account fields.
func (h *Handler) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" && req.AvatarRef == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.UpdateProfile(ctx, userID, req.DisplayName, req.AvatarRef); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
