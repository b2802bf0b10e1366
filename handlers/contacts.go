package handlers

import (
	"context"
	"net/http"
	"time"

	"chatnet/middleware"
)

type ContactView struct {
	AccountID    string    `json:"account_id"`
	DisplayName  string    `json:"display_name"`
	AvatarRef    string    `json:"avatar_ref,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

type ContactsResponse struct {
	Contacts []ContactView `json:"contacts"`
	Count    int           `json:"count"`
}

// ContactsHandler lists the conversation channels the player has opened so
// far, enriched with the contact's current profile.
func (h *Handler) ContactsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	contacts, err := h.Ledger.ListContacts(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to fetch contacts")
		return
	}

	views := make([]ContactView, 0, len(contacts))
	for _, c := range contacts {
		view := ContactView{AccountID: c.AccountID, DiscoveredAt: c.DiscoveredAt}
		if acc, err := h.Accounts.Get(ctx, c.AccountID); err == nil {
			view.DisplayName = acc.DisplayName
			view.AvatarRef = acc.AvatarRef
		}
		views = append(views, view)
	}

	writeJSON(w, http.StatusOK, ContactsResponse{Contacts: views, Count: len(views)})
}
