package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"chatnet/cache"
	"chatnet/models"
	"chatnet/npc"
	"chatnet/pagination"
	"chatnet/responder"
)

const requestTimeout = 30 * time.Second

// newID is a hook point for deterministic ids in tests.
var newID = uuid.NewString

// Store contracts are declared where they are consumed so handlers can be
// exercised against in-memory fakes.

type PostStore interface {
	Insert(ctx context.Context, post models.Post) error
	TimelinePage(ctx context.Context, limit int, cursor pagination.Cursor) ([]models.Post, pagination.Cursor, bool, error)
}

type MessageStore interface {
	ThreadPage(ctx context.Context, conversationID string, limit int, cursor pagination.Cursor) ([]models.DMMessage, pagination.Cursor, bool, error)
}

type AccountStore interface {
	Get(ctx context.Context, id string) (models.Account, error)
	UpdateProfile(ctx context.Context, id, displayName, avatarRef string) error
}

type LedgerStore interface {
	ListContacts(ctx context.Context, playerID string) ([]models.Contact, error)
	Reset(ctx context.Context, playerID string) error
}

// Sender runs the send-message pipeline.
type Sender interface {
	Generate(ctx context.Context, userID, npcID, text string) (*responder.Result, error)
}

// Handler bundles the collaborators every endpoint needs.
type Handler struct {
	Cache    *cache.Cache
	Sender   Sender
	Posts    PostStore
	Messages MessageStore
	Accounts AccountStore
	Ledger   LedgerStore
	Catalog  *npc.Catalog
	PageSize int
}

type errorResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeCached writes a payload that was produced by a cache loader, so the
// bytes are already JSON.
func writeCached(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// writeSendError maps the responder's typed failures onto HTTP statuses.
func writeSendError(w http.ResponseWriter, err error) {
	rerr, ok := responder.AsError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, string(responder.CodeInternal), "Failed to process message")
		return
	}
	switch rerr.Code {
	case responder.CodeRateLimited:
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:             "Too many messages, slow down",
			Code:              string(rerr.Code),
			RetryAfterSeconds: int(rerr.RetryAfter.Seconds()) + 1,
		})
	case responder.CodeInvalidInput:
		writeError(w, http.StatusBadRequest, string(rerr.Code), "Message is empty or invalid")
	case responder.CodeNotFound:
		writeError(w, http.StatusNotFound, string(rerr.Code), "Unknown contact")
	default:
		writeError(w, http.StatusInternalServerError, string(rerr.Code), "Failed to process message")
	}
}
