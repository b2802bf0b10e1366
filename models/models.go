package models

import (
	"time"
)

type AccountKind string

const (
	AccountPlayer AccountKind = "player"
	AccountNPC    AccountKind = "npc"
)

// Role identifies who authored a DM turn. The values match the roles the
// Gemini API expects, so history can be replayed into a model context as-is.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "model"
)

// Account is a profile on the simulated network. Only DisplayName and
// AvatarRef may change after creation.
type Account struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	AvatarRef   string      `json:"avatar_ref,omitempty"`
	Kind        AccountKind `json:"kind"`
}

// Post is a single timeline entry. Immutable once created.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	LikeCount int       `json:"like_count"`
}

// Contact records that a DM channel exists between a player and an account.
type Contact struct {
	PlayerID     string    `json:"player_id"`
	AccountID    string    `json:"account_id"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// DMMessage is one turn in a direct-message thread. Threads are append-only
// and totally ordered by (CreatedAt, ID).
type DMMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Relationship is the durable conversational state for one (player, NPC)
// pair. Version is bumped on every exchange and serializes concurrent
// appends against the same conversation.
type Relationship struct {
	PlayerID          string    `json:"player_id"`
	NPCID             string    `json:"npc_id"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	Version           int64     `json:"version"`
}

// ConversationID derives the stable thread identifier for a player/NPC pair.
func ConversationID(playerID, npcID string) string {
	return playerID + ":" + npcID
}
