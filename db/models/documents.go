package models

import (
	"time"
)

type AccountDocument struct {
	ID          string    `bson:"_id"`
	DisplayName string    `bson:"display_name"`
	AvatarRef   string    `bson:"avatar_ref,omitempty"`
	Kind        string    `bson:"kind"` // "player" or "npc"
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type PostDocument struct {
	ID        string    `bson:"_id"`
	AuthorID  string    `bson:"author_id"`
	Content   string    `bson:"content"`
	CreatedAt time.Time `bson:"created_at"`
	LikeCount int       `bson:"like_count"`
}

type MessageDocument struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	SenderID       string    `bson:"sender_id"`
	Role           string    `bson:"role"` // "user" or "model"
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"created_at"`
}

type ContactDocument struct {
	PlayerID     string    `bson:"player_id"`
	AccountID    string    `bson:"account_id"`
	DiscoveredAt time.Time `bson:"discovered_at"`
}

type RelationshipDocument struct {
	PlayerID          string    `bson:"player_id"`
	NPCID             string    `bson:"npc_id"`
	LastInteractionAt time.Time `bson:"last_interaction_at"`
	Version           int64     `bson:"version"`
}

type RateLimitDocument struct {
	UserID        string    `bson:"_id"`
	WindowStartAt time.Time `bson:"window_start_at"`
	Count         int       `bson:"count"`
}
