package db

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dbmodels "chatnet/db/models"
	"chatnet/models"
	"chatnet/pagination"
)

type MessageRepository struct {
	messages *mongo.Collection
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{messages: GetCollection("messages")}
}

func messageToDoc(m models.DMMessage) dbmodels.MessageDocument {
	return dbmodels.MessageDocument{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func docToMessage(doc dbmodels.MessageDocument) models.DMMessage {
	return models.DMMessage{
		ID:             doc.ID,
		ConversationID: doc.ConversationID,
		SenderID:       doc.SenderID,
		Role:           models.Role(doc.Role),
		Content:        doc.Content,
		CreatedAt:      doc.CreatedAt,
	}
}

// InsertPair appends a user+assistant exchange in order.
func (r *MessageRepository) InsertPair(ctx context.Context, userMsg, assistantMsg models.DMMessage) error {
	_, err := r.messages.InsertMany(ctx, []interface{}{
		messageToDoc(userMsg),
		messageToDoc(assistantMsg),
	})
	return err
}

// Recent returns the last limit messages of a conversation in
// chronological order; this is the slice the history trimmer works from.
func (r *MessageRepository) Recent(ctx context.Context, conversationID string, limit int) ([]models.DMMessage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.messages.Find(ctx, bson.M{"conversation_id": conversationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db: recent messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []dbmodels.MessageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db: decode recent messages: %w", err)
	}

	msgs := make([]models.DMMessage, len(docs))
	for i, doc := range docs {
		msgs[len(docs)-1-i] = docToMessage(doc)
	}
	return msgs, nil
}

// ThreadPage returns one chronological page of a DM thread. The cursor
// anchors strictly after the last item the caller has seen; limit+1
// documents are fetched so hasMore is exact.
func (r *MessageRepository) ThreadPage(ctx context.Context, conversationID string, limit int, cursor pagination.Cursor) ([]models.DMMessage, pagination.Cursor, bool, error) {
	filter := bson.M{"conversation_id": conversationID}
	if !cursor.IsZero() {
		filter = bson.M{
			"conversation_id": conversationID,
			"$or": bson.A{
				bson.M{"created_at": bson.M{"$gt": cursor.LastSeenAt}},
				bson.M{"created_at": cursor.LastSeenAt, "_id": bson.M{"$gt": cursor.LastSeenID}},
			},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit + 1))

	cur, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, pagination.Cursor{}, false, fmt.Errorf("db: thread page: %w", err)
	}
	defer cur.Close(ctx)

	var docs []dbmodels.MessageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pagination.Cursor{}, false, fmt.Errorf("db: decode thread page: %w", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	items := make([]models.DMMessage, 0, len(docs))
	for _, doc := range docs {
		items = append(items, docToMessage(doc))
	}

	var next pagination.Cursor
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next = pagination.Cursor{LastSeenAt: last.CreatedAt, LastSeenID: last.ID}
	}
	return items, next, hasMore, nil
}

// DeleteForPlayer removes every message in every conversation the player
// participates in. Conversation ids are "<playerID>:<npcID>".
func (r *MessageRepository) DeleteForPlayer(ctx context.Context, playerID string) error {
	pattern := "^" + regexp.QuoteMeta(playerID) + ":"
	_, err := r.messages.DeleteMany(ctx, bson.M{"conversation_id": bson.M{"$regex": pattern}})
	return err
}
