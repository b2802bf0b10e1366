package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dbmodels "chatnet/db/models"
	"chatnet/models"
	"chatnet/retry"
)

// errAppendConflict signals that another invocation appended to the same
// conversation between our read and our compare-and-swap.
var errAppendConflict = errors.New("db: relationship version conflict")

// RelationshipRepository is the durable ledger of player↔NPC conversation
// state. Appends against the same conversation serialize through a version
// compare-and-swap on the relationship document, so two concurrent sends
// can never interleave their message pairs.
type RelationshipRepository struct {
	relationships *mongo.Collection
	contacts      *mongo.Collection
	messages      *MessageRepository
	posts         *PostRepository
}

func NewRelationshipRepository(messages *MessageRepository, posts *PostRepository) *RelationshipRepository {
	return &RelationshipRepository{
		relationships: GetCollection("relationships"),
		contacts:      GetCollection("contacts"),
		messages:      messages,
		posts:         posts,
	}
}

func docToRelationship(doc dbmodels.RelationshipDocument) models.Relationship {
	return models.Relationship{
		PlayerID:          doc.PlayerID,
		NPCID:             doc.NPCID,
		LastInteractionAt: doc.LastInteractionAt,
		Version:           doc.Version,
	}
}

// GetOrCreate returns the relationship for a (player, NPC) pair, creating
// it with empty history on first access. First access also records the
// Contact so the conversation shows up in the player's channel list.
func (r *RelationshipRepository) GetOrCreate(ctx context.Context, playerID, npcID string) (models.Relationship, error) {
	now := time.Now().UTC()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc dbmodels.RelationshipDocument
	err := r.relationships.FindOneAndUpdate(ctx,
		bson.M{"player_id": playerID, "npc_id": npcID},
		bson.M{"$setOnInsert": bson.M{"version": int64(0), "last_interaction_at": time.Time{}}},
		opts,
	).Decode(&doc)
	if err != nil {
		return models.Relationship{}, fmt.Errorf("db: get or create relationship: %w", err)
	}

	_, err = r.contacts.UpdateOne(ctx,
		bson.M{"player_id": playerID, "account_id": npcID},
		bson.M{"$setOnInsert": bson.M{"discovered_at": now}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.Relationship{}, fmt.Errorf("db: record contact: %w", err)
	}

	return docToRelationship(doc), nil
}

// Get returns the relationship, or ErrNotFound.
func (r *RelationshipRepository) Get(ctx context.Context, playerID, npcID string) (models.Relationship, error) {
	var doc dbmodels.RelationshipDocument
	err := r.relationships.FindOne(ctx, bson.M{"player_id": playerID, "npc_id": npcID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Relationship{}, ErrNotFound
	}
	if err != nil {
		return models.Relationship{}, err
	}
	return docToRelationship(doc), nil
}

// History returns the last limit messages of the pair's conversation in
// chronological order.
func (r *RelationshipRepository) History(ctx context.Context, playerID, npcID string, limit int) ([]models.DMMessage, error) {
	return r.messages.Recent(ctx, models.ConversationID(playerID, npcID), limit)
}

// exchangeTimes assigns timestamps to a new message pair, keeping it
// strictly after the previous exchange even when the wall clock has not
// advanced past it. Times are truncated to milliseconds up front because
// that is the precision the store round-trips; comparing untruncated times
// against a stored last_interaction_at would let a same-millisecond send
// collapse onto the previous reply's timestamp.
func exchangeTimes(now, last time.Time) (time.Time, time.Time) {
	t0 := now.UTC().Truncate(time.Millisecond)
	if !t0.After(last) {
		t0 = last.Add(time.Millisecond)
	}
	return t0, t0.Add(time.Millisecond)
}

// AppendExchange atomically appends the user turn and the NPC reply to the
// conversation and advances the relationship. Timestamps are assigned after
// winning the version CAS so serialized appends are also ordered appends.
func (r *RelationshipRepository) AppendExchange(ctx context.Context, playerID, npcID, userText, assistantText string) ([]models.DMMessage, error) {
	conversationID := models.ConversationID(playerID, npcID)

	var appended []models.DMMessage
	cfg := retry.Config{
		MaxAttempts:  5,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		ShouldRetry:  func(err error) bool { return errors.Is(err, errAppendConflict) },
	}

	err := retry.Do(ctx, cfg, func() error {
		rel, err := r.GetOrCreate(ctx, playerID, npcID)
		if err != nil {
			return err
		}

		t0, t1 := exchangeTimes(time.Now(), rel.LastInteractionAt)

		res, err := r.relationships.UpdateOne(ctx,
			bson.M{"player_id": playerID, "npc_id": npcID, "version": rel.Version},
			bson.M{"$inc": bson.M{"version": int64(1)}, "$set": bson.M{"last_interaction_at": t1}},
		)
		if err != nil {
			return fmt.Errorf("db: advance relationship: %w", err)
		}
		if res.MatchedCount == 0 {
			return errAppendConflict
		}

		userMsg := models.DMMessage{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			SenderID:       playerID,
			Role:           models.RoleUser,
			Content:        userText,
			CreatedAt:      t0,
		}
		assistantMsg := models.DMMessage{
			ID:             uuid.NewString(),
			ConversationID: conversationID,
			SenderID:       npcID,
			Role:           models.RoleAssistant,
			Content:        assistantText,
			CreatedAt:      t1,
		}
		if err := r.messages.InsertPair(ctx, userMsg, assistantMsg); err != nil {
			return fmt.Errorf("db: append exchange: %w", err)
		}
		appended = []models.DMMessage{userMsg, assistantMsg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

// ListContacts returns the player's discovered conversation channels.
func (r *RelationshipRepository) ListContacts(ctx context.Context, playerID string) ([]models.Contact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "discovered_at", Value: 1}})
	cur, err := r.contacts.Find(ctx, bson.M{"player_id": playerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("db: list contacts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []dbmodels.ContactDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db: decode contacts: %w", err)
	}

	contacts := make([]models.Contact, 0, len(docs))
	for _, doc := range docs {
		contacts = append(contacts, models.Contact{
			PlayerID:     doc.PlayerID,
			AccountID:    doc.AccountID,
			DiscoveredAt: doc.DiscoveredAt,
		})
	}
	return contacts, nil
}

// Reset clears all of a player's relationships, contacts, DM messages and
// authored posts in one logical operation. Partial resets are not supported.
func (r *RelationshipRepository) Reset(ctx context.Context, playerID string) error {
	if _, err := r.relationships.DeleteMany(ctx, bson.M{"player_id": playerID}); err != nil {
		return fmt.Errorf("db: reset relationships: %w", err)
	}
	if _, err := r.contacts.DeleteMany(ctx, bson.M{"player_id": playerID}); err != nil {
		return fmt.Errorf("db: reset contacts: %w", err)
	}
	if err := r.messages.DeleteForPlayer(ctx, playerID); err != nil {
		return fmt.Errorf("db: reset messages: %w", err)
	}
	if err := r.posts.DeleteForAuthor(ctx, playerID); err != nil {
		return fmt.Errorf("db: reset posts: %w", err)
	}
	return nil
}
