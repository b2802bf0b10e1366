package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dbmodels "chatnet/db/models"
	"chatnet/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("db: not found")

type AccountRepository struct {
	accounts *mongo.Collection
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: GetCollection("accounts")}
}

// Upsert creates the account if absent; an existing account's identity
// fields are left untouched (accounts are immutable apart from profile
// fields).
func (r *AccountRepository) Upsert(ctx context.Context, acc models.Account) error {
	now := time.Now().UTC()
	_, err := r.accounts.UpdateOne(ctx,
		bson.M{"_id": acc.ID},
		bson.M{
			"$setOnInsert": bson.M{
				"display_name": acc.DisplayName,
				"avatar_ref":   acc.AvatarRef,
				"kind":         string(acc.Kind),
				"created_at":   now,
				"updated_at":   now,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *AccountRepository) Get(ctx context.Context, id string) (models.Account, error) {
	var doc dbmodels.AccountDocument
	err := r.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return models.Account{
		ID:          doc.ID,
		DisplayName: doc.DisplayName,
		AvatarRef:   doc.AvatarRef,
		Kind:        models.AccountKind(doc.Kind),
	}, nil
}

// UpdateProfile changes the only mutable account fields. Empty arguments
// leave the corresponding field unchanged.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id, displayName, avatarRef string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if displayName != "" {
		set["display_name"] = displayName
	}
	if avatarRef != "" {
		set["avatar_ref"] = avatarRef
	}
	res, err := r.accounts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
