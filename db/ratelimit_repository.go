package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dbmodels "chatnet/db/models"
	"chatnet/ratelimit"
)

// RateLimitRepository implements ratelimit.WindowStore on MongoDB. The
// compare-and-swap contract is carried by filtered updates: a write that
// matches nothing reports a lost race instead of mutating anything.
type RateLimitRepository struct {
	windows *mongo.Collection
}

func NewRateLimitRepository() *RateLimitRepository {
	return &RateLimitRepository{windows: GetCollection("rate_limit_windows")}
}

func (r *RateLimitRepository) Get(ctx context.Context, userID string) (ratelimit.Window, error) {
	var doc dbmodels.RateLimitDocument
	err := r.windows.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ratelimit.Window{UserID: userID}, nil
	}
	if err != nil {
		return ratelimit.Window{}, err
	}
	return ratelimit.Window{
		UserID:        doc.UserID,
		WindowStartAt: doc.WindowStartAt,
		Count:         doc.Count,
	}, nil
}

func (r *RateLimitRepository) TryReset(ctx context.Context, userID string, oldStart, newStart time.Time) (bool, error) {
	_, err := r.windows.UpdateOne(ctx,
		bson.M{"_id": userID, "window_start_at": oldStart},
		bson.M{"$set": bson.M{"window_start_at": newStart, "count": 1}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// The document exists with a different window start: another
		// invocation reset it first.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RateLimitRepository) TryIncrement(ctx context.Context, userID string, windowStart time.Time, max int) (bool, error) {
	res, err := r.windows.UpdateOne(ctx,
		bson.M{"_id": userID, "window_start_at": windowStart, "count": bson.M{"$lt": max}},
		bson.M{"$inc": bson.M{"count": 1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}
