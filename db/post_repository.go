package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dbmodels "chatnet/db/models"
	"chatnet/models"
	"chatnet/pagination"
)

type PostRepository struct {
	posts *mongo.Collection
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: GetCollection("posts")}
}

func (r *PostRepository) Insert(ctx context.Context, post models.Post) error {
	doc := dbmodels.PostDocument{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		LikeCount: post.LikeCount,
	}
	_, err := r.posts.InsertOne(ctx, doc)
	return err
}

// SeedPost inserts a post only if its deterministic id is not present yet,
// so catalog seeding stays idempotent across restarts.
func (r *PostRepository) SeedPost(ctx context.Context, post models.Post) error {
	_, err := r.posts.UpdateOne(ctx,
		bson.M{"_id": post.ID},
		bson.M{"$setOnInsert": bson.M{
			"author_id":  post.AuthorID,
			"content":    post.Content,
			"created_at": post.CreatedAt,
			"like_count": post.LikeCount,
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

// DeleteForAuthor removes every post the account authored.
func (r *PostRepository) DeleteForAuthor(ctx context.Context, authorID string) error {
	_, err := r.posts.DeleteMany(ctx, bson.M{"author_id": authorID})
	return err
}

// TimelinePage returns one newest-first page of posts. The cursor anchors
// strictly after the last item the caller has seen; limit+1 documents are
// fetched so hasMore is exact even when the collection size is a multiple
// of the page size.
func (r *PostRepository) TimelinePage(ctx context.Context, limit int, cursor pagination.Cursor) ([]models.Post, pagination.Cursor, bool, error) {
	filter := bson.M{}
	if !cursor.IsZero() {
		filter = bson.M{"$or": bson.A{
			bson.M{"created_at": bson.M{"$lt": cursor.LastSeenAt}},
			bson.M{"created_at": cursor.LastSeenAt, "_id": bson.M{"$lt": cursor.LastSeenID}},
		}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, pagination.Cursor{}, false, fmt.Errorf("db: timeline page: %w", err)
	}
	defer cur.Close(ctx)

	var docs []dbmodels.PostDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, pagination.Cursor{}, false, fmt.Errorf("db: decode timeline page: %w", err)
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}

	items := make([]models.Post, 0, len(docs))
	for _, doc := range docs {
		items = append(items, models.Post{
			ID:        doc.ID,
			AuthorID:  doc.AuthorID,
			Content:   doc.Content,
			CreatedAt: doc.CreatedAt,
			LikeCount: doc.LikeCount,
		})
	}

	var next pagination.Cursor
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next = pagination.Cursor{LastSeenAt: last.CreatedAt, LastSeenID: last.ID}
	}
	return items, next, hasMore, nil
}
