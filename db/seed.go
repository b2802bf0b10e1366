package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"chatnet/models"
	"chatnet/npc"
)

// SeedCatalog upserts every NPC account and its seeded timeline posts.
// Post ids are derived from the catalog position so reseeding on restart
// never duplicates content.
func SeedCatalog(ctx context.Context, accounts *AccountRepository, posts *PostRepository, catalog *npc.Catalog) error {
	base := time.Now().UTC().Add(-24 * time.Hour)

	for i, def := range catalog.All() {
		acc := models.Account{
			ID:          def.ID,
			DisplayName: def.DisplayName,
			AvatarRef:   def.AvatarRef,
			Kind:        models.AccountNPC,
		}
		if err := accounts.Upsert(ctx, acc); err != nil {
			return fmt.Errorf("db: seed account %s: %w", def.ID, err)
		}

		for j, seed := range def.Posts {
			post := models.Post{
				ID:        fmt.Sprintf("%s-seed-%d", def.ID, j),
				AuthorID:  def.ID,
				Content:   seed.Content,
				CreatedAt: base.Add(time.Duration(i*60+j) * time.Minute),
				LikeCount: seed.Likes,
			}
			if err := posts.SeedPost(ctx, post); err != nil {
				return fmt.Errorf("db: seed post %s: %w", post.ID, err)
			}
		}
	}

	log.Printf("[SEED] catalog seeded: %d npc accounts", len(catalog.All()))
	return nil
}
