package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"chatnet/cache"
	"chatnet/middleware"
	"chatnet/models"
	"chatnet/pagination"
)

type TimelinePost struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	LikeCount int       `json:"like_count"`
}

type TimelineResponse struct {
	Posts      []TimelinePost `json:"posts"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}

// TimelineHandler serves one newest-first page of the post feed, through
// the page cache.
func (h *Handler) TimelineHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	cursorToken := r.URL.Query().Get("cursor")
	cursor, err := pagination.Decode(cursorToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid cursor")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	key := cache.TimelineKey(userID, cursorToken)
	payload, err := h.Cache.Get(ctx, key, func(ctx context.Context) ([]byte, error) {
		items, next, hasMore, err := h.Posts.TimelinePage(ctx, h.PageSize, cursor)
		if err != nil {
			return nil, err
		}
		resp := TimelineResponse{Posts: make([]TimelinePost, 0, len(items)), HasMore: hasMore}
		for _, p := range items {
			resp.Posts = append(resp.Posts, TimelinePost{
				ID:        p.ID,
				AuthorID:  p.AuthorID,
				Content:   p.Content,
				CreatedAt: p.CreatedAt,
				LikeCount: p.LikeCount,
			})
		}
		if hasMore {
			resp.NextCursor = pagination.Encode(next)
		}
		return json.Marshal(resp)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to fetch timeline")
		return
	}
	writeCached(w, payload)
}

type CreatePostRequest struct {
	Content string `json:"content"`
}

type CreatePostResponse struct {
	Post TimelinePost `json:"post"`
}

// CreatePostHandler publishes a player post and makes it visible to the
// next timeline fetch.
func (h *Handler) CreatePostHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := middleware.UserID(r.Context())

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Post content is empty")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	post := models.Post{
		ID:        newID(),
		AuthorID:  userID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Posts.Insert(ctx, post); err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Failed to create post")
		return
	}

	h.Cache.Invalidate(cache.AllTimelinesPrefix())

	writeJSON(w, http.StatusOK, CreatePostResponse{Post: TimelinePost{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}})
}
