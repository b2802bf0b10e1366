package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatnet/cache"
	"chatnet/middleware"
	"chatnet/models"
)

type fakeResetLedger struct {
	resets []string
	err    error
}

func (f *fakeResetLedger) ListContacts(_ context.Context, _ string) ([]models.Contact, error) {
	return nil, nil
}

func (f *fakeResetLedger) Reset(_ context.Context, playerID string) error {
	if f.err != nil {
		return f.err
	}
	f.resets = append(f.resets, playerID)
	return nil
}

type stubLoader struct {
	payload string
	calls   int
}

func (s *stubLoader) Load(_ context.Context) ([]byte, error) {
	s.calls++
	return []byte(s.payload), nil
}

func postReset(fn http.HandlerFunc, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	req.Header.Set("X-User-ID", userID)
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestResetClearsLedgerAndCachedPages(t *testing.T) {
	ledger := &fakeResetLedger{}
	h := &Handler{Cache: cache.New(time.Minute, time.Minute), Ledger: ledger}
	fn := middleware.RequireUser(h.ResetHandler)

	// Warm pages for the resetting player and for a bystander whose
	// timeline also shows the player's posts.
	ownDM := &stubLoader{payload: "dm-page"}
	ownTimeline := &stubLoader{payload: "own-timeline"}
	otherTimeline := &stubLoader{payload: "other-timeline"}
	ctx := context.Background()
	_, err := h.Cache.Get(ctx, cache.DMKey("player-1", "npc-a", ""), ownDM.Load)
	require.NoError(t, err)
	_, err = h.Cache.Get(ctx, cache.TimelineKey("player-1", ""), ownTimeline.Load)
	require.NoError(t, err)
	_, err = h.Cache.Get(ctx, cache.TimelineKey("player-2", ""), otherTimeline.Load)
	require.NoError(t, err)

	rec := postReset(fn, "player-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"player-1"}, ledger.resets)

	_, err = h.Cache.Get(ctx, cache.DMKey("player-1", "npc-a", ""), ownDM.Load)
	require.NoError(t, err)
	_, err = h.Cache.Get(ctx, cache.TimelineKey("player-1", ""), ownTimeline.Load)
	require.NoError(t, err)
	_, err = h.Cache.Get(ctx, cache.TimelineKey("player-2", ""), otherTimeline.Load)
	require.NoError(t, err)

	assert.Equal(t, 2, ownDM.calls, "player's DM pages reload")
	assert.Equal(t, 2, ownTimeline.calls, "player's timeline reloads")
	assert.Equal(t, 2, otherTimeline.calls, "other users' timelines reload too: the player's posts were deleted")
}

func TestResetFailureKeepsCache(t *testing.T) {
	ledger := &fakeResetLedger{err: errors.New("store down")}
	h := &Handler{Cache: cache.New(time.Minute, time.Minute), Ledger: ledger}
	fn := middleware.RequireUser(h.ResetHandler)

	dm := &stubLoader{payload: "dm-page"}
	ctx := context.Background()
	_, err := h.Cache.Get(ctx, cache.DMKey("player-1", "npc-a", ""), dm.Load)
	require.NoError(t, err)

	rec := postReset(fn, "player-1")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err = h.Cache.Get(ctx, cache.DMKey("player-1", "npc-a", ""), dm.Load)
	require.NoError(t, err)
	assert.Equal(t, 1, dm.calls, "failed reset leaves cached pages intact")
}
