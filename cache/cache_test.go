package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type countingLoader struct {
	calls   atomic.Int64
	payload atomic.Value // []byte
	err     atomic.Value // error
}

func newCountingLoader(payload string) *countingLoader {
	l := &countingLoader{}
	l.payload.Store([]byte(payload))
	return l
}

func (l *countingLoader) Load(_ context.Context) ([]byte, error) {
	l.calls.Add(1)
	if e, ok := l.err.Load().(error); ok && e != nil {
		return nil, e
	}
	return l.payload.Load().([]byte), nil
}

func newTestCache(ttl, fresh time.Duration) (*Cache, *fakeClock) {
	c := New(ttl, fresh)
	clock := &fakeClock{t: time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)}
	c.now = clock.Now
	return c, clock
}

func TestFreshHitSkipsLoader(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10*time.Second)
	loader := newCountingLoader(`{"posts":[]}`)

	first, err := c.Get(context.Background(), "timeline|p1|", loader.Load)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), "timeline|p1|", loader.Load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), loader.calls.Load(), "fresh re-read must not hit the loader")
}

func TestExpiredEntryReloadsSynchronously(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10*time.Second)
	loader := newCountingLoader("v1")

	_, err := c.Get(context.Background(), "k", loader.Load)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	loader.payload.Store([]byte("v2"))

	got, err := c.Get(context.Background(), "k", loader.Load)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, int64(2), loader.calls.Load())
}

func TestStaleEntryServedWhileRevalidating(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10*time.Second)
	loader := newCountingLoader("v1")

	_, err := c.Get(context.Background(), "k", loader.Load)
	require.NoError(t, err)

	// Past freshness, before expiry.
	clock.Advance(30 * time.Second)
	loader.payload.Store([]byte("v2"))

	got, err := c.Get(context.Background(), "k", loader.Load)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got, "stale read returns the cached payload without blocking")

	// The background refresh eventually replaces the entry.
	require.Eventually(t, func() bool {
		v, err := c.Get(context.Background(), "k", loader.Load)
		return err == nil && string(v) == "v2"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBackgroundRefreshOutlivesRequestContext(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10*time.Second)

	var payload atomic.Value
	payload.Store([]byte("v1"))
	// The loader behaves like a real store query: it fails once its
	// context is cancelled.
	loader := func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return payload.Load().([]byte), nil
	}

	_, err := c.Get(context.Background(), "k", loader)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	payload.Store([]byte("v2"))

	// A short-lived request observes the stale entry and cancels its
	// context immediately after being served, as a finished handler does.
	reqCtx, cancel := context.WithCancel(context.Background())
	got, err := c.Get(reqCtx, "k", loader)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.Eventually(t, func() bool {
		v, err := c.Get(context.Background(), "k", loader)
		return err == nil && string(v) == "v2"
	}, 2*time.Second, 5*time.Millisecond, "refresh must complete after the triggering request is gone")
}

func TestFailedRefreshKeepsServingStale(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10*time.Second)
	loader := newCountingLoader("v1")

	_, err := c.Get(context.Background(), "k", loader.Load)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	loader.err.Store(errors.New("store down"))

	got, err := c.Get(context.Background(), "k", loader.Load)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	// Past expiry the failure becomes the caller's problem.
	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool {
		_, err := c.Get(context.Background(), "k", loader.Load)
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestInvalidateRemovesByPrefix(t *testing.T) {
	c, _ := newTestCache(time.Minute, time.Minute)
	dm := newCountingLoader("dm-page")
	timeline := newCountingLoader("timeline-page")

	_, err := c.Get(context.Background(), DMKey("p1", "npc-a", ""), dm.Load)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), TimelineKey("p1", ""), timeline.Load)
	require.NoError(t, err)

	c.Invalidate(DMPrefix("p1", "npc-a"))

	_, err = c.Get(context.Background(), DMKey("p1", "npc-a", ""), dm.Load)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), TimelineKey("p1", ""), timeline.Load)
	require.NoError(t, err)

	assert.Equal(t, int64(2), dm.calls.Load(), "invalidated page reloads")
	assert.Equal(t, int64(1), timeline.calls.Load(), "unrelated key untouched")
}

func TestLoadStartedBeforeInvalidateDoesNotRepopulate(t *testing.T) {
	c, _ := newTestCache(time.Minute, time.Minute)
	key := DMKey("p1", "npc-a", "")

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := c.Get(context.Background(), key, func(context.Context) ([]byte, error) {
			close(started)
			<-release
			return []byte("pre-append"), nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []byte("pre-append"), v)
	}()

	// The conversation is written to (and invalidated) while the page
	// load is still in flight.
	<-started
	c.Invalidate(DMPrefix("p1", "npc-a"))
	close(release)
	wg.Wait()

	after := newCountingLoader("post-append")
	got, err := c.Get(context.Background(), key, after.Load)
	require.NoError(t, err)
	assert.Equal(t, []byte("post-append"), got)
	assert.Equal(t, int64(1), after.calls.Load(), "the superseded load must not have repopulated the entry")
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	c, _ := newTestCache(time.Minute, time.Minute)

	var calls atomic.Int64
	release := make(chan struct{})
	loader := func(_ context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(context.Background(), "k", loader)
			assert.NoError(t, err)
			assert.Equal(t, []byte("shared"), v)
		}()
	}

	// Let every goroutine reach the flight before releasing the loader.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}
