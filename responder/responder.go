// Package responder orchestrates a send-message action: rate check,
// bounded context build, retried model call, atomic ledger append, cache
// invalidation. A player chat send can fail fast with a cooldown, but it
// never dead-ends: when the model stays unavailable the NPC answers with
// its fixed fallback line.
package responder

import (
	"context"
	"log"
	"strings"
	"time"

	"chatnet/cache"
	"chatnet/history"
	"chatnet/models"
	"chatnet/npc"
	"chatnet/prompts"
	"chatnet/ratelimit"
	"chatnet/retry"
)

// RateLimiter gates AI-triggering actions per user.
type RateLimiter interface {
	TryAcquire(ctx context.Context, userID string) (ratelimit.Decision, error)
}

// Ledger is the durable record of player↔NPC conversation state.
type Ledger interface {
	GetOrCreate(ctx context.Context, playerID, npcID string) (models.Relationship, error)
	History(ctx context.Context, playerID, npcID string, limit int) ([]models.DMMessage, error)
	AppendExchange(ctx context.Context, playerID, npcID, userText, assistantText string) ([]models.DMMessage, error)
}

// ModelClient is the remote generative model.
type ModelClient interface {
	Generate(ctx context.Context, systemPrompt string, turns []history.Turn, userMessage string) (string, error)
}

// Invalidator drops cached pages after a successful write.
type Invalidator interface {
	Invalidate(prefix string)
}

// Config carries the orchestration tunables.
type Config struct {
	MaxTurns    int
	MaxBytes    int
	MaxAttempts int
	RetryDelay  time.Duration
}

type Responder struct {
	limiter RateLimiter
	ledger  Ledger
	model   ModelClient
	catalog *npc.Catalog
	cache   Invalidator
	cfg     Config
}

func New(limiter RateLimiter, ledger Ledger, model ModelClient, catalog *npc.Catalog, invalidator Invalidator, cfg Config) *Responder {
	return &Responder{
		limiter: limiter,
		ledger:  ledger,
		model:   model,
		catalog: catalog,
		cache:   invalidator,
		cfg:     cfg,
	}
}

// Result is the committed outcome of a send.
type Result struct {
	UserMessage models.DMMessage
	Reply       models.DMMessage
	Fallback    bool
}

// Generate runs the send pipeline for one user message. Side effects are
// committed exactly once, after the reply text is finalized; a cancelled
// context abandons the exchange without appending anything.
func (r *Responder) Generate(ctx context.Context, userID, npcID, text string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(CodeInvalidInput, "empty_message", nil)
	}

	def, ok := r.catalog.Get(npcID)
	if !ok {
		return nil, newError(CodeNotFound, "unknown_npc", nil)
	}

	dec, err := r.limiter.TryAcquire(ctx, userID)
	if err != nil {
		return nil, newError(CodeInternal, "rate_limit_check", err)
	}
	if !dec.Allowed {
		log.Printf("[RATE_LIMIT] user=%s denied, retry after %s", userID, dec.RetryAfter)
		return nil, &Error{Code: CodeRateLimited, Reason: "cooldown", RetryAfter: dec.RetryAfter}
	}

	if _, err := r.ledger.GetOrCreate(ctx, userID, npcID); err != nil {
		return nil, newError(CodeInternal, "ledger_access", err)
	}
	msgs, err := r.ledger.History(ctx, userID, npcID, r.cfg.MaxTurns)
	if err != nil {
		return nil, newError(CodeInternal, "history_read", err)
	}

	// The trimmed context is built once and reused across attempts so
	// retries are deterministic.
	turns := history.BuildContext(msgs, r.cfg.MaxTurns, r.cfg.MaxBytes)
	systemPrompt := prompts.BuildSystemPrompt(def)

	var reply string
	fallback := false
	err = retry.Do(ctx, retry.Config{
		MaxAttempts:  r.cfg.MaxAttempts,
		InitialDelay: r.cfg.RetryDelay,
	}, func() error {
		out, err := r.model.Generate(ctx, systemPrompt, turns, text)
		if err != nil {
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		// A superseded or abandoned request commits nothing.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[MODEL_FALLBACK] npc=%s attempts=%d: %v", npcID, r.cfg.MaxAttempts, err)
		reply = def.Fallback
		fallback = true
	}

	appended, err := r.ledger.AppendExchange(ctx, userID, npcID, text, reply)
	if err != nil {
		return nil, newError(CodeInternal, "ledger_append", err)
	}

	r.cache.Invalidate(cache.DMPrefix(userID, npcID))

	return &Result{
		UserMessage: appended[0],
		Reply:       appended[1],
		Fallback:    fallback,
	}, nil
}
