// Package app orchestrates the question/answer pipeline: assemble history,
// invoke the answer engine, extract product references, persist the turn.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"clearbuybot/pkg/ai"
	"clearbuybot/pkg/chat"
	"clearbuybot/pkg/domain"
	"clearbuybot/pkg/store"
)

const (
	defaultHistoryLimit      = 10
	defaultMaxConcurrentAsks = 8
)

// Config holds runtime configuration for the core application.
type Config struct {
	Store store.ChatStore
	// DSN is used to open a GORM/Postgres store when Store is nil.
	DSN    string
	Engine ai.AnswerEngine
	// HistoryLimit bounds how many prior turns are re-supplied to the
	// engine as context. Zero selects the default of 10.
	HistoryLimit int
	// MaxConcurrentAsks caps in-flight engine calls across all users.
	MaxConcurrentAsks int
}

// App is the core application service wiring storage, the answer engine,
// and response post-processing.
type App struct {
	store        store.ChatStore
	engine       ai.AnswerEngine
	historyLimit int
	askSlots     *semaphore.Weighted

	// Per-user serialization so concurrent turns for one user cannot
	// interleave history reads and writes.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DSN == "" {
			return nil, fmt.Errorf("database DSN required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("answer engine required")
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	maxAsks := cfg.MaxConcurrentAsks
	if maxAsks <= 0 {
		maxAsks = defaultMaxConcurrentAsks
	}
	return &App{
		store:        dataStore,
		engine:       cfg.Engine,
		historyLimit: historyLimit,
		askSlots:     semaphore.NewWeighted(int64(maxAsks)),
		userLocks:    make(map[string]*sync.Mutex),
	}, nil
}

// Ask runs one question through the full pipeline and returns the cleaned
// answer plus extracted product ids. A persistence failure after a
// successful engine call is logged but does not fail the request; the
// answer still reaches the caller.
func (a *App) Ask(ctx context.Context, userID, question string) (domain.AskResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.AskResult{}, ErrUserIDRequired
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.AskResult{}, ErrQuestionRequired
	}

	if err := a.askSlots.Acquire(ctx, 1); err != nil {
		return domain.AskResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer a.askSlots.Release(1)

	lock := a.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	turns, err := a.store.ListTurns(userID, a.historyLimit)
	if err != nil {
		return domain.AskResult{}, fmt.Errorf("%w: load history: %v", ErrPersistence, err)
	}
	history := assembleHistory(turns)

	raw, err := a.engine.Answer(ctx, question, history)
	if err != nil {
		return domain.AskResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	productIDs, cleaned := chat.ExtractProductIDs(raw)

	// Cancellation after the engine call means no turn is recorded.
	if err := ctx.Err(); err != nil {
		return domain.AskResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if _, err := a.store.AppendTurn(userID, question, cleaned, productIDs); err != nil {
		slog.Error("persist chat turn failed", "user_id", userID, "err", err)
	}

	return domain.AskResult{
		UserQuestion: question,
		Response:     cleaned,
		ProductIDs:   productIDs,
	}, nil
}

// History returns every recorded turn for the user in chronological order.
// ErrNoHistory is returned when nothing is recorded.
func (a *App) History(userID string) ([]domain.HistoryEntry, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	turns, err := a.store.ListTurns(userID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: list turns: %v", ErrPersistence, err)
	}
	if len(turns) == 0 {
		return nil, ErrNoHistory
	}
	entries := make([]domain.HistoryEntry, 0, len(turns))
	for _, turn := range turns {
		timestamp := ""
		if !turn.CreatedAt.IsZero() {
			timestamp = turn.CreatedAt.UTC().Format(time.RFC3339)
		}
		entries = append(entries, domain.HistoryEntry{
			Question:   turn.Question,
			Answer:     turn.Answer,
			ProductIDs: turn.ProductIDs,
			Timestamp:  timestamp,
		})
	}
	return entries, nil
}

// ClearChat removes every turn for the user. The store-level delete is
// idempotent; the 404 for unknown users is decided here via the existence
// check.
func (a *App) ClearChat(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	ok, err := a.store.HasTurns(userID)
	if err != nil {
		return fmt.Errorf("%w: existence check: %v", ErrPersistence, err)
	}
	if !ok {
		return ErrNoHistory
	}
	removed, err := a.store.DeleteTurns(userID)
	if err != nil {
		return fmt.Errorf("%w: delete turns: %v", ErrPersistence, err)
	}
	slog.Info("chat history cleared", "user_id", userID, "removed", removed)
	return nil
}

func (a *App) lockFor(userID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		a.userLocks[userID] = lock
	}
	return lock
}
