// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the store layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowchartsman/retry"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// EventStore persists events and answers catalog queries.
type EventStore interface {
	Create(ctx context.Context, e model.Event) (*model.Event, error)
	GetSummary(ctx context.Context, id int64) (*model.EventSummary, error)
	List(ctx context.Context, f model.EventFilter) ([]model.EventSummary, error)
	ListForUser(ctx context.Context, userID int64, skip, take int) ([]model.EventSummary, error)
	Delete(ctx context.Context, eventID, requesterID int64) error
}

// RegistrationStore runs the capacity-guarded registration transactions.
type RegistrationStore interface {
	Register(ctx context.Context, eventID, userID int64) (*model.Registration, error)
	Cancel(ctx context.Context, eventID, userID int64) (*model.Registration, error)
}

// ReviewStore persists reviews.
type ReviewStore interface {
	Create(ctx context.Context, r model.Review) (*model.Review, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.ReviewView, error)
}

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Stats(ctx context.Context, userID int64) (model.UserStats, error)
}

// Stores bundles one backend's implementations of every store.
type Stores struct {
	Events        EventStore
	Registrations RegistrationStore
	Reviews       ReviewStore
	Users         UserStore
}

// Pagination bounds.
const (
	DefaultTake = 10
	MaxTake     = 100
)

// NormalizePage clamps a requested page into the accepted range.
func NormalizePage(skip, take int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	switch {
	case take <= 0:
		take = DefaultTake
	case take > MaxTake:
		take = MaxTake
	}
	return skip, take
}

// TxRetry re-runs a store transaction that failed with
// model.ErrTransientConflict. Any other outcome is returned after one run.
type TxRetry struct {
	attempts int
	delay    time.Duration
	maxDelay time.Duration
	log      *zap.Logger
}

// NewTxRetry constructs a TxRetry allowing at most attempts runs.
func NewTxRetry(attempts int, delay, maxDelay time.Duration, log *zap.Logger) *TxRetry {
	if attempts < 1 {
		attempts = 1
	}
	return &TxRetry{attempts: attempts, delay: delay, maxDelay: maxDelay, log: log}
}

// Do runs fn until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. The last case yields model.ErrTransientConflict.
func (t *TxRetry) Do(ctx context.Context, op string, fn func() error) error {
	retrier := retry.NewRetrier(t.attempts, t.delay, t.maxDelay)

	var (
		result  error
		attempt int
	)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		attempt++
		if err := ctx.Err(); err != nil {
			result = err
			return nil
		}

		err := fn()
		if errors.Is(err, model.ErrTransientConflict) {
			t.log.Warn("transient store conflict",
				zap.String("op", op),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", t.attempts),
				zap.Error(err),
			)
			return err
		}
		result = err
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s gave up after %d attempts", model.ErrTransientConflict, op, attempt)
	}
	return result
}
