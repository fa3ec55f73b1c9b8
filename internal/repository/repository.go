// Package repository implements the Event Store on PostgreSQL.
// It uses pgx directly (no ORM); every mutation runs in a single transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// Unique constraints whose violation maps to a business error.
const (
	constraintOneActiveRegistration = "event_registrations_one_active"
	constraintReviewUserEvent       = "event_reviews_user_event"
	constraintUsername              = "users_username_key"
)

type scanner interface {
	Scan(dest ...any) error
}

// inTx runs fn inside a transaction with a bounded lock wait. Lock and
// serialization failures come back wrapped in model.ErrTransientConflict.
func inTx(ctx context.Context, db *pgxpool.Pool, lockTimeout time.Duration, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return classify(fmt.Errorf("begin transaction: %w", err))
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	if lockTimeout > 0 {
		if _, err = tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", lockTimeout.Milliseconds())); err != nil {
			return classify(fmt.Errorf("set lock timeout: %w", err))
		}
	}

	if err = fn(tx); err != nil {
		return classify(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.LockNotAvailable:
		return fmt.Errorf("%w: %w", model.ErrTransientConflict, err)
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}

const summaryColumns = `
	e.id, e.name, e.max_participants, e.participants, e.price, e.creator_id, e.create_time,
	COALESCE(rv.rating_sum, 0), COALESCE(rv.rating_count, 0)`

const ratingJoin = `
	LEFT JOIN (
		SELECT event_id, SUM(rating) AS rating_sum, COUNT(*) AS rating_count
		FROM event_reviews
		GROUP BY event_id
	) rv ON rv.event_id = e.id`

func scanSummary(row scanner) (model.EventSummary, error) {
	var (
		e     model.Event
		sum   int64
		count int
	)
	err := row.Scan(
		&e.ID, &e.Name, &e.MaxParticipants, &e.Participants, &e.Price, &e.CreatorID, &e.CreateTime,
		&sum, &count,
	)
	if err != nil {
		return model.EventSummary{}, err
	}
	return model.NewEventSummary(e, sum, count), nil
}

func collectSummaries(rows pgx.Rows) ([]model.EventSummary, error) {
	defer rows.Close()

	events := []model.EventSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, s)
	}
	return events, rows.Err()
}
