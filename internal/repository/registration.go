package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// RegistrationRepository handles registration persistence and the
// capacity-guarded transactions around it.
type RegistrationRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool, lockTimeout time.Duration) *RegistrationRepository {
	return &RegistrationRepository{db: db, lockTimeout: lockTimeout}
}

// Register atomically claims one capacity slot on an event for a user.
//
// The event row is locked with SELECT ... FOR UPDATE before the capacity and
// duplicate checks, so concurrent registrations for the same event run one
// after another. Without the lock two transactions could both read
// participants = max-1 and both increment past capacity.
//
// Checks run in order: event exists, user exists, capacity, duplicate.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	var reg *model.Registration

	err := inTx(ctx, r.db, r.lockTimeout, func(tx pgx.Tx) error {
		var maxParticipants, participants int
		err := tx.QueryRow(ctx,
			`SELECT max_participants, participants FROM events WHERE id = $1 FOR UPDATE`,
			eventID,
		).Scan(&maxParticipants, &participants)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrEventNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		var userExists bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID,
		).Scan(&userExists); err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !userExists {
			return model.ErrUserNotFound
		}

		if participants >= maxParticipants {
			return model.ErrCapacityExceeded
		}

		var active bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM event_registrations
			   WHERE event_id = $1 AND user_id = $2 AND status = 'active'
			 )`,
			eventID, userID,
		).Scan(&active); err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if active {
			return model.ErrDuplicateRegistration
		}

		if _, err = tx.Exec(ctx,
			`UPDATE events SET participants = participants + 1 WHERE id = $1`, eventID,
		); err != nil {
			return fmt.Errorf("increment participants: %w", err)
		}

		reg = &model.Registration{
			UserID:  userID,
			EventID: eventID,
			Status:  model.RegistrationActive,
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO event_registrations (user_id, event_id, status)
			 VALUES ($1, $2, 'active')
			 RETURNING id, register_time`,
			userID, eventID,
		).Scan(&reg.ID, &reg.RegisterTime)
		if err != nil {
			if isUniqueViolation(err, constraintOneActiveRegistration) {
				return model.ErrDuplicateRegistration
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Cancel flips the user's active registration to cancelled and releases the
// slot. The participant counter never drops below zero.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	var reg *model.Registration

	err := inTx(ctx, r.db, r.lockTimeout, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotRegistered
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		reg = &model.Registration{
			UserID:  userID,
			EventID: eventID,
			Status:  model.RegistrationCancelled,
		}
		err = tx.QueryRow(ctx,
			`UPDATE event_registrations SET status = 'cancelled'
			 WHERE event_id = $1 AND user_id = $2 AND status = 'active'
			 RETURNING id, register_time`,
			eventID, userID,
		).Scan(&reg.ID, &reg.RegisterTime)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotRegistered
			}
			return fmt.Errorf("cancel registration: %w", err)
		}

		if _, err = tx.Exec(ctx,
			`UPDATE events SET participants = GREATEST(participants - 1, 0) WHERE id = $1`, eventID,
		); err != nil {
			return fmt.Errorf("decrement participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
