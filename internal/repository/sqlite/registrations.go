package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// RegistrationRepository runs the capacity-guarded registration transactions.
type RegistrationRepository struct {
	store *Store
}

// Register claims one slot on an event. The immediate transaction takes the
// write lock up front, so the check order (event, user, capacity, duplicate)
// and the increment see no concurrent writer.
func (r *RegistrationRepository) Register(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	var reg *model.Registration

	err := r.store.inTx(ctx, func(tx *sql.Tx) error {
		var maxParticipants, participants int
		err := tx.QueryRowContext(ctx,
			`SELECT max_participants, participants FROM events WHERE id = ?`, eventID,
		).Scan(&maxParticipants, &participants)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrEventNotFound
			}
			return fmt.Errorf("load event: %w", err)
		}

		var userExists bool
		if err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`, userID,
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
		if err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM event_registrations
			   WHERE event_id = ? AND user_id = ? AND status = 'active'
			 )`,
			eventID, userID,
		).Scan(&active); err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if active {
			return model.ErrDuplicateRegistration
		}

		if _, err = tx.ExecContext(ctx,
			`UPDATE events SET participants = participants + 1 WHERE id = ?`, eventID,
		); err != nil {
			return fmt.Errorf("increment participants: %w", err)
		}

		registered := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO event_registrations (user_id, event_id, status, register_time)
			 VALUES (?, ?, 'active', ?)`,
			userID, eventID, registered,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateRegistration
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("registration id: %w", err)
		}

		reg = &model.Registration{
			ID:           id,
			UserID:       userID,
			EventID:      eventID,
			Status:       model.RegistrationActive,
			RegisterTime: fromMillis(registered),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Cancel flips the active registration to cancelled and releases its slot.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	var reg *model.Registration

	err := r.store.inTx(ctx, func(tx *sql.Tx) error {
		var (
			id           int64
			registerTime int64
		)
		err := tx.QueryRowContext(ctx,
			`SELECT id, register_time FROM event_registrations
			 WHERE event_id = ? AND user_id = ? AND status = 'active'`,
			eventID, userID,
		).Scan(&id, &registerTime)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNotRegistered
			}
			return fmt.Errorf("load registration: %w", err)
		}

		if _, err = tx.ExecContext(ctx,
			`UPDATE event_registrations SET status = 'cancelled' WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("cancel registration: %w", err)
		}
		if _, err = tx.ExecContext(ctx,
			`UPDATE events SET participants = MAX(participants - 1, 0) WHERE id = ?`, eventID,
		); err != nil {
			return fmt.Errorf("decrement participants: %w", err)
		}

		reg = &model.Registration{
			ID:           id,
			UserID:       userID,
			EventID:      eventID,
			Status:       model.RegistrationCancelled,
			RegisterTime: fromMillis(registerTime),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}
