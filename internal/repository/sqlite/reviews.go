package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

type ReviewRepository struct {
	store *Store
}

// Create stores a validated review for a user holding a registration of any status.
func (r *ReviewRepository) Create(ctx context.Context, rv model.Review) (*model.Review, error) {
	err := r.store.inTx(ctx, func(tx *sql.Tx) error {
		var exists, registered, reviewed bool
		err := tx.QueryRowContext(ctx,
			`SELECT
			   EXISTS (SELECT 1 FROM events WHERE id = ?1),
			   EXISTS (SELECT 1 FROM event_registrations WHERE event_id = ?1 AND user_id = ?2),
			   EXISTS (SELECT 1 FROM event_reviews WHERE event_id = ?1 AND user_id = ?2)`,
			rv.EventID, rv.UserID,
		).Scan(&exists, &registered, &reviewed)
		if err != nil {
			return fmt.Errorf("check review preconditions: %w", err)
		}
		switch {
		case !exists:
			return model.ErrEventNotFound
		case !registered:
			return model.ErrNotEligible
		case reviewed:
			return model.ErrDuplicateReview
		}

		created := now()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO event_reviews (user_id, event_id, rating, comment, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			rv.UserID, rv.EventID, rv.Rating, rv.Comment, created,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return model.ErrDuplicateReview
			}
			return fmt.Errorf("insert review: %w", err)
		}
		if rv.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("review id: %w", err)
		}
		rv.CreatedAt = fromMillis(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// ListByEvent returns an event's reviews newest first with reviewer names.
func (r *ReviewRepository) ListByEvent(ctx context.Context, eventID int64) ([]model.ReviewView, error) {
	var exists bool
	if err := r.store.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = ?)`, eventID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return nil, model.ErrEventNotFound
	}

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.event_id, r.rating, r.comment, r.created_at,
		        COALESCE(u.username, '')
		 FROM event_reviews r
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = ?
		 ORDER BY r.created_at DESC, r.id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.ReviewView{}
	for rows.Next() {
		var (
			v       model.ReviewView
			created int64
		)
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.EventID, &v.Rating, &v.Comment, &created, &v.Username,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		v.CreatedAt = fromMillis(created)
		reviews = append(reviews, v)
	}
	return reviews, rows.Err()
}
