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

// ReviewRepository persists reviews and lists them per event.
type ReviewRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *pgxpool.Pool, lockTimeout time.Duration) *ReviewRepository {
	return &ReviewRepository{db: db, lockTimeout: lockTimeout}
}

// Create stores a review after checking the event exists, the user has a
// registration of any status, and no review exists yet for the pair.
// Rating and comment must already be validated.
func (r *ReviewRepository) Create(ctx context.Context, rv model.Review) (*model.Review, error) {
	err := inTx(ctx, r.db, r.lockTimeout, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx,
			`SELECT id FROM events WHERE id = $1 FOR SHARE`, rv.EventID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrEventNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		var registered bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM event_registrations WHERE event_id = $1 AND user_id = $2
			 )`,
			rv.EventID, rv.UserID,
		).Scan(&registered); err != nil {
			return fmt.Errorf("check eligibility: %w", err)
		}
		if !registered {
			return model.ErrNotEligible
		}

		var reviewed bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM event_reviews WHERE event_id = $1 AND user_id = $2
			 )`,
			rv.EventID, rv.UserID,
		).Scan(&reviewed); err != nil {
			return fmt.Errorf("check existing review: %w", err)
		}
		if reviewed {
			return model.ErrDuplicateReview
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO event_reviews (user_id, event_id, rating, comment)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			rv.UserID, rv.EventID, rv.Rating, rv.Comment,
		).Scan(&rv.ID, &rv.CreatedAt)
		if err != nil {
			// Two first reviews racing: the loser hits the unique constraint.
			if isUniqueViolation(err, constraintReviewUserEvent) {
				return model.ErrDuplicateReview
			}
			return fmt.Errorf("insert review: %w", err)
		}
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
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return nil, model.ErrEventNotFound
	}

	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.user_id, r.event_id, r.rating, r.comment, r.created_at,
		        COALESCE(u.username, '')
		 FROM event_reviews r
		 LEFT JOIN users u ON u.id = r.user_id
		 WHERE r.event_id = $1
		 ORDER BY r.created_at DESC, r.id DESC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.ReviewView{}
	for rows.Next() {
		var v model.ReviewView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.EventID, &v.Rating, &v.Comment, &v.CreatedAt, &v.Username,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, v)
	}
	return reviews, rows.Err()
}
