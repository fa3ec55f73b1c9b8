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

// EventRepository handles persistence and catalog queries for events.
type EventRepository struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool, lockTimeout time.Duration) *EventRepository {
	return &EventRepository{db: db, lockTimeout: lockTimeout}
}

// Create inserts a new event and returns it with its generated id.
func (r *EventRepository) Create(ctx context.Context, e model.Event) (*model.Event, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO events (name, max_participants, participants, price, creator_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, create_time`,
		e.Name, e.MaxParticipants, e.Participants, e.Price, e.CreatorID,
	).Scan(&e.ID, &e.CreateTime)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &e, nil
}

// GetSummary returns one event with its aggregate rating, or model.ErrEventNotFound.
func (r *EventRepository) GetSummary(ctx context.Context, id int64) (*model.EventSummary, error) {
	s, err := scanSummary(r.db.QueryRow(ctx,
		`SELECT`+summaryColumns+`
		 FROM events e`+ratingJoin+`
		 WHERE e.id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &s, nil
}

// List returns a page of events, newest first. An empty search matches all
// names; otherwise the match is a case-insensitive substring.
func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]model.EventSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+summaryColumns+`
		 FROM events e`+ratingJoin+`
		 WHERE $1::text = '' OR strpos(lower(e.name), lower($1::text)) > 0
		 ORDER BY e.create_time DESC, e.id DESC
		 OFFSET $2 LIMIT $3`,
		f.Search, f.Skip, f.Take,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectSummaries(rows)
}

// ListForUser returns a page of events the user holds an active registration for.
func (r *EventRepository) ListForUser(ctx context.Context, userID int64, skip, take int) ([]model.EventSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+summaryColumns+`
		 FROM events e
		 JOIN event_registrations g
		   ON g.event_id = e.id AND g.user_id = $1 AND g.status = 'active'`+ratingJoin+`
		 ORDER BY g.register_time DESC, e.id DESC
		 OFFSET $2 LIMIT $3`,
		userID, skip, take,
	)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return collectSummaries(rows)
}

// Delete removes an event owned by requesterID. It refuses while any active
// registration exists; cancelled registrations and reviews cascade.
func (r *EventRepository) Delete(ctx context.Context, eventID, requesterID int64) error {
	return inTx(ctx, r.db, r.lockTimeout, func(tx pgx.Tx) error {
		var creatorID *int64
		err := tx.QueryRow(ctx,
			`SELECT creator_id FROM events WHERE id = $1 FOR UPDATE`,
			eventID,
		).Scan(&creatorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrEventNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}
		if creatorID == nil || *creatorID != requesterID {
			return model.ErrForbidden
		}

		var active bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM event_registrations WHERE event_id = $1 AND status = 'active'
			 )`,
			eventID,
		).Scan(&active)
		if err != nil {
			return fmt.Errorf("check active registrations: %w", err)
		}
		if active {
			return model.ErrEventHasRegistrations
		}

		if _, err = tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}
