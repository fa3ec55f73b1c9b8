package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// EventRepository stores events and serves catalog queries.
type EventRepository struct {
	store *Store
}

// Create inserts a new event and returns it with its generated id.
func (r *EventRepository) Create(ctx context.Context, e model.Event) (*model.Event, error) {
	created := now()
	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO events (name, max_participants, participants, price, creator_id, create_time)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.MaxParticipants, e.Participants, e.Price, e.CreatorID, created,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", classify(err))
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("event id: %w", err)
	}
	e.CreateTime = fromMillis(created)
	return &e, nil
}

// GetSummary returns one event with its aggregate rating, or model.ErrEventNotFound.
func (r *EventRepository) GetSummary(ctx context.Context, id int64) (*model.EventSummary, error) {
	s, err := scanSummary(r.store.db.QueryRowContext(ctx,
		`SELECT`+summaryColumns+`
		 FROM events e`+ratingJoin+`
		 WHERE e.id = ?`,
		id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &s, nil
}

// List returns a page of events, newest first, filtered by a
// case-insensitive name substring when f.Search is set.
func (r *EventRepository) List(ctx context.Context, f model.EventFilter) ([]model.EventSummary, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT`+summaryColumns+`
		 FROM events e`+ratingJoin+`
		 WHERE ?1 = '' OR instr(fold_case(e.name), fold_case(?1)) > 0
		 ORDER BY e.create_time DESC, e.id DESC
		 LIMIT ?3 OFFSET ?2`,
		f.Search, f.Skip, f.Take,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return collectSummaries(rows)
}

// ListForUser returns a page of events the user is actively registered for.
func (r *EventRepository) ListForUser(ctx context.Context, userID int64, skip, take int) ([]model.EventSummary, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT`+summaryColumns+`
		 FROM events e
		 JOIN event_registrations g
		   ON g.event_id = e.id AND g.user_id = ? AND g.status = 'active'`+ratingJoin+`
		 ORDER BY g.register_time DESC, e.id DESC
		 LIMIT ? OFFSET ?`,
		userID, take, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list user events: %w", err)
	}
	return collectSummaries(rows)
}

// Delete removes an event owned by requesterID unless it still has active
// registrations.
func (r *EventRepository) Delete(ctx context.Context, eventID, requesterID int64) error {
	return r.store.inTx(ctx, func(tx *sql.Tx) error {
		var creatorID *int64
		err := tx.QueryRowContext(ctx,
			`SELECT creator_id FROM events WHERE id = ?`, eventID,
		).Scan(&creatorID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrEventNotFound
			}
			return fmt.Errorf("load event: %w", err)
		}
		if creatorID == nil || *creatorID != requesterID {
			return model.ErrForbidden
		}

		var active bool
		if err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (
			   SELECT 1 FROM event_registrations WHERE event_id = ? AND status = 'active'
			 )`,
			eventID,
		).Scan(&active); err != nil {
			return fmt.Errorf("check active registrations: %w", err)
		}
		if active {
			return model.ErrEventHasRegistrations
		}

		if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
}
