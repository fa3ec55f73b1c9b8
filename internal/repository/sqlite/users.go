package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

type UserRepository struct {
	store *Store
}

// Create inserts a user. A taken username yields model.ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	created := now()
	res, err := r.store.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, created,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", classify(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &model.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    fromMillis(created),
	}, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `WHERE username = ?`, username)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u       model.User
		created int64
	)
	err := r.store.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

// Stats counts created events, registrations of any status, and reviews.
func (r *UserRepository) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	var s model.UserStats
	err := r.store.db.QueryRowContext(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM events WHERE creator_id = ?1),
		   (SELECT COUNT(*) FROM event_registrations WHERE user_id = ?1),
		   (SELECT COUNT(*) FROM event_reviews WHERE user_id = ?1)`,
		userID,
	).Scan(&s.CreatedEvents, &s.Registrations, &s.Reviews)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return s, nil
}
