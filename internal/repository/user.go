package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// UserRepository stores accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user. A taken username yields model.ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	u := &model.User{Username: username, PasswordHash: passwordHash}
	err := r.db.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2)
		 RETURNING id, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintUsername) {
			return nil, model.ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	u := &model.User{}
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users `+where, arg,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Stats counts the user's created events, registrations of any status, and reviews.
func (r *UserRepository) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	var s model.UserStats
	err := r.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM events WHERE creator_id = $1),
		   (SELECT COUNT(*) FROM event_registrations WHERE user_id = $1),
		   (SELECT COUNT(*) FROM event_reviews WHERE user_id = $1)`,
		userID,
	).Scan(&s.CreatedEvents, &s.Registrations, &s.Reviews)
	if err != nil {
		return model.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return s, nil
}
