package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/auth"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(userID int64, username string) (string, error)
}

// UserService handles sign-up, login and the caller's own views.
type UserService struct {
	users  UserStore
	events EventStore
	tokens TokenIssuer
	log    *zap.Logger

	// dummyHash is compared against on unknown usernames so both
	// login failures cost one bcrypt comparison.
	dummyHash string
}

// NewUserService constructs a UserService.
func NewUserService(users UserStore, events EventStore, tokens TokenIssuer, log *zap.Logger) (*UserService, error) {
	dummy, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		return nil, err
	}
	return &UserService{
		users:     users,
		events:    events,
		tokens:    tokens,
		log:       log,
		dummyHash: dummy,
	}, nil
}

// Register creates an account.
func (s *UserService) Register(ctx context.Context, req model.CredentialsRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, req.Username, hash)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, req model.CredentialsRequest) (*model.Session, error) {
	if err := req.ValidateLogin(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		_, _ = auth.CheckPassword(s.dummyHash, req.Password)
		return nil, model.ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.Session{Token: token, UserID: user.ID, Username: user.Username}, nil
}

// Profile returns the user with a page of their active registrations.
func (s *UserService) Profile(ctx context.Context, userID int64, skip, take int) (*model.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	skip, take = NormalizePage(skip, take)
	events, err := s.events.ListForUser(ctx, userID, skip, take)
	if err != nil {
		return nil, err
	}
	return &model.Profile{
		UserID:           user.ID,
		Username:         user.Username,
		RegisteredEvents: events,
	}, nil
}

// Stats returns the user's activity counts.
func (s *UserService) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.UserStats{}, err
	}
	return s.users.Stats(ctx, userID)
}
