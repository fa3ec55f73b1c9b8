package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

type mockRegistrations struct{ mock.Mock }

func (m *mockRegistrations) RegisterForEvent(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	args := m.Called(ctx, eventID, userID)
	reg, _ := args.Get(0).(*model.Registration)
	return reg, args.Error(1)
}

func (m *mockRegistrations) CancelRegistration(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	args := m.Called(ctx, eventID, userID)
	reg, _ := args.Get(0).(*model.Registration)
	return reg, args.Error(1)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) SubmitReview(ctx context.Context, eventID, userID int64, rating int, comment *string) (*model.Review, error) {
	args := m.Called(ctx, eventID, userID, rating, comment)
	rv, _ := args.Get(0).(*model.Review)
	return rv, args.Error(1)
}

func (m *mockReviews) GetReviewsForEvent(ctx context.Context, eventID int64) ([]model.ReviewView, error) {
	args := m.Called(ctx, eventID)
	rv, _ := args.Get(0).([]model.ReviewView)
	return rv, args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) ListEvents(ctx context.Context, search string, skip, take int) ([]model.EventSummary, error) {
	args := m.Called(ctx, search, skip, take)
	ev, _ := args.Get(0).([]model.EventSummary)
	return ev, args.Error(1)
}

func (m *mockCatalog) ListEventsForUser(ctx context.Context, userID int64, skip, take int) ([]model.EventSummary, error) {
	args := m.Called(ctx, userID, skip, take)
	ev, _ := args.Get(0).([]model.EventSummary)
	return ev, args.Error(1)
}

func (m *mockCatalog) GetEvent(ctx context.Context, id int64) (*model.EventSummary, error) {
	args := m.Called(ctx, id)
	ev, _ := args.Get(0).(*model.EventSummary)
	return ev, args.Error(1)
}

type mockEvents struct{ mock.Mock }

func (m *mockEvents) CreateEvent(ctx context.Context, creatorID int64, req model.CreateEventRequest) (*model.Event, error) {
	args := m.Called(ctx, creatorID, req)
	ev, _ := args.Get(0).(*model.Event)
	return ev, args.Error(1)
}

func (m *mockEvents) DeleteEvent(ctx context.Context, eventID, requesterID int64) error {
	return m.Called(ctx, eventID, requesterID).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Register(ctx context.Context, req model.CredentialsRequest) (*model.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUsers) Login(ctx context.Context, req model.CredentialsRequest) (*model.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *mockUsers) Profile(ctx context.Context, userID int64, skip, take int) (*model.Profile, error) {
	args := m.Called(ctx, userID, skip, take)
	p, _ := args.Get(0).(*model.Profile)
	return p, args.Error(1)
}

func (m *mockUsers) Stats(ctx context.Context, userID int64) (model.UserStats, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(model.UserStats)
	return s, args.Error(1)
}
