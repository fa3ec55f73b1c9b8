package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/auth"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/repository/sqlite"
)

type testEnv struct {
	store         *sqlite.Store
	registrations *RegistrationService
	reviews       *ReviewService
	catalog       *CatalogService
	events        *EventService
	users         *UserService
	tokens        *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	retry := NewTxRetry(3, time.Millisecond, 5*time.Millisecond, log)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users, err := NewUserService(store.Users(), store.Events(), tokens, log)
	require.NoError(t, err)

	return &testEnv{
		store:         store,
		registrations: NewRegistrationService(store.Registrations(), retry, log),
		reviews:       NewReviewService(store.Reviews(), retry, log),
		catalog:       NewCatalogService(store.Events()),
		events:        NewEventService(store.Events(), retry, log),
		users:         users,
		tokens:        tokens,
	}
}

func (e *testEnv) user(t *testing.T, name string) int64 {
	t.Helper()
	u, err := e.store.Users().Create(context.Background(), name, "hash")
	require.NoError(t, err)
	return u.ID
}

func (e *testEnv) event(t *testing.T, name string, capacity int) int64 {
	t.Helper()
	ev, err := e.store.Events().Create(context.Background(), model.Event{Name: name, MaxParticipants: capacity, Price: 5})
	require.NoError(t, err)
	return ev.ID
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name               string
		skip, take         int
		wantSkip, wantTake int
	}{
		{"defaults", 0, 0, 0, DefaultTake},
		{"negative skip", -5, 20, 0, 20},
		{"capped take", 3, 1000, 3, MaxTake},
		{"negative take", 0, -1, 0, DefaultTake},
		{"in range", 40, 25, 40, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, take := NormalizePage(tt.skip, tt.take)
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.wantTake, take)
		})
	}
}

func TestTxRetry(t *testing.T) {
	ctx := context.Background()
	retry := NewTxRetry(4, time.Millisecond, 2*time.Millisecond, zaptest.NewLogger(t))

	t.Run("retries transient then succeeds", func(t *testing.T) {
		calls := 0
		err := retry.Do(ctx, "op", func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("wrapped: %w", model.ErrTransientConflict)
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after budget", func(t *testing.T) {
		calls := 0
		err := retry.Do(ctx, "op", func() error {
			calls++
			return model.ErrTransientConflict
		})
		assert.ErrorIs(t, err, model.ErrTransientConflict)
		assert.Equal(t, 4, calls)
	})

	t.Run("business error is not retried", func(t *testing.T) {
		calls := 0
		err := retry.Do(ctx, "op", func() error {
			calls++
			return model.ErrCapacityExceeded
		})
		assert.ErrorIs(t, err, model.ErrCapacityExceeded)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := retry.Do(cctx, "op", func() error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, calls)
	})

	t.Run("cancellation interrupts backoff", func(t *testing.T) {
		slow := NewTxRetry(3, time.Hour, time.Hour, zaptest.NewLogger(t))
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		calls := 0
		start := time.Now()
		err := slow.Do(cctx, "op", func() error {
			calls++
			cancel()
			return model.ErrTransientConflict
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
		assert.Less(t, time.Since(start), time.Minute)
	})
}

func TestRegisterForEvent_ConcurrentCapacity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const capacity, callers = 3, 12
	eventID := env.event(t, "Capacity Test", capacity)
	userIDs := make([]int64, callers)
	for i := range userIDs {
		userIDs[i] = env.user(t, fmt.Sprintf("caller%02d", i))
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, callers)
	)
	for i, id := range userIDs {
		wg.Add(1)
		go func(i int, userID int64) {
			defer wg.Done()
			_, errs[i] = env.registrations.RegisterForEvent(ctx, eventID, userID)
		}(i, id)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, model.ErrCapacityExceeded):
			full++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, capacity, ok)
	assert.Equal(t, callers-capacity, full)

	event, err := env.catalog.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, capacity, event.Participants)
	assert.LessOrEqual(t, event.Participants, event.MaxParticipants)
}

func TestCapacityOneScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Private Dinner", 1)
	a, b := env.user(t, "alice"), env.user(t, "bob")

	var (
		wg    sync.WaitGroup
		errsA error
		errsB error
	)
	wg.Add(2)
	go func() { defer wg.Done(); _, errsA = env.registrations.RegisterForEvent(ctx, eventID, a) }()
	go func() { defer wg.Done(); _, errsB = env.registrations.RegisterForEvent(ctx, eventID, b) }()
	wg.Wait()

	if errsA == nil {
		assert.ErrorIs(t, errsB, model.ErrCapacityExceeded)
	} else {
		assert.ErrorIs(t, errsA, model.ErrCapacityExceeded)
		assert.NoError(t, errsB)
	}

	reviews, err := env.reviews.GetReviewsForEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
	assert.False(t, ComputeAggregateRating(nil).Rated())

	event, err := env.catalog.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.False(t, event.AverageRating.Rated())
	assert.Zero(t, event.ReviewCount)
}

func TestRegisterForEvent_NoDoubleBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Meetup", 10)
	userID := env.user(t, "alice")

	_, err := env.registrations.RegisterForEvent(ctx, eventID, userID)
	require.NoError(t, err)

	_, err = env.registrations.RegisterForEvent(ctx, eventID, userID)
	assert.ErrorIs(t, err, model.ErrDuplicateRegistration)

	event, err := env.catalog.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 1, event.Participants)
}

func TestRegisterForEvent_NotFound(t *testing.T) {
	env := newTestEnv(t)
	userID := env.user(t, "alice")

	_, err := env.registrations.RegisterForEvent(context.Background(), 12345, userID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)

	_, err = env.registrations.RegisterForEvent(context.Background(), 0, userID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestCancelThenReregister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Workshop", 2)
	userID := env.user(t, "alice")

	_, err := env.registrations.CancelRegistration(ctx, eventID, userID)
	assert.ErrorIs(t, err, model.ErrNotRegistered)

	_, err = env.registrations.RegisterForEvent(ctx, eventID, userID)
	require.NoError(t, err)

	before, err := env.catalog.GetEvent(ctx, eventID)
	require.NoError(t, err)

	reg, err := env.registrations.CancelRegistration(ctx, eventID, userID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationCancelled, reg.Status)

	after, err := env.catalog.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, before.Participants-1, after.Participants)

	_, err = env.registrations.RegisterForEvent(ctx, eventID, userID)
	require.NoError(t, err)

	mine, err := env.catalog.ListEventsForUser(ctx, userID, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, eventID, mine[0].ID)
}

func TestSubmitReview_Eligibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Talk", 10)
	outsider := env.user(t, "outsider")

	_, err := env.reviews.SubmitReview(ctx, eventID, outsider, 5, nil)
	assert.ErrorIs(t, err, model.ErrNotEligible)

	reviews, err := env.reviews.GetReviewsForEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Empty(t, reviews)

	_, err = env.reviews.SubmitReview(ctx, 999, outsider, 5, nil)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestSubmitReview_OncePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Talk", 10)
	userID := env.user(t, "alice")
	_, err := env.registrations.RegisterForEvent(ctx, eventID, userID)
	require.NoError(t, err)

	comment := "  solid talk  "
	review, err := env.reviews.SubmitReview(ctx, eventID, userID, 4, &comment)
	require.NoError(t, err)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "solid talk", *review.Comment)

	for _, rating := range []int{1, 4, 5} {
		_, err = env.reviews.SubmitReview(ctx, eventID, userID, rating, nil)
		assert.ErrorIs(t, err, model.ErrDuplicateReview)
	}

	// Cancelling and rejoining does not reopen the review.
	_, err = env.registrations.CancelRegistration(ctx, eventID, userID)
	require.NoError(t, err)
	_, err = env.registrations.RegisterForEvent(ctx, eventID, userID)
	require.NoError(t, err)
	_, err = env.reviews.SubmitReview(ctx, eventID, userID, 2, nil)
	assert.ErrorIs(t, err, model.ErrDuplicateReview)
}

func TestSubmitReview_CancelledParticipantMayReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Talk", 10)
	userID := env.user(t, "alice")
	_, err := env.registrations.RegisterForEvent(ctx, eventID, userID)
	require.NoError(t, err)
	_, err = env.registrations.CancelRegistration(ctx, eventID, userID)
	require.NoError(t, err)

	_, err = env.reviews.SubmitReview(ctx, eventID, userID, 3, nil)
	assert.NoError(t, err)
}

func TestGetReviewsForEvent_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	eventID := env.event(t, "Conf", 10)
	for i, rating := range []int{5, 3, 4} {
		userID := env.user(t, fmt.Sprintf("reviewer%d", i))
		_, err := env.registrations.RegisterForEvent(ctx, eventID, userID)
		require.NoError(t, err)
		_, err = env.reviews.SubmitReview(ctx, eventID, userID, rating, nil)
		require.NoError(t, err)
	}

	reviews, err := env.reviews.GetReviewsForEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, "reviewer2", reviews[0].Username)
	assert.Equal(t, "reviewer0", reviews[2].Username)

	plain := make([]model.Review, len(reviews))
	for i, r := range reviews {
		plain[i] = r.Review
	}
	assert.Equal(t, 4.0, ComputeAggregateRating(plain).Average)

	event, err := env.catalog.GetEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, event.AverageRating.Average)
	assert.Equal(t, 3, event.ReviewCount)

	_, err = env.reviews.GetReviewsForEvent(ctx, 999)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestComputeAggregateRating(t *testing.T) {
	reviews := func(ratings ...int) []model.Review {
		out := make([]model.Review, len(ratings))
		for i, r := range ratings {
			out[i] = model.Review{Rating: r}
		}
		return out
	}

	tests := []struct {
		name    string
		reviews []model.Review
		want    float64
		rated   bool
	}{
		{"empty", nil, 0, false},
		{"single", reviews(3), 3.0, true},
		{"whole mean", reviews(5, 3, 4), 4.0, true},
		{"half", reviews(4, 5), 4.5, true},
		{"rounded", reviews(1, 2, 2), 1.7, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAggregateRating(tt.reviews)
			assert.Equal(t, tt.rated, got.Rated())
			assert.InDelta(t, tt.want, got.Average, 1e-9)
			assert.Equal(t, len(tt.reviews), got.Count)
		})
	}
}

func TestListEvents_Search(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.event(t, "Spring Conference 2025", 100)
	env.event(t, "Rust Meetup", 30)
	env.event(t, "Go Workshop", 20)

	found, err := env.catalog.ListEvents(ctx, "conf", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Spring Conference 2025", found[0].Name)

	all, err := env.catalog.ListEvents(ctx, "   ", -3, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := env.catalog.ListEvents(ctx, "", 50, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestEventService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	owner := env.user(t, "owner")
	other := env.user(t, "other")

	_, err := env.events.CreateEvent(ctx, owner, model.CreateEventRequest{Name: "  ", MaxParticipants: 5})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = env.events.CreateEvent(ctx, owner, model.CreateEventRequest{Name: "Bad", MaxParticipants: 0})
	assert.ErrorIs(t, err, model.ErrValidation)

	event, err := env.events.CreateEvent(ctx, owner, model.CreateEventRequest{Name: "  Launch  ", MaxParticipants: 5, Price: 9.99})
	require.NoError(t, err)
	assert.Equal(t, "Launch", event.Name)
	assert.Zero(t, event.Participants)
	require.NotNil(t, event.CreatorID)
	assert.Equal(t, owner, *event.CreatorID)

	assert.ErrorIs(t, env.events.DeleteEvent(ctx, event.ID, other), model.ErrForbidden)

	_, err = env.registrations.RegisterForEvent(ctx, event.ID, other)
	require.NoError(t, err)
	assert.ErrorIs(t, env.events.DeleteEvent(ctx, event.ID, owner), model.ErrEventHasRegistrations)

	_, err = env.registrations.CancelRegistration(ctx, event.ID, other)
	require.NoError(t, err)
	require.NoError(t, env.events.DeleteEvent(ctx, event.ID, owner))

	_, err = env.catalog.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, model.ErrEventNotFound)
}

func TestUserService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, model.CredentialsRequest{Username: "al", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = env.users.Register(ctx, model.CredentialsRequest{Username: "alice", Password: strings.Repeat("é", 40)})
	assert.ErrorIs(t, err, model.ErrValidation)

	user, err := env.users.Register(ctx, model.CredentialsRequest{Username: " alice ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = env.users.Register(ctx, model.CredentialsRequest{Username: "alice", Password: "another1"})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)

	session, err := env.users.Login(ctx, model.CredentialsRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)

	id, err := env.tokens.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id.UserID)
	assert.Equal(t, "alice", id.Username)

	_, err = env.users.Login(ctx, model.CredentialsRequest{Username: "alice", Password: "wrong-pass"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = env.users.Login(ctx, model.CredentialsRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestUserService_ProfileAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, model.CredentialsRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	created, err := env.events.CreateEvent(ctx, user.ID, model.CreateEventRequest{Name: "Mine", MaxParticipants: 3})
	require.NoError(t, err)
	joined := env.event(t, "Joined", 3)

	for _, id := range []int64{created.ID, joined} {
		_, err = env.registrations.RegisterForEvent(ctx, id, user.ID)
		require.NoError(t, err)
	}
	_, err = env.registrations.CancelRegistration(ctx, created.ID, user.ID)
	require.NoError(t, err)
	_, err = env.reviews.SubmitReview(ctx, joined, user.ID, 5, nil)
	require.NoError(t, err)

	profile, err := env.users.Profile(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	require.Len(t, profile.RegisteredEvents, 1)
	assert.Equal(t, joined, profile.RegisteredEvents[0].ID)
	assert.Equal(t, 5.0, profile.RegisteredEvents[0].AverageRating.Average)

	stats, err := env.users.Stats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStats{CreatedEvents: 1, Registrations: 2, Reviews: 1}, stats)

	_, err = env.users.Profile(ctx, 999, 0, 0)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
