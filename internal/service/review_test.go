package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) Create(ctx context.Context, r model.Review) (*model.Review, error) {
	args := m.Called(ctx, r)
	rv, _ := args.Get(0).(*model.Review)
	return rv, args.Error(1)
}

func (m *mockReviewStore) ListByEvent(ctx context.Context, eventID int64) ([]model.ReviewView, error) {
	args := m.Called(ctx, eventID)
	rv, _ := args.Get(0).([]model.ReviewView)
	return rv, args.Error(1)
}

func newMockedReviewService(store *mockReviewStore) *ReviewService {
	log := zap.NewNop()
	return NewReviewService(store, NewTxRetry(3, time.Millisecond, time.Millisecond, log), log)
}

func strPtr(s string) *string { return &s }

func TestSubmitReview_InvalidInputNeverReachesStore(t *testing.T) {
	store := &mockReviewStore{}
	svc := newMockedReviewService(store)

	tests := []struct {
		name    string
		rating  int
		comment *string
		want    error
	}{
		{"zero rating", 0, nil, model.ErrInvalidRating},
		{"negative rating", -1, nil, model.ErrInvalidRating},
		{"rating above five", 6, nil, model.ErrInvalidRating},
		{"comment too long", 3, strPtr(strings.Repeat("a", MaxCommentLength+1)), model.ErrCommentTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitReview(context.Background(), 1, 1, tt.rating, tt.comment)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_NormalizesComment(t *testing.T) {
	tests := []struct {
		name    string
		comment *string
		want    *string
	}{
		{"absent", nil, nil},
		{"blank", strPtr("   \t\n"), nil},
		{"trimmed", strPtr("  nice  "), strPtr("nice")},
		{"exactly max runes", strPtr(strings.Repeat("é", MaxCommentLength)), strPtr(strings.Repeat("é", MaxCommentLength))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockReviewStore{}
			expected := model.Review{EventID: 7, UserID: 3, Rating: 4, Comment: tt.want}
			store.On("Create", mock.Anything, expected).Return(&expected, nil).Once()

			got, err := newMockedReviewService(store).SubmitReview(context.Background(), 7, 3, 4, tt.comment)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Comment)
			store.AssertExpectations(t)
		})
	}
}

func TestSubmitReview_RetriesTransientConflict(t *testing.T) {
	store := &mockReviewStore{}
	review := model.Review{EventID: 7, UserID: 3, Rating: 5}
	store.On("Create", mock.Anything, review).Return(nil, model.ErrTransientConflict).Once()
	store.On("Create", mock.Anything, review).Return(&model.Review{ID: 11, EventID: 7, UserID: 3, Rating: 5}, nil).Once()

	got, err := newMockedReviewService(store).SubmitReview(context.Background(), 7, 3, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ID)
	store.AssertNumberOfCalls(t, "Create", 2)
}
