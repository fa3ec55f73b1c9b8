package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 500
)

// ReviewService accepts reviews from past or present participants and
// serves them back per event.
type ReviewService struct {
	reviews ReviewStore
	retry   *TxRetry
	log     *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews ReviewStore, retry *TxRetry, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, retry: retry, log: log}
}

// SubmitReview records a one-time review. Rating and comment are checked
// before the store is touched.
func (s *ReviewService) SubmitReview(ctx context.Context, eventID, userID int64, rating int, comment *string) (*model.Review, error) {
	if rating < MinRating || rating > MaxRating {
		return nil, model.ErrInvalidRating
	}
	normalized, err := normalizeComment(comment)
	if err != nil {
		return nil, err
	}
	if eventID <= 0 {
		return nil, model.ErrEventNotFound
	}
	if userID <= 0 {
		return nil, model.ErrNotEligible
	}

	var created *model.Review
	err = s.retry.Do(ctx, "submit review", func() error {
		var err error
		created, err = s.reviews.Create(ctx, model.Review{
			EventID: eventID,
			UserID:  userID,
			Rating:  rating,
			Comment: normalized,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("review submitted",
		zap.Int64("review_id", created.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
		zap.Int("rating", rating),
	)
	return created, nil
}

// GetReviewsForEvent returns the event's reviews, newest first.
func (s *ReviewService) GetReviewsForEvent(ctx context.Context, eventID int64) ([]model.ReviewView, error) {
	if eventID <= 0 {
		return nil, model.ErrEventNotFound
	}
	return s.reviews.ListByEvent(ctx, eventID)
}

// ComputeAggregateRating returns the mean rating rounded to one decimal, or
// the unrated zero value for an empty slice.
func ComputeAggregateRating(reviews []model.Review) model.AggregateRating {
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return model.NewAggregateRating(sum, len(reviews))
}

// normalizeComment trims the comment; blank becomes nil.
func normalizeComment(comment *string) (*string, error) {
	if comment == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return nil, model.ErrCommentTooLong
	}
	return &trimmed, nil
}
