package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// EventService creates and deletes events.
type EventService struct {
	events EventStore
	retry  *TxRetry
	log    *zap.Logger
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(events EventStore, retry *TxRetry, log *zap.Logger) *EventService {
	return &EventService{events: events, retry: retry, log: log}
}

// CreateEvent validates the request and stores an empty event owned by creatorID.
func (s *EventService) CreateEvent(ctx context.Context, creatorID int64, req model.CreateEventRequest) (*model.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.events.Create(ctx, model.Event{
		Name:            req.Name,
		MaxParticipants: req.MaxParticipants,
		Price:           req.Price,
		CreatorID:       &creatorID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("event created",
		zap.Int64("event_id", event.ID),
		zap.Int64("creator_id", creatorID),
		zap.Int("max_participants", event.MaxParticipants),
	)
	return event, nil
}

// DeleteEvent removes an event on behalf of its creator.
func (s *EventService) DeleteEvent(ctx context.Context, eventID, requesterID int64) error {
	if eventID <= 0 {
		return model.ErrEventNotFound
	}

	err := s.retry.Do(ctx, "delete event", func() error {
		return s.events.Delete(ctx, eventID, requesterID)
	})
	if err != nil {
		return err
	}

	s.log.Info("event deleted",
		zap.Int64("event_id", eventID),
		zap.Int64("requester_id", requesterID),
	)
	return nil
}
