package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// RegistrationService books and releases event slots.
type RegistrationService struct {
	registrations RegistrationStore
	retry         *TxRetry
	log           *zap.Logger
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(registrations RegistrationStore, retry *TxRetry, log *zap.Logger) *RegistrationService {
	return &RegistrationService{registrations: registrations, retry: retry, log: log}
}

// RegisterForEvent claims one slot on the event for the user. The whole
// check-and-claim is one store transaction; contention is retried.
func (s *RegistrationService) RegisterForEvent(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	if eventID <= 0 {
		return nil, model.ErrEventNotFound
	}
	if userID <= 0 {
		return nil, model.ErrUserNotFound
	}

	var reg *model.Registration
	err := s.retry.Do(ctx, "register for event", func() error {
		var err error
		reg, err = s.registrations.Register(ctx, eventID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("registration created",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
	)
	return reg, nil
}

// CancelRegistration releases the user's active slot on the event.
func (s *RegistrationService) CancelRegistration(ctx context.Context, eventID, userID int64) (*model.Registration, error) {
	if eventID <= 0 || userID <= 0 {
		return nil, model.ErrNotRegistered
	}

	var reg *model.Registration
	err := s.retry.Do(ctx, "cancel registration", func() error {
		var err error
		reg, err = s.registrations.Cancel(ctx, eventID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("registration cancelled",
		zap.Int64("registration_id", reg.ID),
		zap.Int64("event_id", eventID),
		zap.Int64("user_id", userID),
	)
	return reg, nil
}
