package model

import (
	"fmt"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Name            string  `json:"name"`
	MaxParticipants int     `json:"maxParticipants"`
	Price           float64 `json:"price"`
}

// Validate checks field ranges after trimming the name.
func (r *CreateEventRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return wrapValidation(validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&r.MaxParticipants, validation.Required, validation.Min(1), validation.Max(100_000)),
		validation.Field(&r.Price, validation.Min(0.0)),
	))
}

// RegisterRequest is the payload for registering for an event.
// UserID may be omitted, in which case the caller's own id is used.
type RegisterRequest struct {
	EventID int64 `json:"eventId"`
	UserID  int64 `json:"userId"`
}

func (r *RegisterRequest) Validate() error {
	return wrapValidation(validation.ValidateStruct(r,
		validation.Field(&r.EventID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.UserID, validation.Min(int64(0))),
	))
}

// CancelRequest is the optional body of a cancellation.
type CancelRequest struct {
	UserID int64 `json:"userId"`
}

// ReviewRequest is the payload for submitting a review. Rating is decoded
// as any JSON number so fractional values reach the rating rule instead of
// failing the decode.
type ReviewRequest struct {
	EventID int64    `json:"event_id"`
	UserID  int64    `json:"userId"`
	Rating  *float64 `json:"rating"`
	Comment *string  `json:"comment"`
}

// IntRating returns the rating as an integer, or 0 when it is missing or
// fractional. 0 is never a valid rating.
func (r *ReviewRequest) IntRating() int {
	if r.Rating == nil || *r.Rating != math.Trunc(*r.Rating) || math.Abs(*r.Rating) > 1e6 {
		return 0
	}
	return int(*r.Rating)
}

// Validate only checks identifiers; rating and comment rules belong to the
// review service.
func (r *ReviewRequest) Validate() error {
	return wrapValidation(validation.ValidateStruct(r,
		validation.Field(&r.EventID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.UserID, validation.Min(int64(0))),
	))
}

// CredentialsRequest is used by both sign-up and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate enforces the sign-up rules: 3-20 character username and a password
// of at least 6 characters that fits bcrypt's 72-byte input limit.
func (r *CredentialsRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	return wrapValidation(validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required, validation.RuneLength(3, 20)),
		validation.Field(&r.Password, validation.Required, validation.RuneLength(6, 72), validation.Length(0, 72)),
	))
}

// ValidateLogin only requires both fields to be present.
func (r *CredentialsRequest) ValidateLogin() error {
	r.Username = strings.TrimSpace(r.Username)
	return wrapValidation(validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
