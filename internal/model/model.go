// Package model defines the core domain types for the event registration and review system.
package model

import (
	"encoding/json"
	"math"
	"time"
)

// RegistrationStatus is the lifecycle state of a Registration.
type RegistrationStatus string

const (
	RegistrationActive    RegistrationStatus = "active"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// User is an account that can create events, register for them and review them.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Event represents a schedulable activity with a participant capacity.
// Participants is only ever changed inside registration transactions.
type Event struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	MaxParticipants int       `json:"maxParticipants"`
	Participants    int       `json:"participants"`
	Price           float64   `json:"price"`
	CreatorID       *int64    `json:"creatorId"`
	CreateTime      time.Time `json:"createTime"`
}

// Remaining returns the number of free slots.
func (e *Event) Remaining() int {
	return e.MaxParticipants - e.Participants
}

// IsFull returns true when no slots remain.
func (e *Event) IsFull() bool {
	return e.Participants >= e.MaxParticipants
}

// Registration is a user's claim on one of an event's capacity slots.
type Registration struct {
	ID           int64              `json:"id"`
	UserID       int64              `json:"userId"`
	EventID      int64              `json:"eventId"`
	Status       RegistrationStatus `json:"status"`
	RegisterTime time.Time          `json:"registerTime"`
}

// Review is a one-time rating plus optional comment for an event.
// A nil Comment means the user left no comment.
type Review struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	EventID   int64     `json:"eventId"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewView is a Review annotated with the reviewer's display name.
type ReviewView struct {
	Review
	Username string `json:"username"`
}

// AggregateRating is the mean of an event's ratings. It is derived on read
// and never stored. A zero Count is the "no rating" state and encodes as null.
type AggregateRating struct {
	Average float64
	Count   int
}

// NewAggregateRating builds an AggregateRating from a rating total and count,
// rounding the mean to one decimal place.
func NewAggregateRating(sum int64, count int) AggregateRating {
	if count <= 0 {
		return AggregateRating{}
	}
	avg := float64(sum) / float64(count)
	return AggregateRating{
		Average: math.Round(avg*10) / 10,
		Count:   count,
	}
}

// Rated reports whether at least one review contributed to the aggregate.
func (a AggregateRating) Rated() bool {
	return a.Count > 0
}

// MarshalJSON renders the average, or null when there is no rating.
func (a AggregateRating) MarshalJSON() ([]byte, error) {
	if !a.Rated() {
		return []byte("null"), nil
	}
	return json.Marshal(a.Average)
}

// EventSummary is an Event joined with its derived review data for display.
type EventSummary struct {
	Event
	SeatsLeft     int             `json:"remaining"`
	Full          bool            `json:"full"`
	AverageRating AggregateRating `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
}

// NewEventSummary derives the display fields of e from its rating totals.
func NewEventSummary(e Event, ratingSum int64, ratingCount int) EventSummary {
	return EventSummary{
		Event:         e,
		SeatsLeft:     max(e.Remaining(), 0),
		Full:          e.IsFull(),
		AverageRating: NewAggregateRating(ratingSum, ratingCount),
		ReviewCount:   ratingCount,
	}
}

// EventFilter selects a page of events.
type EventFilter struct {
	Search string
	Skip   int
	Take   int
}

// UserStats counts what a user has created, joined and reviewed.
type UserStats struct {
	CreatedEvents int `json:"createdEventsCount"`
	Registrations int `json:"registeredEventsCount"`
	Reviews       int `json:"reviewsCount"`
}

// Profile is the authenticated user's view of themselves.
type Profile struct {
	UserID           int64          `json:"userId"`
	Username         string         `json:"username"`
	RegisteredEvents []EventSummary `json:"registeredEvents"`
}

// Session is issued on successful login.
type Session struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// DataResponse is the success envelope. Data is always present, possibly null.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
