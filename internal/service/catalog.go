package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/event-reg-and-review/internal/model"
)

// CatalogService answers read-only event queries.
type CatalogService struct {
	events EventStore
}

func NewCatalogService(events EventStore) *CatalogService {
	return &CatalogService{events: events}
}

// ListEvents returns a page of events whose name contains search,
// ignoring case. A blank search lists everything.
func (s *CatalogService) ListEvents(ctx context.Context, search string, skip, take int) ([]model.EventSummary, error) {
	skip, take = NormalizePage(skip, take)
	return s.events.List(ctx, model.EventFilter{
		Search: strings.TrimSpace(search),
		Skip:   skip,
		Take:   take,
	})
}

// ListEventsForUser returns a page of events the user is actively registered for.
func (s *CatalogService) ListEventsForUser(ctx context.Context, userID int64, skip, take int) ([]model.EventSummary, error) {
	skip, take = NormalizePage(skip, take)
	return s.events.ListForUser(ctx, userID, skip, take)
}

// GetEvent returns a single event summary.
func (s *CatalogService) GetEvent(ctx context.Context, id int64) (*model.EventSummary, error) {
	if id <= 0 {
		return nil, model.ErrEventNotFound
	}
	return s.events.GetSummary(ctx, id)
}
