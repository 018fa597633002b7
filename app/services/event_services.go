package services

import (
	"context"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
)

// EventService reads the per-user event feed.
type EventService struct {
	store repositories.Store
}

func NewEventService(store repositories.Store) *EventService {
	return &EventService{store: store}
}

// ListMine returns the caller's events, newest first.
func (s *EventService) ListMine(ctx context.Context, userID string) ([]models.Event, error) {
	events, err := s.store.Events().ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list events", err)
	}
	return events, nil
}
