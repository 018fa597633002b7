// Package repositories is the persistence boundary. Services depend on the
// Store interface; GormStore and MongoStore implement it.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/meetup/app/models"
)

var (
	ErrNotFound  = errors.New("repositories: not found")
	ErrDuplicate = errors.New("repositories: duplicate")
)

type Store interface {
	Users() UserRepository
	Meets() MeetRepository
	Attendees() AttendeeRepository
	Events() EventRepository

	// Transaction runs fn against a Store bound to one transaction. A
	// returned error rolls everything back. Inside fn only tx may be used.
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

type UserRepository interface {
	// Create stores u together with its memberships.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	// FindByEmail matches the already lowercased email exactly.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByDisplayName(ctx context.Context, name string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Update writes profile, preference and credential fields.
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error

	// AddRole returns ErrDuplicate when the user already holds role.
	AddRole(ctx context.Context, userID, role string) error
	// RemoveRole returns ErrNotFound when the user does not hold role.
	RemoveRole(ctx context.Context, userID, role string) error

	AddFavourite(ctx context.Context, userID, item string) error
	RemoveFavourite(ctx context.Context, userID, item string) error
}

// NearbyQuery selects upcoming meets around a point.
type NearbyQuery struct {
	Lat, Lng     float64
	RadiusKm     float64
	ExcludeOwner string
	After        time.Time
	Limit        int
}

type NearbyMeet struct {
	Meet       models.Meet
	DistanceKm float64
}

type MeetRepository interface {
	Create(ctx context.Context, m *models.Meet) error
	FindByID(ctx context.Context, id string) (*models.Meet, error)
	// FindByIDs orders by datetime ascending.
	FindByIDs(ctx context.Context, ids []string) ([]models.Meet, error)
	ListIDsByOwner(ctx context.Context, ownerID string) ([]string, error)
	// Update writes location, name and description.
	Update(ctx context.Context, m *models.Meet) error
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) error
	// Nearby returns hits sorted by distance ascending.
	Nearby(ctx context.Context, q NearbyQuery) ([]NearbyMeet, error)
	IncrementParticipants(ctx context.Context, id string, delta int) error
}

type AttendeeRepository interface {
	// Create returns ErrDuplicate when (user, meet) already exists.
	Create(ctx context.Context, a *models.Attendee) error
	FindInMeet(ctx context.Context, meetID, attendeeID string) (*models.Attendee, error)
	FindByUserAndMeet(ctx context.Context, userID, meetID string) (*models.Attendee, error)
	// An empty state lists every row.
	ListByMeet(ctx context.Context, meetID string, state models.AttendeeState) ([]models.Attendee, error)
	ListByUser(ctx context.Context, userID string, state models.AttendeeState) ([]models.Attendee, error)
	// TransitionState moves id from one state to another only if it is
	// still in from. It reports whether the row changed.
	TransitionState(ctx context.Context, id string, from, to models.AttendeeState) (bool, error)
	MarkSeen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	DeleteByMeets(ctx context.Context, meetIDs []string) error
	DeleteByUser(ctx context.Context, userID string) error
}

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Event, error)
	ClearActionRequired(ctx context.Context, attendeeID string) (int64, error)
	DeleteByAttendee(ctx context.Context, attendeeID string) error
	DeleteByMeets(ctx context.Context, meetIDs []string) error
	DeleteByUser(ctx context.Context, userID string) error
}
