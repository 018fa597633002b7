package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	_ "github.com/shashiranjanraj/meetup/database/migrations"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/event"
	"github.com/shashiranjanraj/meetup/pkg/testkit"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// Maribor city centre and a spot a few hundred metres away.
const (
	centreLat, centreLng = 46.5547, 15.6459
	nearLat, nearLng     = 46.5580, 15.6500
	farLat, farLng       = 46.0569, 14.5058
)

type env struct {
	store  repositories.Store
	auth   *AuthService
	users  *UserService
	admin  *AdminService
	meets  *MeetService
	events *EventService

	mu    sync.Mutex
	fired []models.Event
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repositories.NewGormStore(testkit.SQLite(t))
	bus := event.NewBus(nil)

	e := &env{
		store:  store,
		auth:   NewAuthService(store, nil, nil),
		users:  NewUserService(store, nil),
		admin:  NewAdminService(store, nil),
		meets:  NewMeetService(store, bus),
		events: NewEventService(store),
	}
	e.meets.now = func() time.Time { return testNow }
	bus.Listen(EventCreated, "record", func(_ context.Context, p any) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.fired = append(e.fired, p.(models.Event))
		return nil
	})
	return e
}

func (e *env) signup(t *testing.T, email, name string) *models.User {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), SignupInput{Email: email, Password: "secret1", DisplayName: name})
	require.NoError(t, err)
	return u
}

func (e *env) meetAt(t *testing.T, owner *models.User, lat, lng float64, at time.Time) *models.Meet {
	t.Helper()
	m, err := e.meets.Create(context.Background(), owner.ID, CreateMeetInput{
		Latitude: lat, Longitude: lng, LocationName: "Main square", Datetime: at,
	})
	require.NoError(t, err)
	return m
}

func (e *env) meet(t *testing.T, owner *models.User) *models.Meet {
	return e.meetAt(t, owner, centreLat, centreLng, testNow.Add(24*time.Hour))
}

func (e *env) participants(t *testing.T, meetID string) int {
	t.Helper()
	m, err := e.store.Meets().FindByID(context.Background(), meetID)
	require.NoError(t, err)
	return m.TotalParticipants
}

func (e *env) firedTitles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	titles := make([]string, 0, len(e.fired))
	for _, ev := range e.fired {
		titles = append(titles, ev.Title)
	}
	return titles
}

func assertAppErr(t *testing.T, err error, kind *apperr.Error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	if msg != "" {
		assert.Equal(t, msg, apperr.From(err).Message)
	}
}
