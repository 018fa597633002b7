package listeners_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/listeners"
	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/app/services"
	_ "github.com/shashiranjanraj/meetup/database/migrations"
	"github.com/shashiranjanraj/meetup/pkg/event"
	"github.com/shashiranjanraj/meetup/pkg/testkit"
)

type recorder struct {
	mu   sync.Mutex
	sent map[string][][]byte
	full bool
}

func (r *recorder) SendToUser(userID string, data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return false
	}
	if r.sent == nil {
		r.sent = make(map[string][][]byte)
	}
	r.sent[userID] = append(r.sent[userID], data)
	return true
}

type publisher struct{ mock.Mock }

func (p *publisher) Publish(subject string, data []byte) error {
	return p.Called(subject, data).Error(0)
}

func user(t *testing.T, store repositories.Store, email, name string, push bool) *models.User {
	t.Helper()
	u := models.NewUser(email, name, models.MethodLocal)
	u.ReceivePushNotifications = push
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func TestPushRespectsPreference(t *testing.T) {
	store := repositories.NewGormStore(testkit.SQLite(t))
	on := user(t, store, "ana@example.com", "ana", true)
	off := user(t, store, "bo@example.com", "bo", false)

	hub := &recorder{}
	push := listeners.Push(store, hub)
	ctx := context.Background()

	require.NoError(t, push(ctx, models.Event{ID: "e-1", UserID: on.ID, Title: "Join request", Type: models.EventRequest}))
	require.NoError(t, push(ctx, models.Event{ID: "e-2", UserID: off.ID, Title: "Join request"}))
	require.NoError(t, push(ctx, models.Event{ID: "e-3", UserID: "gone"}))

	require.Len(t, hub.sent[on.ID], 1)
	assert.Empty(t, hub.sent[off.ID])

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(hub.sent[on.ID][0], &msg))
	assert.Equal(t, "event", msg.Type)
	assert.Equal(t, "e-1", msg.Data["id"])
	assert.Equal(t, "request", msg.Data["type"])

	hub.full = true
	assert.Error(t, push(ctx, models.Event{UserID: on.ID}))
	assert.Error(t, push(ctx, "not an event"))
}

func TestPublishSubject(t *testing.T) {
	pub := &publisher{}
	pub.On("Publish", "meetup.events.notification", mock.Anything).Return(nil).Once()
	pub.On("Publish", "meetup.events.request", mock.Anything).Return(errors.New("nats down")).Once()

	handler := listeners.Publish(pub)
	ctx := context.Background()

	require.NoError(t, handler(ctx, &models.Event{ID: "e-1", Type: models.EventNotification}))
	assert.Error(t, handler(ctx, models.Event{ID: "e-2", Type: models.EventRequest}))
	pub.AssertExpectations(t)
}

func TestRegisterWiresBus(t *testing.T) {
	store := repositories.NewGormStore(testkit.SQLite(t))
	u := user(t, store, "ana@example.com", "ana", true)

	pub := &publisher{}
	pub.On("Publish", "meetup.events.notification", mock.Anything).Return(nil)
	hub := &recorder{}

	bus := event.NewBus(nil)
	listeners.Register(bus, store, hub, pub)
	bus.Fire(context.Background(), services.EventCreated, models.Event{ID: "e-1", UserID: u.ID, Type: models.EventNotification})

	assert.Len(t, hub.sent[u.ID], 1)
	pub.AssertNumberOfCalls(t, "Publish", 1)

	// Nil backends register nothing.
	listeners.Register(event.NewBus(nil), store, nil, nil)
}
