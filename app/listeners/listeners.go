// Package listeners fans committed events out of the process: to the
// recipient's open WebSocket connections and to NATS.
package listeners

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/app/resources"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/event"
	"github.com/shashiranjanraj/meetup/pkg/resource"
)

// SubjectPrefix is followed by the event type, e.g. meetup.events.request.
const SubjectPrefix = "meetup.events."

// Pusher delivers a payload to a user's live connections. *ws.Hub
// implements it.
type Pusher interface {
	SendToUser(userID string, data []byte) bool
}

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var errHubBusy = errors.New("listeners: websocket hub saturated")

// Message is the frame pushed to WebSocket clients.
type Message struct {
	Type string       `json:"type"`
	Data resource.Map `json:"data"`
}

// Register attaches the listeners that have a backend. Either of hub and
// pub may be nil.
func Register(bus *event.Bus, store repositories.Store, hub Pusher, pub Publisher) {
	if hub != nil {
		bus.Listen(services.EventCreated, "ws.push", Push(store, hub))
	}
	if pub != nil {
		bus.Listen(services.EventCreated, "nats.publish", Publish(pub))
	}
}

func asEvent(payload any) (models.Event, error) {
	switch e := payload.(type) {
	case models.Event:
		return e, nil
	case *models.Event:
		return *e, nil
	}
	return models.Event{}, fmt.Errorf("listeners: unexpected payload %T", payload)
}

// Push sends the event to its recipient when they accept push
// notifications.
func Push(store repositories.Store, hub Pusher) event.Handler {
	return func(ctx context.Context, payload any) error {
		ev, err := asEvent(payload)
		if err != nil {
			return err
		}
		u, err := store.Users().FindByID(ctx, ev.UserID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("listeners: push recipient: %w", err)
		}
		if !u.ReceivePushNotifications {
			return nil
		}

		data, err := json.Marshal(Message{Type: "event", Data: resources.Event(ev)})
		if err != nil {
			return err
		}
		if !hub.SendToUser(ev.UserID, data) {
			return errHubBusy
		}
		return nil
	}
}

// Publish emits the event on SubjectPrefix + type.
func Publish(pub Publisher) event.Handler {
	return func(_ context.Context, payload any) error {
		ev, err := asEvent(payload)
		if err != nil {
			return err
		}
		data, err := json.Marshal(resources.Event(ev))
		if err != nil {
			return err
		}
		if err := pub.Publish(SubjectPrefix+string(ev.Type), data); err != nil {
			return fmt.Errorf("listeners: nats publish: %w", err)
		}
		return nil
	}
}
