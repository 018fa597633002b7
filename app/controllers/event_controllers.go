package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/meetup/app/resources"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/resource"
	"github.com/shashiranjanraj/meetup/pkg/ws"
)

type EventController struct {
	events *services.EventService
	hub    *ws.Hub
}

// NewEventController serves the feed. hub may be nil, which disables the
// WebSocket endpoint.
func NewEventController(events *services.EventService, hub *ws.Hub) *EventController {
	return &EventController{events: events, hub: hub}
}

func (ec *EventController) List(c *ctx.Context) {
	events, err := ec.events.ListMine(c.Context(), caller(c).ID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resource.Collection(resources.Event, events))
}

// Stream upgrades GET /api/events/ws. The upgrader writes its own error
// response when the handshake is bad.
func (ec *EventController) Stream(c *ctx.Context) {
	if ec.hub == nil {
		c.Error(http.StatusNotFound, "Not found.")
		return
	}
	if err := ws.Upgrade(c.W, c.R, ec.hub, caller(c).ID); err != nil {
		logger.WithCtx(c.Context()).Warn("websocket upgrade failed", "error", err)
	}
}
