package controllers

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/resources"
	"github.com/shashiranjanraj/meetup/app/services"
	"github.com/shashiranjanraj/meetup/pkg/ctx"
	"github.com/shashiranjanraj/meetup/pkg/resource"
)

type MeetController struct {
	meets *services.MeetService
}

func NewMeetController(meets *services.MeetService) *MeetController {
	return &MeetController{meets: meets}
}

type createMeetRequest struct {
	Location     resources.Point `json:"location" validate:"required"`
	LocationName string          `json:"locationName" validate:"required,min=3,max=50"`
	Datetime     string          `json:"datetime" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Description  string          `json:"description" validate:"max=1000"`
}

type updateMeetRequest struct {
	Location     resources.Point `json:"location" validate:"required"`
	LocationName string          `json:"locationName" validate:"required,min=3,max=50"`
	Description  *string         `json:"description" validate:"omitempty,max=1000"`
}

type geoSearchRequest struct {
	Location string `json:"location" validate:"required"`
}

type joinRequest struct {
	Message string `json:"message" validate:"max=500"`
}

type vetoRequest struct {
	State string `json:"state" validate:"required,oneof=accepted declined"`
}

func (mc *MeetController) Create(c *ctx.Context) {
	var in createMeetRequest
	if !c.BindJSON(&in) {
		return
	}
	at, err := time.Parse(time.RFC3339, in.Datetime)
	if err != nil {
		c.Error(http.StatusBadRequest, "Request body invalid.")
		return
	}
	lat, lng := in.Location.LatLng()
	m, err := mc.meets.Create(c.Context(), caller(c).ID, services.CreateMeetInput{
		Latitude:     lat,
		Longitude:    lng,
		LocationName: in.LocationName,
		Datetime:     at,
		Description:  in.Description,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusCreated, resources.Meet(*m))
}

// List returns the meets the caller takes part in.
func (mc *MeetController) List(c *ctx.Context) {
	meets, err := mc.meets.ListMine(c.Context(), caller(c).ID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resource.Collection(resources.Meet, meets))
}

func (mc *MeetController) Show(c *ctx.Context) {
	m, err := mc.meets.Retrieve(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.Meet(*m))
}

func (mc *MeetController) Update(c *ctx.Context) {
	var in updateMeetRequest
	if !c.BindJSON(&in) {
		return
	}
	lat, lng := in.Location.LatLng()
	m, err := mc.meets.Update(c.Context(), caller(c).ID, c.Param("id"), services.UpdateMeetInput{
		Latitude:     lat,
		Longitude:    lng,
		LocationName: in.LocationName,
		Description:  in.Description,
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.Meet(*m))
}

func (mc *MeetController) Delete(c *ctx.Context) {
	if err := mc.meets.Delete(c.Context(), caller(c).ID, c.Param("id")); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

func (mc *MeetController) GeoSearch(c *ctx.Context) {
	var in geoSearchRequest
	if !c.BindJSON(&in) {
		return
	}
	hits, err := mc.meets.GeoSearch(c.Context(), caller(c), in.Location)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resource.Collection(resources.NearbyMeet, hits))
}

// Join handles POST /api/meets/{id}/attendees. The body is optional.
func (mc *MeetController) Join(c *ctx.Context) {
	var in joinRequest
	if c.R.ContentLength != 0 && !c.BindJSON(&in) {
		return
	}
	a, err := mc.meets.RequestToJoin(c.Context(), c.Param("id"), caller(c), in.Message)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusCreated, resources.Attendee(*a))
}

func (mc *MeetController) Leave(c *ctx.Context) {
	if err := mc.meets.Leave(c.Context(), c.Param("id"), caller(c).ID); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}

func (mc *MeetController) Attendees(c *ctx.Context) {
	rows, err := mc.meets.ListAttendees(c.Context(), caller(c).ID, c.Param("id"), models.AttendeeState(c.Query("state")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resource.Collection(resources.Attendee, rows))
}

func (mc *MeetController) Veto(c *ctx.Context) {
	var in vetoRequest
	if !c.BindJSON(&in) {
		return
	}
	a, err := mc.meets.Veto(c.Context(), c.Param("meetId"), c.Param("attendeeId"), caller(c).ID, models.AttendeeState(in.State))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.Attendee(*a))
}

func (mc *MeetController) Seen(c *ctx.Context) {
	a, err := mc.meets.MarkSeen(c.Context(), c.Param("meetId"), c.Param("attendeeId"), caller(c).ID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resources.Attendee(*a))
}

// MyAttendees handles GET /api/attendees.
func (mc *MeetController) MyAttendees(c *ctx.Context) {
	rows, err := mc.meets.ListMyAttendees(c.Context(), caller(c).ID, models.AttendeeState(c.Query("state")))
	if err != nil {
		c.Fail(err)
		return
	}
	c.JSON(http.StatusOK, resource.Collection(resources.Attendee, rows))
}
