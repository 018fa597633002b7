package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/event"
	"github.com/shashiranjanraj/meetup/pkg/geo"
	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/metrics"
)

const (
	geoSearchLimit     = 100
	msgInvalidLocation = "Location is not a valid point."
)

// MeetService owns meets and the attendee request workflow.
type MeetService struct {
	store repositories.Store
	bus   *event.Bus
	now   func() time.Time
}

func NewMeetService(store repositories.Store, bus *event.Bus) *MeetService {
	return &MeetService{store: store, bus: bus, now: time.Now}
}

type CreateMeetInput struct {
	Latitude     float64
	Longitude    float64
	LocationName string
	Datetime     time.Time
	Description  string
}

// Create stores the meet together with the owner's accepted attendance and
// a notification for the owner.
func (s *MeetService) Create(ctx context.Context, ownerID string, in CreateMeetInput) (*models.Meet, error) {
	if !geo.ValidLatLng(in.Latitude, in.Longitude) {
		return nil, apperr.Validation(msgInvalidLocation)
	}
	m := &models.Meet{
		ID:                models.NewID(),
		UserID:            ownerID,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		LocationName:      in.LocationName,
		Datetime:          in.Datetime.UTC(),
		Description:       in.Description,
		TotalParticipants: 1,
	}

	var created []models.Event
	err := runTx(ctx, s.store, "create_meet", func(ctx context.Context, tx repositories.Store) error {
		created = nil
		if err := tx.Meets().Create(ctx, m); err != nil {
			return err
		}
		self := &models.Attendee{UserID: ownerID, MeetID: m.ID, State: models.StateAccepted, Seen: true}
		if err := tx.Attendees().Create(ctx, self); err != nil {
			return err
		}
		ev := &models.Event{
			UserID:      ownerID,
			MeetID:      m.ID,
			Title:       "Meet created",
			Description: fmt.Sprintf("Your meet at %s has been created.", m.LocationName),
			Type:        models.EventNotification,
		}
		if err := tx.Events().Create(ctx, ev); err != nil {
			return err
		}
		created = append(created, *ev)
		return nil
	})
	if err != nil {
		return nil, internal("create meet", err)
	}

	metrics.MeetsCreated.Inc()
	logger.WithCtx(ctx).Info("meet created", "meet_id", m.ID)
	publish(ctx, s.bus, created)
	return m, nil
}

// ListMine returns the meets the caller is an accepted attendee of, their
// own included, by datetime.
func (s *MeetService) ListMine(ctx context.Context, callerID string) ([]models.Meet, error) {
	rows, err := s.store.Attendees().ListByUser(ctx, callerID, models.StateAccepted)
	if err != nil {
		return nil, internal("list my meets", err)
	}
	ids := make([]string, 0, len(rows))
	for _, a := range rows {
		ids = append(ids, a.MeetID)
	}
	meets, err := s.store.Meets().FindByIDs(ctx, ids)
	if err != nil {
		return nil, internal("list my meets", err)
	}
	return meets, nil
}

func (s *MeetService) Retrieve(ctx context.Context, id string) (*models.Meet, error) {
	m, err := s.store.Meets().FindByID(ctx, id)
	if err != nil {
		return nil, lookup("retrieve meet", "Meet", err)
	}
	return m, nil
}

// owned loads a meet and hides it from everyone but its owner.
func (s *MeetService) owned(ctx context.Context, ownerID, id string) (*models.Meet, error) {
	m, err := s.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.UserID != ownerID {
		return nil, apperr.NotFound("Meet")
	}
	return m, nil
}

type UpdateMeetInput struct {
	Latitude     float64
	Longitude    float64
	LocationName string
	Description  *string
}

// Update moves or renames a meet that has not started yet.
func (s *MeetService) Update(ctx context.Context, ownerID, id string, in UpdateMeetInput) (*models.Meet, error) {
	m, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if m.Started(s.now()) {
		return nil, apperr.Forbidden(msgMeetStarted)
	}
	if !geo.ValidLatLng(in.Latitude, in.Longitude) {
		return nil, apperr.Validation(msgInvalidLocation)
	}

	m.Latitude = in.Latitude
	m.Longitude = in.Longitude
	m.LocationName = in.LocationName
	if in.Description != nil {
		m.Description = *in.Description
	}
	if err := s.store.Meets().Update(ctx, m); err != nil {
		return nil, lookup("update meet", "Meet", err)
	}
	return m, nil
}

// Delete removes the meet with its attendees and events.
func (s *MeetService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	err := runTx(ctx, s.store, "delete_meet", func(ctx context.Context, tx repositories.Store) error {
		ids := []string{id}
		if err := tx.Events().DeleteByMeets(ctx, ids); err != nil {
			return err
		}
		if err := tx.Attendees().DeleteByMeets(ctx, ids); err != nil {
			return err
		}
		return tx.Meets().Delete(ctx, id)
	})
	if err != nil {
		return lookup("delete meet", "Meet", err)
	}
	logger.WithCtx(ctx).Info("meet deleted", "meet_id", id)
	return nil
}

// NearbyHit is a geo-search result joined with its owner.
type NearbyHit struct {
	Meet       models.Meet
	Owner      models.User
	DistanceKm float64
}

// GeoSearch finds upcoming meets within the caller's max distance of
// location ("lat,long"), nearest first. The caller's own meets and meets of
// owners who hide themselves are left out.
func (s *MeetService) GeoSearch(ctx context.Context, caller *models.User, location string) ([]NearbyHit, error) {
	lat, lng, err := geo.ParseLatLng(location)
	if err != nil {
		return nil, apperr.Validation(`Invalid location. Expected "latitude,longitude".`)
	}
	radius := caller.MaxDistanceKm
	if radius <= 0 {
		radius = models.DefaultMaxDistanceKm
	}

	found, err := s.store.Meets().Nearby(ctx, repositories.NearbyQuery{
		Lat:          lat,
		Lng:          lng,
		RadiusKm:     float64(radius),
		ExcludeOwner: caller.ID,
		After:        s.now(),
		Limit:        geoSearchLimit,
	})
	if err != nil {
		return nil, internal("geo search", err)
	}
	if len(found) == 0 {
		return []NearbyHit{}, nil
	}

	seen := make(map[string]bool)
	var ownerIDs []string
	for _, f := range found {
		if !seen[f.Meet.UserID] {
			seen[f.Meet.UserID] = true
			ownerIDs = append(ownerIDs, f.Meet.UserID)
		}
	}
	owners, err := s.store.Users().FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, internal("geo search: owners", err)
	}
	byID := make(map[string]models.User, len(owners))
	for _, o := range owners {
		byID[o.ID] = o
	}

	hits := make([]NearbyHit, 0, len(found))
	for _, f := range found {
		owner, ok := byID[f.Meet.UserID]
		if !ok || owner.HideMe {
			continue
		}
		hits = append(hits, NearbyHit{Meet: f.Meet, Owner: owner, DistanceKm: f.DistanceKm})
	}
	return hits, nil
}

// RequestToJoin records a pending attendance and asks the owner to act on
// it.
func (s *MeetService) RequestToJoin(ctx context.Context, meetID string, caller *models.User, message string) (*models.Attendee, error) {
	m, err := s.Retrieve(ctx, meetID)
	if err != nil {
		return nil, err
	}
	if m.UserID == caller.ID {
		return nil, apperr.PermissionDenied("You cannot request to join your own meet.")
	}
	if _, err := s.store.Attendees().FindByUserAndMeet(ctx, caller.ID, meetID); err == nil {
		return nil, apperr.Conflict("You have already requested to join this meet.")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal("join: find attendee", err)
	}
	if m.Started(s.now()) {
		return nil, apperr.Forbidden(msgMeetStarted)
	}

	a := &models.Attendee{ID: models.NewID(), UserID: caller.ID, MeetID: meetID, Message: message, State: models.StatePending}
	var created []models.Event
	err = runTx(ctx, s.store, "request_to_join", func(ctx context.Context, tx repositories.Store) error {
		created = nil
		if err := tx.Attendees().Create(ctx, a); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperr.Conflict("You have already requested to join this meet.")
			}
			return err
		}
		ev := &models.Event{
			UserID:         m.UserID,
			MeetID:         meetID,
			AttendeeID:     a.ID,
			Title:          "Join request",
			Description:    fmt.Sprintf("%s wants to join your meet at %s.", caller.DisplayName, m.LocationName),
			Type:           models.EventRequest,
			ActionRequired: true,
		}
		if err := tx.Events().Create(ctx, ev); err != nil {
			return err
		}
		created = append(created, *ev)
		return nil
	})
	if err != nil {
		return nil, internal("request to join", err)
	}

	metrics.JoinRequests.Inc()
	publish(ctx, s.bus, created)
	return a, nil
}

func checkState(state models.AttendeeState) error {
	if state != "" && !state.Valid() {
		return apperr.Unprocessable(map[string]string{"state": "must be one of: pending accepted declined"})
	}
	return nil
}

// ListAttendees lists a meet's attendees for its owner, optionally by state.
func (s *MeetService) ListAttendees(ctx context.Context, ownerID, meetID string, state models.AttendeeState) ([]models.Attendee, error) {
	if err := checkState(state); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, ownerID, meetID); err != nil {
		return nil, err
	}
	rows, err := s.store.Attendees().ListByMeet(ctx, meetID, state)
	if err != nil {
		return nil, internal("list attendees", err)
	}
	return rows, nil
}

// ListMyAttendees lists the caller's own attendance rows.
func (s *MeetService) ListMyAttendees(ctx context.Context, callerID string, state models.AttendeeState) ([]models.Attendee, error) {
	if err := checkState(state); err != nil {
		return nil, err
	}
	rows, err := s.store.Attendees().ListByUser(ctx, callerID, state)
	if err != nil {
		return nil, internal("list my attendees", err)
	}
	return rows, nil
}

// Veto lets the owner accept or decline a pending request. Repeating the
// current state is a no-op; any other move out of accepted or declined is
// rejected. Accepting bumps the participant count once and notifies the
// attendee.
func (s *MeetService) Veto(ctx context.Context, meetID, attendeeID, ownerID string, state models.AttendeeState) (*models.Attendee, error) {
	if state != models.StateAccepted && state != models.StateDeclined {
		return nil, apperr.Unprocessable(map[string]string{"state": "must be one of: accepted declined"})
	}
	m, err := s.owned(ctx, ownerID, meetID)
	if err != nil {
		return nil, err
	}
	a, err := s.store.Attendees().FindInMeet(ctx, meetID, attendeeID)
	if err != nil {
		return nil, lookup("veto: find attendee", "Attendee", err)
	}
	if a.UserID == ownerID {
		return nil, apperr.PermissionDenied("You cannot change your own attendance.")
	}
	if a.State == state {
		return a, nil
	}
	if a.State != models.StatePending {
		return nil, illegalTransition(a.State, state)
	}

	var (
		created []models.Event
		changed bool
	)
	err = runTx(ctx, s.store, "veto_attendee", func(ctx context.Context, tx repositories.Store) error {
		created, changed = nil, false

		ok, err := tx.Attendees().TransitionState(ctx, a.ID, models.StatePending, state)
		if err != nil {
			return err
		}
		if !ok {
			// Someone resolved the request since we read it.
			cur, err := tx.Attendees().FindInMeet(ctx, meetID, attendeeID)
			if err != nil {
				return err
			}
			if cur.State == state {
				return nil
			}
			return illegalTransition(cur.State, state)
		}
		changed = true

		if _, err := tx.Events().ClearActionRequired(ctx, a.ID); err != nil {
			return err
		}
		if state != models.StateAccepted {
			return nil
		}
		if err := tx.Meets().IncrementParticipants(ctx, meetID, 1); err != nil {
			return err
		}
		ev := &models.Event{
			UserID:      a.UserID,
			MeetID:      meetID,
			AttendeeID:  a.ID,
			Title:       "Request accepted",
			Description: fmt.Sprintf("Your request to join the meet at %s was accepted.", m.LocationName),
			Type:        models.EventNotification,
		}
		if err := tx.Events().Create(ctx, ev); err != nil {
			return err
		}
		created = append(created, *ev)
		return nil
	})
	if err != nil {
		return nil, lookup("veto attendee", "Attendee", err)
	}

	a.State = state
	if changed {
		metrics.AttendeeTransitions.WithLabelValues(string(state)).Inc()
		logger.WithCtx(ctx).Info("attendee state changed", "attendee_id", a.ID, "state", state)
	}
	publish(ctx, s.bus, created)
	return a, nil
}

func illegalTransition(from, to models.AttendeeState) error {
	return apperr.Validation(fmt.Sprintf("Attendee state cannot change from %s to %s.", from, to))
}

// Leave removes the caller's attendance and its events. The owner cannot
// leave their own meet.
func (s *MeetService) Leave(ctx context.Context, meetID, callerID string) error {
	m, err := s.Retrieve(ctx, meetID)
	if err != nil {
		return err
	}
	if m.UserID == callerID {
		return apperr.PermissionDenied("You cannot leave your own meet.")
	}
	err = runTx(ctx, s.store, "leave_meet", func(ctx context.Context, tx repositories.Store) error {
		// The decrement depends on the state as committed.
		a, err := tx.Attendees().FindByUserAndMeet(ctx, callerID, meetID)
		if err != nil {
			return err
		}
		if err := tx.Events().DeleteByAttendee(ctx, a.ID); err != nil {
			return err
		}
		if err := tx.Attendees().Delete(ctx, a.ID); err != nil {
			return err
		}
		if a.State == models.StateAccepted {
			return tx.Meets().IncrementParticipants(ctx, meetID, -1)
		}
		return nil
	})
	if err != nil {
		return lookup("leave meet", "Attendee", err)
	}
	return nil
}

// MarkSeen flags a request as seen by the meet owner.
func (s *MeetService) MarkSeen(ctx context.Context, meetID, attendeeID, ownerID string) (*models.Attendee, error) {
	if _, err := s.owned(ctx, ownerID, meetID); err != nil {
		return nil, err
	}
	a, err := s.store.Attendees().FindInMeet(ctx, meetID, attendeeID)
	if err != nil {
		return nil, lookup("mark seen", "Attendee", err)
	}
	if err := s.store.Attendees().MarkSeen(ctx, a.ID); err != nil {
		return nil, lookup("mark seen", "Attendee", err)
	}
	a.Seen = true
	return a, nil
}
