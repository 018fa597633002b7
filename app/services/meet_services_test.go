package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
)

func TestCreateMeet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")

	m := e.meet(t, owner)
	assert.Equal(t, 1, m.TotalParticipants)
	assert.Equal(t, owner.ID, m.UserID)

	rows, err := e.meets.ListAttendees(ctx, owner.ID, m.ID, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, owner.ID, rows[0].UserID)
	assert.Equal(t, models.StateAccepted, rows[0].State)

	feed, err := e.events.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Meet created", feed[0].Title)
	assert.Equal(t, models.EventNotification, feed[0].Type)
	assert.Equal(t, []string{"Meet created"}, e.firedTitles())

	_, err = e.meets.Create(ctx, owner.ID, CreateMeetInput{Latitude: 91, Longitude: 0, LocationName: "x", Datetime: testNow})
	assertAppErr(t, err, apperr.ErrValidation, msgInvalidLocation)
}

func TestRetrieveAndUpdateMeet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	other := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)

	got, err := e.meets.Retrieve(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main square", got.LocationName)

	_, err = e.meets.Retrieve(ctx, "missing")
	assertAppErr(t, err, apperr.ErrNotFound, "Meet not found.")

	desc := "Bring snacks"
	in := UpdateMeetInput{Latitude: nearLat, Longitude: nearLng, LocationName: "Riverside", Description: &desc}

	_, err = e.meets.Update(ctx, other.ID, m.ID, in)
	assertAppErr(t, err, apperr.ErrNotFound, "Meet not found.")

	updated, err := e.meets.Update(ctx, owner.ID, m.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Riverside", updated.LocationName)
	assert.Equal(t, desc, updated.Description)

	got, err = e.meets.Retrieve(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, nearLat, got.Latitude)
	assert.Equal(t, "Bring snacks", got.Description)

	past := e.meetAt(t, owner, centreLat, centreLng, testNow.Add(-time.Hour))
	_, err = e.meets.Update(ctx, owner.ID, past.ID, in)
	assertAppErr(t, err, apperr.ErrForbidden, msgMeetStarted)
}

func TestRequestToJoin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)

	_, err := e.meets.RequestToJoin(ctx, m.ID, owner, "")
	assertAppErr(t, err, apperr.ErrPermissionDenied, "")

	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "Can I come?")
	require.NoError(t, err)
	assert.Equal(t, models.StatePending, a.State)
	assert.Equal(t, "Can I come?", a.Message)
	assert.Equal(t, 1, e.participants(t, m.ID))

	feed, err := e.events.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	req := feed[0]
	if req.Type != models.EventRequest {
		req = feed[1]
	}
	assert.Equal(t, models.EventRequest, req.Type)
	assert.True(t, req.ActionRequired)
	assert.Equal(t, a.ID, req.AttendeeID)

	_, err = e.meets.RequestToJoin(ctx, m.ID, guest, "again")
	assertAppErr(t, err, apperr.ErrConflict, "You have already requested to join this meet.")

	_, err = e.meets.RequestToJoin(ctx, "missing", guest, "")
	assertAppErr(t, err, apperr.ErrNotFound, "Meet not found.")

	past := e.meetAt(t, owner, centreLat, centreLng, testNow.Add(-time.Minute))
	_, err = e.meets.RequestToJoin(ctx, past.ID, guest, "")
	assertAppErr(t, err, apperr.ErrForbidden, msgMeetStarted)
}

func TestVetoAccept(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)
	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)

	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StatePending)
	assert.ErrorIs(t, err, apperr.ErrUnprocessable)

	_, err = e.meets.Veto(ctx, m.ID, a.ID, guest.ID, models.StateAccepted)
	assertAppErr(t, err, apperr.ErrNotFound, "Meet not found.")

	_, err = e.meets.Veto(ctx, m.ID, "missing", owner.ID, models.StateAccepted)
	assertAppErr(t, err, apperr.ErrNotFound, "Attendee not found.")

	got, err := e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StateAccepted, got.State)
	assert.Equal(t, 2, e.participants(t, m.ID))

	// Accepting twice counts once.
	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, e.participants(t, m.ID))

	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateDeclined)
	assertAppErr(t, err, apperr.ErrValidation, "Attendee state cannot change from accepted to declined.")

	ownerFeed, err := e.events.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	for _, ev := range ownerFeed {
		assert.False(t, ev.ActionRequired, ev.Title)
	}

	guestFeed, err := e.events.ListMine(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, guestFeed, 1)
	assert.Equal(t, "Request accepted", guestFeed[0].Title)
	assert.Equal(t, []string{"Meet created", "Join request", "Request accepted"}, e.firedTitles())

	mine, err := e.meets.ListMine(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, m.ID, mine[0].ID)
}

func TestVetoDeclineAndOwnRow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)
	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)

	got, err := e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateDeclined)
	require.NoError(t, err)
	assert.Equal(t, models.StateDeclined, got.State)
	assert.Equal(t, 1, e.participants(t, m.ID))

	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateAccepted)
	assertAppErr(t, err, apperr.ErrValidation, "Attendee state cannot change from declined to accepted.")

	declined, err := e.meets.ListAttendees(ctx, owner.ID, m.ID, models.StateDeclined)
	require.NoError(t, err)
	require.Len(t, declined, 1)

	self, err := e.store.Attendees().FindByUserAndMeet(ctx, owner.ID, m.ID)
	require.NoError(t, err)
	_, err = e.meets.Veto(ctx, m.ID, self.ID, owner.ID, models.StateDeclined)
	assertAppErr(t, err, apperr.ErrPermissionDenied, "")

	_, err = e.meets.ListAttendees(ctx, owner.ID, m.ID, "maybe")
	assert.ErrorIs(t, err, apperr.ErrUnprocessable)
}

func TestLeave(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)
	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)
	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateAccepted)
	require.NoError(t, err)

	assertAppErr(t, e.meets.Leave(ctx, m.ID, owner.ID), apperr.ErrPermissionDenied, "You cannot leave your own meet.")

	require.NoError(t, e.meets.Leave(ctx, m.ID, guest.ID))
	assert.Equal(t, 1, e.participants(t, m.ID))

	feed, err := e.events.ListMine(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, feed)

	assertAppErr(t, e.meets.Leave(ctx, m.ID, guest.ID), apperr.ErrNotFound, "Attendee not found.")

	// A pending request can be withdrawn and made again.
	_, err = e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)
	require.NoError(t, e.meets.Leave(ctx, m.ID, guest.ID))
	assert.Equal(t, 1, e.participants(t, m.ID))
}

func TestMarkSeen(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)
	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)
	assert.False(t, a.Seen)

	_, err = e.meets.MarkSeen(ctx, m.ID, a.ID, guest.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := e.meets.MarkSeen(ctx, m.ID, a.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, got.Seen)

	mine, err := e.meets.ListMyAttendees(ctx, guest.ID, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].Seen)
}

func TestDeleteMeetCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)
	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)
	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateAccepted)
	require.NoError(t, err)

	assert.ErrorIs(t, e.meets.Delete(ctx, guest.ID, m.ID), apperr.ErrNotFound)
	require.NoError(t, e.meets.Delete(ctx, owner.ID, m.ID))

	_, err = e.meets.Retrieve(ctx, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	rows, err := e.meets.ListMyAttendees(ctx, guest.ID, "")
	require.NoError(t, err)
	assert.Empty(t, rows)

	for _, id := range []string{owner.ID, guest.ID} {
		feed, err := e.events.ListMine(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, feed)
	}
}

func TestGeoSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	caller := e.signup(t, "ana@example.com", "ana")
	host := e.signup(t, "bo@example.com", "bo")
	hidden := e.signup(t, "cy@example.com", "cy")

	hideMe := true
	_, err := e.users.UpdateSelf(ctx, hidden.ID, UpdateUserInput{HideMe: &hideMe})
	require.NoError(t, err)

	near := e.meetAt(t, host, nearLat, nearLng, testNow.Add(time.Hour))
	closest := e.meetAt(t, host, centreLat, centreLng, testNow.Add(2*time.Hour))
	e.meetAt(t, host, farLat, farLng, testNow.Add(time.Hour))
	e.meetAt(t, host, nearLat, nearLng, testNow.Add(-time.Hour))
	e.meetAt(t, hidden, nearLat, nearLng, testNow.Add(time.Hour))
	e.meetAt(t, caller, nearLat, nearLng, testNow.Add(time.Hour))

	hits, err := e.meets.GeoSearch(ctx, caller, "46.5547,15.6459")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, closest.ID, hits[0].Meet.ID)
	assert.Equal(t, near.ID, hits[1].Meet.ID)
	assert.Equal(t, host.ID, hits[1].Owner.ID)
	assert.InDelta(t, 0, hits[0].DistanceKm, 0.01)
	assert.Less(t, hits[1].DistanceKm, 1.0)

	// Raising the radius reaches the far meet.
	caller.MaxDistanceKm = 20
	hits, err = e.meets.GeoSearch(ctx, caller, "46.0569,14.5058")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	_, err = e.meets.GeoSearch(ctx, caller, "north")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	hits, err = e.meets.GeoSearch(ctx, caller, "0,0")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

var errTransient = errors.New("transient transaction error")

// retryingStore rolls the first attempt of every transaction back and runs
// fn again, the way the Mongo driver retries transient failures.
type retryingStore struct{ repositories.Store }

func (s retryingStore) Transaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	err := s.Store.Transaction(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		return err
	}
	return s.Store.Transaction(ctx, fn)
}

func TestRetriedTransactionFiresOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	e.meets.store = retryingStore{e.store}

	m := e.meet(t, owner)
	_, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Meet created", "Join request"}, e.firedTitles())

	feed, err := e.events.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

// staleStore serves attendee reads made outside a transaction as they were
// before any veto.
type staleStore struct{ repositories.Store }

func (s staleStore) Attendees() repositories.AttendeeRepository {
	return staleAttendees{s.Store.Attendees()}
}

type staleAttendees struct{ repositories.AttendeeRepository }

func (r staleAttendees) FindByUserAndMeet(ctx context.Context, userID, meetID string) (*models.Attendee, error) {
	a, err := r.AttendeeRepository.FindByUserAndMeet(ctx, userID, meetID)
	if err != nil {
		return nil, err
	}
	a.State = models.StatePending
	return a, nil
}

func TestLeaveDecidesFromCommittedState(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	owner := e.signup(t, "ana@example.com", "ana")
	guest := e.signup(t, "bo@example.com", "bo")
	m := e.meet(t, owner)
	a, err := e.meets.RequestToJoin(ctx, m.ID, guest, "")
	require.NoError(t, err)
	_, err = e.meets.Veto(ctx, m.ID, a.ID, owner.ID, models.StateAccepted)
	require.NoError(t, err)
	require.Equal(t, 2, e.participants(t, m.ID))

	e.meets.store = staleStore{e.store}
	require.NoError(t, e.meets.Leave(ctx, m.ID, guest.ID))
	assert.Equal(t, 1, e.participants(t, m.ID))
}
