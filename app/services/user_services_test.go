package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateSelf(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ana := e.signup(t, "ana@example.com", "ana")
	e.signup(t, "bo@example.com", "bo")

	_, err := e.users.UpdateSelf(ctx, ana.ID, UpdateUserInput{Email: ptr("BO@example.com")})
	assertAppErr(t, err, apperr.ErrConflict, msgEmailTaken)

	_, err = e.users.UpdateSelf(ctx, ana.ID, UpdateUserInput{DisplayName: ptr("bo")})
	assertAppErr(t, err, apperr.ErrConflict, msgDisplayNameTaken)

	_, err = e.users.UpdateSelf(ctx, ana.ID, UpdateUserInput{MaxDistanceKm: ptr(21)})
	assert.ErrorIs(t, err, apperr.ErrUnprocessable)
	_, err = e.users.UpdateSelf(ctx, ana.ID, UpdateUserInput{MaxDistanceKm: ptr(0)})
	assert.ErrorIs(t, err, apperr.ErrUnprocessable)

	u, err := e.users.UpdateSelf(ctx, ana.ID, UpdateUserInput{
		Email:         ptr(" Ana.N@Example.com"),
		DisplayName:   ptr("ana"),
		FirstName:     ptr("Ana"),
		HideEmail:     ptr(true),
		MaxDistanceKm: ptr(20),
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.n@example.com", u.Email)
	assert.Equal(t, "Ana", u.FirstName)

	got, err := e.users.Retrieve(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana.n@example.com", got.Email)
	assert.True(t, got.HideEmail)
	assert.False(t, got.HideMe)
	assert.Equal(t, 20, got.MaxDistanceKm)
	assert.True(t, got.ReceivePushNotifications)

	// The password survives a profile update.
	_, err = e.auth.Login(ctx, "ana.n@example.com", "secret1")
	assert.NoError(t, err)

	_, err = e.users.UpdateSelf(ctx, "missing", UpdateUserInput{})
	assertAppErr(t, err, apperr.ErrNotFound, "User not found.")
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.signup(t, "ana@example.com", "ana")

	assertAppErr(t, e.users.ChangePassword(ctx, u.ID, "secret1", "short", "short"), apperr.ErrValidation, msgWeakPassword)
	assertAppErr(t, e.users.ChangePassword(ctx, u.ID, "secret1", "secret22", "secret23"), apperr.ErrValidation, "Passwords do not match.")
	assertAppErr(t, e.users.ChangePassword(ctx, u.ID, "secret1", "secret1", "secret1"), apperr.ErrValidation, "New password must be different from the old password.")
	assertAppErr(t, e.users.ChangePassword(ctx, u.ID, "nope123", "secret22", "secret22"), apperr.ErrValidation, "Old password is incorrect.")

	require.NoError(t, e.users.ChangePassword(ctx, u.ID, "secret1", "secret22", "secret22"))

	_, err := e.auth.Login(ctx, "ana@example.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = e.auth.Login(ctx, "ana@example.com", "secret22")
	assert.NoError(t, err)
}

func TestFavourites(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	u := e.signup(t, "ana@example.com", "ana")

	_, err := e.users.AddFavourite(ctx, u.ID, "shit")
	assertAppErr(t, err, apperr.ErrValidation, "Favourite contains inappropriate language.")

	got, err := e.users.AddFavourite(ctx, u.ID, "pizza")
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, got.Favourites)

	got, err = e.users.AddFavourite(ctx, u.ID, "pizza")
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, got.Favourites)

	got, err = e.users.AddFavourite(ctx, u.ID, "hiking")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"pizza", "hiking"}, got.Favourites)

	got, err = e.users.RemoveFavourite(ctx, u.ID, "pizza")
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking"}, got.Favourites)

	_, err = e.users.AddFavourite(ctx, "missing", "tea")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	e := newEnv(t)
	e.signup(t, "ana@example.com", "ana")
	e.signup(t, "bo@example.com", "bo")

	users, err := e.users.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDeleteSelf(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ana := e.signup(t, "ana@example.com", "ana")
	bo := e.signup(t, "bo@example.com", "bo")
	cy := e.signup(t, "cy@example.com", "cy")

	anaMeet := e.meet(t, ana)
	a, err := e.meets.RequestToJoin(ctx, anaMeet.ID, bo, "")
	require.NoError(t, err)
	_, err = e.meets.Veto(ctx, anaMeet.ID, a.ID, ana.ID, models.StateAccepted)
	require.NoError(t, err)
	require.Equal(t, 2, e.participants(t, anaMeet.ID))

	boMeet := e.meetAt(t, bo, nearLat, nearLng, testNow.Add(48*time.Hour))
	_, err = e.meets.RequestToJoin(ctx, boMeet.ID, cy, "")
	require.NoError(t, err)

	cyMeet := e.meetAt(t, cy, nearLat, nearLng, testNow.Add(72*time.Hour))
	pending, err := e.meets.RequestToJoin(ctx, cyMeet.ID, bo, "")
	require.NoError(t, err)

	require.NoError(t, e.users.DeleteSelf(ctx, bo.ID))

	_, err = e.users.Retrieve(ctx, bo.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = e.meets.Retrieve(ctx, boMeet.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, e.participants(t, anaMeet.ID))

	rows, err := e.meets.ListAttendees(ctx, ana.ID, anaMeet.ID, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ana.ID, rows[0].UserID)

	cyRows, err := e.meets.ListMyAttendees(ctx, cy.ID, "")
	require.NoError(t, err)
	require.Len(t, cyRows, 1)
	assert.Equal(t, cyMeet.ID, cyRows[0].MeetID)

	// The join request bo left on cy's meet is gone from cy's feed.
	feed, err := e.events.ListMine(ctx, cy.ID)
	require.NoError(t, err)
	for _, ev := range feed {
		assert.NotEqual(t, pending.ID, ev.AttendeeID, "stale event %q", ev.Title)
	}
	_, err = e.meets.Veto(ctx, cyMeet.ID, pending.ID, cy.ID, models.StateAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	cyAttendees, err := e.meets.ListAttendees(ctx, cy.ID, cyMeet.ID, "")
	require.NoError(t, err)
	assert.Len(t, cyAttendees, 1)
	assert.Equal(t, 1, e.participants(t, cyMeet.ID))

	assert.ErrorIs(t, e.users.DeleteSelf(ctx, bo.ID), apperr.ErrNotFound)
}
