package resources_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/resources"
	"github.com/shashiranjanraj/meetup/app/services"
)

func TestMeetLocationIsLongitudeFirst(t *testing.T) {
	out := resources.Meet(models.Meet{ID: "m-1", Latitude: 46.55, Longitude: 15.64})
	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"location":{"type":"Point","coordinates":[15.64,46.55]}`)

	lat, lng := resources.NewPoint(46.55, 15.64).LatLng()
	assert.Equal(t, 46.55, lat)
	assert.Equal(t, 15.64, lng)
}

func TestUserNeverExposesPassword(t *testing.T) {
	u := models.NewUser("ana@example.com", "ana", models.MethodLocal)
	u.Password = "hash"

	data, err := json.Marshal(resources.User(*u))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
	assert.Contains(t, string(data), `"memberships":[{"role":"user"}]`)
}

func TestPublicUserHonoursHideEmail(t *testing.T) {
	u := models.NewUser("ana@example.com", "ana", models.MethodLocal)
	assert.Equal(t, "ana@example.com", resources.PublicUser(*u)["email"])

	u.HideEmail = true
	assert.NotContains(t, resources.PublicUser(*u), "email")

	hit := resources.NearbyMeet(services.NearbyHit{Meet: models.Meet{ID: "m-1"}, Owner: *u, DistanceKm: 1.5})
	assert.Equal(t, 1.5, hit["distanceKm"])
	owner, ok := hit["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ana", owner["displayName"])
	assert.NotContains(t, owner, "email")
}

func TestEventOmitsEmptyAttendee(t *testing.T) {
	assert.NotContains(t, resources.Event(models.Event{ID: "e-1"}), "attendee")
	assert.Equal(t, "a-1", resources.Event(models.Event{ID: "e-1", AttendeeID: "a-1"})["attendee"])
}
