package app_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/meetup/app/repositories"
	_ "github.com/shashiranjanraj/meetup/database/migrations"
	"github.com/shashiranjanraj/meetup/database/seeders"
	"github.com/shashiranjanraj/meetup/pkg/app"
	"github.com/shashiranjanraj/meetup/pkg/response"
	"github.com/shashiranjanraj/meetup/pkg/testkit"
)

type fixture struct {
	store   repositories.Store
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewGormStore(testkit.SQLite(t))
	a, err := app.New(app.Options{Store: store})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return &fixture{store: store, handler: a.Handler()}
}

func (f *fixture) signup(t *testing.T, email, name string) string {
	t.Helper()
	rec := testkit.Do(t, f.handler, http.MethodPost, "/api/auth/sign-up", map[string]string{
		"email": email, "password": "secret1", "displayName": name,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return f.login(t, email)
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	rec := testkit.Do(t, f.handler, http.MethodPost, "/api/auth/token", map[string]string{
		"email": email, "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := testkit.Decode[response.Envelope](t, rec)
	require.NotEmpty(t, env.Token)
	return env.Token
}

func (f *fixture) me(t *testing.T, token string) map[string]any {
	t.Helper()
	rec := testkit.Do(t, f.handler, http.MethodGet, "/api/users/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	return testkit.Decode[map[string]any](t, rec)
}

func (f *fixture) createMeet(t *testing.T, token string, at time.Time) string {
	t.Helper()
	rec := testkit.Do(t, f.handler, http.MethodPost, "/api/meets", map[string]any{
		"location":     map[string]any{"type": "Point", "coordinates": []float64{15.6459, 46.5547}},
		"locationName": "Main square",
		"datetime":     at.UTC().Format(time.RFC3339),
		"description":  "Coffee and a walk",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return testkit.Decode[map[string]any](t, rec)["id"].(string)
}

func TestAPIScenarios(t *testing.T) {
	f := newFixture(t)

	anaToken := f.signup(t, "ana@example.com", "ana")
	bobToken := f.signup(t, "bob@example.com", "bob")
	require.NoError(t, seeders.Admin(context.Background(), f.store, "admin@example.com", "secret1"))
	adminToken := f.login(t, "admin@example.com")

	meetID := f.createMeet(t, anaToken, time.Now().Add(48*time.Hour))

	testkit.RunDir(t, f.handler, "testdata/api", testkit.Vars{
		"anaToken":   anaToken,
		"bobToken":   bobToken,
		"adminToken": adminToken,
		"bobId":      f.me(t, bobToken)["id"].(string),
		"meetId":     meetID,
	})

	roles := f.me(t, bobToken)["memberships"].([]any)
	assert.Len(t, roles, 2)
}

func TestAPIVetoFlow(t *testing.T) {
	f := newFixture(t)
	anaToken := f.signup(t, "ana@example.com", "ana")
	bobToken := f.signup(t, "bob@example.com", "bob")
	meetID := f.createMeet(t, anaToken, time.Now().Add(48*time.Hour))

	rec := testkit.Do(t, f.handler, http.MethodPost, "/api/meets/"+meetID+"/attendees", nil, bobToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	attendeeID := testkit.Decode[map[string]any](t, rec)["id"].(string)

	events := testkit.Decode[[]map[string]any](t,
		testkit.Do(t, f.handler, http.MethodGet, "/api/events", nil, anaToken))
	var titles []string
	for _, e := range events {
		titles = append(titles, e["title"].(string))
	}
	assert.ElementsMatch(t, []string{"Meet created", "Join request"}, titles)

	veto := "/api/meets/" + meetID + "/attendees/" + attendeeID
	rec = testkit.Do(t, f.handler, http.MethodPut, veto, map[string]string{"state": "maybe"}, anaToken)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = testkit.Do(t, f.handler, http.MethodPut, veto, map[string]string{"state": "accepted"}, bobToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testkit.Do(t, f.handler, http.MethodPut, veto, map[string]string{"state": "accepted"}, anaToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "accepted", testkit.Decode[map[string]any](t, rec)["state"])

	rec = testkit.Do(t, f.handler, http.MethodPut, veto, map[string]string{"state": "declined"}, anaToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Attendee state cannot change from accepted to declined.")

	rec = testkit.Do(t, f.handler, http.MethodGet, "/api/meets/"+meetID, nil, bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, testkit.Decode[map[string]any](t, rec)["totalParticipants"])

	rec = testkit.Do(t, f.handler, http.MethodDelete, "/api/meets/"+meetID+"/attendees", nil, bobToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = testkit.Do(t, f.handler, http.MethodGet, "/api/meets/"+meetID, nil, bobToken)
	assert.EqualValues(t, 1, testkit.Decode[map[string]any](t, rec)["totalParticipants"])
}

func TestAPIUnknownMeet(t *testing.T) {
	f := newFixture(t)
	token := f.signup(t, "ana@example.com", "ana")

	rec := testkit.Do(t, f.handler, http.MethodGet, "/api/meets/does-not-exist", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Meet not found.")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	testkit.Do(t, f.handler, http.MethodGet, "/health", nil, "")

	rec := testkit.Do(t, f.handler, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "meetup_http_requests_total")
}

func TestRouteList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, app.RouteList(&out))

	for _, want := range []string{
		"/api/auth/sign-up",
		"/api/meets/{meetId}/attendees/{attendeeId}/seen",
		"/api/graphql",
		"/api/events/ws",
		"/health",
	} {
		assert.Contains(t, out.String(), want)
	}
}

func TestNewRequiresStore(t *testing.T) {
	_, err := app.New(app.Options{})
	assert.Error(t, err)
}
