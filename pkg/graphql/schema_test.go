package graphql_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gql "github.com/shashiranjanraj/meetup/pkg/graphql"
)

type userKey struct{}

func newSchema(t *testing.T) graphql.Schema {
	t.Helper()
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"whoami": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					name, _ := p.Context.Value(userKey{}).(string)
					return name, nil
				},
			},
			"echo": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"text": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Args["text"], nil
				},
			},
		},
	})
	s, err := gql.NewSchema(query)
	require.NoError(t, err)
	return s
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), userKey{}, "ana"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerPassesRequestContext(t *testing.T) {
	h := gql.Handler(newSchema(t))

	rec := post(h, `{"query":"{ whoami }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"whoami":"ana"}}`, rec.Body.String())
}

func TestHandlerVariables(t *testing.T) {
	h := gql.Handler(newSchema(t))

	rec := post(h, `{"query":"query Say($t: String!) { echo(text: $t) }","variables":{"t":"hi"},"operationName":"Say"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"echo":"hi"}}`, rec.Body.String())
}

func TestHandlerErrors(t *testing.T) {
	h := gql.Handler(newSchema(t))

	assert.Equal(t, http.StatusBadRequest, post(h, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(h, `{"query":""}`).Code)

	rec := post(h, `{"query":"{ nope }"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errors"`)
}
