// Package graphql serves a graphql-go schema over HTTP.
//
//	schema, err := graphql.NewSchema(query)
//	r.Post("/api/graphql", "graphql", graphql.Handler(schema))
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/meetup/pkg/response"
)

// NewSchema creates a read-only schema from a root query.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Request is the standard POST body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName"`
}

// Handler executes one query per request. Resolvers receive the request
// context, so anything the middleware stack stored there is visible to
// them. Field errors are reported in the result with a 200.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
			response.Error(w, http.StatusBadRequest, "Request body invalid.")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        r.Context(),
		})
		response.JSON(w, http.StatusOK, result)
	}
}
