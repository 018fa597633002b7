package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS allows the given origins ("*" for any) to call the API with bearer
// tokens.
func CORS(origins string) func(http.Handler) http.Handler {
	allowed := []string{"*"}
	if o := strings.TrimSpace(origins); o != "" {
		allowed = strings.Split(o, ",")
		for i := range allowed {
			allowed[i] = strings.TrimSpace(allowed[i])
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
	return c.Handler
}
