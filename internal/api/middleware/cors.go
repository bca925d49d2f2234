package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware allows cross-origin reads from the configured origins.
// An empty list, or one containing "*", allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader, "X-Cache", "ETag"},
		MaxAge:         600,
	})
	return c.Handler
}
