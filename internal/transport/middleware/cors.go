package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// CORS allows browser clients from origins. An empty list allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Trace-ID"}),
		handlers.ExposedHeaders([]string{"X-Trace-ID"}),
		handlers.MaxAge(600),
	)
}
