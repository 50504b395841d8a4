package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/pkg/logger"
)

// RequireStaff lets staff principals through and answers 403 for everyone
// else. It must run after the auth middleware.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok {
			writeAppError(w, internal.ErrAuthenticationRequired)
			return
		}

		if !user.IsStaff {
			logger.From(r.Context()).Warn("access denied: staff required",
				"user_id", user.ID,
				"path", r.URL.Path)
			writeAppError(w, internal.ErrStaffRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
