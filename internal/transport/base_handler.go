package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error response with a plain message. Prefer HandleError
// for errors coming out of a service.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Warn("http error", "status", status, "message", message)
	errorType := internal.ErrorTypeInternal
	code := internal.ErrCodeInternal
	switch status {
	case http.StatusBadRequest:
		errorType, code = internal.ErrorTypeValidation, internal.ErrCodeValidationFailed
	case http.StatusUnauthorized:
		errorType, code = internal.ErrorTypeUnauthorized, internal.ErrCodeAuthRequired
	case http.StatusForbidden:
		errorType, code = internal.ErrorTypeForbidden, internal.ErrCodePermissionDenied
	case http.StatusNotFound:
		errorType, code = internal.ErrorTypeNotFound, internal.ErrCodeFileNotFound
	}
	if status >= http.StatusInternalServerError {
		message = internal.GenericInternalMessage
	}
	h.WriteJSON(w, status, internal.Response{Error: &internal.AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}})
}

// HandleError maps err onto its HTTP status. Anything that is not an
// *internal.AppError, and every 5xx, is logged with its cause and rendered
// with the generic message only.
func (h *BaseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := internal.AsAppError(err)

	log := logger.From(r.Context())
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"code", appErr.Code,
			"error", err,
		)
	} else {
		log.Debug("request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", appErr.StatusCode,
			"code", appErr.Code,
			"message", appErr.GetDetailedMessage(),
		)
	}

	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// DecodeJSON decodes the request body into dst.
func (h *BaseHandler) DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return internal.ErrInvalidRequestBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return internal.ErrInvalidRequestBody.WithCause(err)
	}
	return nil
}

// CurrentUser returns the authenticated principal or the 401 error to render.
func (h *BaseHandler) CurrentUser(r *http.Request) (*internal.User, error) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		return nil, internal.ErrAuthenticationRequired
	}
	return user, nil
}

// ParseIDParam reads a positive int64 chi URL parameter.
func (h *BaseHandler) ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(name, "invalid "+name, internal.ErrCodeInvalidIdentifier)
	}
	return id, nil
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}
