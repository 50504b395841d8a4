package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/frahmantamala/medical-filemanager/internal"
	"github.com/frahmantamala/medical-filemanager/pkg/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// maxValidatedBody is the largest body checked against its schema. Uploads
// carry base64 files far above it and are validated by their handler only.
const maxValidatedBody = 1 << 20

// LoadOpenAPI parses and validates an OpenAPI 3 document.
func LoadOpenAPI(data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIValidator rejects requests whose parameters or body do not match the
// documented operation. Requests for undocumented routes pass through so the
// router can answer them. Authentication is left to the auth middleware.
func OpenAPIValidator(doc *openapi3.T) (func(http.Handler) http.Handler, error) {
	// schema errors are returned to clients; keep submitted values out of them
	openapi3.SchemaErrorDetailsDisabled = true
	// match on path only, whatever host the service is reached through
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				if !errors.Is(err, routers.ErrPathNotFound) && !errors.Is(err, routers.ErrMethodNotAllowed) {
					logger.From(r.Context()).Warn("openapi route lookup failed", "path", r.URL.Path, "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
					ExcludeRequestBody: r.ContentLength < 0 || r.ContentLength > maxValidatedBody,
				},
			}

			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.From(r.Context()).Info("request rejected by openapi validation",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err)
				writeAppError(w, requestValidationError(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func requestValidationError(err error) *internal.AppError {
	appErr := internal.NewValidationError("Request does not match the API schema", internal.ErrCodeValidationFailed)

	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		field := "body"
		if reqErr.Parameter != nil {
			field = reqErr.Parameter.Name
		}
		return appErr.WithDetails(internal.ValidationErrors{
			Errors: []internal.ValidationError{{
				Field:   field,
				Message: reqErr.Error(),
				Code:    string(internal.ErrCodeValidationFailed),
			}},
		})
	}
	return appErr
}
