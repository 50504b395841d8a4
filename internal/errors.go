package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidCategory     ErrorCode = "INVALID_CATEGORY"
	ErrCodeInvalidDepartment   ErrorCode = "INVALID_DEPARTMENT"
	ErrCodeInvalidDate         ErrorCode = "INVALID_DATE"
	ErrCodeInvalidContent      ErrorCode = "INVALID_CONTENT"
	ErrCodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	ErrCodeFileTypeNotAllowed  ErrorCode = "FILE_TYPE_NOT_ALLOWED"
	ErrCodeAmbiguousCategory   ErrorCode = "AMBIGUOUS_CATEGORY"
	ErrCodeInvalidRequestBody  ErrorCode = "INVALID_REQUEST_BODY"
	ErrCodeInvalidIdentifier   ErrorCode = "INVALID_IDENTIFIER"
	ErrCodeUsernameTaken       ErrorCode = "USERNAME_TAKEN"
	ErrCodeEmailTaken          ErrorCode = "EMAIL_TAKEN"
	ErrCodeFileNotFound        ErrorCode = "FILE_NOT_FOUND"
	ErrCodeCategoryNotFound    ErrorCode = "CATEGORY_NOT_FOUND"
	ErrCodeFolderNotFound      ErrorCode = "FOLDER_NOT_FOUND"
	ErrCodeDepartmentNotFound  ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodePermissionDenied    ErrorCode = "PERMISSION_DENIED"
	ErrCodeStaffRequired       ErrorCode = "STAFF_REQUIRED"
	ErrCodeDuplicateCategory   ErrorCode = "DUPLICATE_CATEGORY"
	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive        ErrorCode = "USER_INACTIVE"
	ErrCodeUserNotApproved     ErrorCode = "USER_NOT_APPROVED"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeAuthRequired        ErrorCode = "AUTHENTICATION_REQUIRED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorageFailed       ErrorCode = "STORAGE_FAILED"
)

// GenericInternalMessage is the only text a caller ever sees for a 500.
const GenericInternalMessage = "Internal server error"

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so package-level sentinels work with errors.Is
// even after WithCause/WithDetails copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithCause returns a copy carrying cause; sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrAuthenticationRequired = NewUnauthorizedError("Authentication required", ErrCodeAuthRequired)
	ErrInvalidCredentials     = NewUnauthorizedError("Invalid username or password", ErrCodeInvalidCredentials)
	ErrUserInactive           = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrUserNotApproved        = NewForbiddenError("User account is awaiting approval", ErrCodeUserNotApproved)
	ErrInvalidToken           = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired           = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrStaffRequired          = NewForbiddenError("Staff access required", ErrCodeStaffRequired)
	ErrInvalidRequestBody     = NewValidationError("Invalid JSON data", ErrCodeInvalidRequestBody)
)

// IsAppError unwraps err until it finds an *AppError.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// AsAppError always returns an *AppError; unknown errors become internal ones.
func AsAppError(err error) *AppError {
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	return NewInternalError(GenericInternalMessage, err)
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	if e.StatusCode >= http.StatusInternalServerError {
		return e.StatusCode, Response{Error: &AppError{
			Type:    ErrorTypeInternal,
			Code:    ErrCodeInternal,
			Message: GenericInternalMessage,
		}}
	}
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
