package errcodes

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is the only error shape that reaches a caller. Data is an optional
// diagnostic payload (missing fields, a conflicting book, records created
// before a failure). The cause is kept for logging and never rendered.
type Error struct {
	HTTPCode int
	Message  string
	Code     string
	Data     interface{}

	cause error
}

func (err *Error) Error() string {
	if err.cause != nil {
		return err.Message + ": " + err.cause.Error()
	}
	return err.Message
}

func (err *Error) Unwrap() error {
	return err.cause
}

func (err *Error) As(target interface{}) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	te.HTTPCode = err.HTTPCode
	te.Message = err.Message
	te.Code = err.Code
	te.Data = err.Data
	te.cause = err.cause
	return true
}

func (err *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return te.HTTPCode == err.HTTPCode &&
		te.Message == err.Message &&
		te.Code == err.Code
}

const (
	CodeValidation  = "validation_error"
	CodeConflict    = "conflict"
	CodeNotFound    = "not_found"
	CodePersistence = "persistence_error"
	CodeUnexpected  = "unexpected_error"
)

// Forbidden returns a 403 error with a message indicating the action is
// forbidden.
func Forbidden(action string) error {
	return &Error{
		HTTPCode: http.StatusForbidden,
		Message:  action + " is not allowed.",
		Code:     "forbidden",
	}
}

// Unauthenticated is returned when a request carries no valid access token.
func Unauthenticated() error {
	return &Error{
		HTTPCode: http.StatusForbidden,
		Message:  "You must be authorized to access this resource.",
		Code:     "forbidden",
	}
}

func Unauthorized(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnauthorized,
		Message:  msg,
		Code:     "unauthorized",
	}
}

// NotFound returns a 404 error with a message indicating the given resource.
func NotFound(resource string) error {
	return &Error{
		HTTPCode: http.StatusNotFound,
		Message:  resource + " not found.",
		Code:     CodeNotFound,
	}
}

func UnsupportedMediaType() error {
	return &Error{
		HTTPCode: http.StatusUnsupportedMediaType,
		Message:  "Unsupported Media Type",
		Code:     "unsupported_media_type",
	}
}

func UnknownParameter(param string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  fmt.Sprintf("Unknown Parameter %q", param),
		Code:     "unknown_parameter",
	}
}

func ValidationTypeError(msg string) error {
	return &Error{
		HTTPCode: http.StatusUnprocessableEntity,
		Message:  msg,
		Code:     "validation_type_error",
	}
}

func ValidationError(msg string) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  msg,
		Code:     CodeValidation,
	}
}

// MissingFields returns a 400 listing every missing field, in the order
// given, both in the message and as the data payload.
func MissingFields(fields []string) error {
	titled := make([]string, len(fields))
	for i, f := range fields {
		titled[i] = strings.ToUpper(f[:1]) + f[1:]
	}
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Please check the following fields: " + strings.Join(titled, ", "),
		Code:     CodeValidation,
		Data:     fields,
	}
}

// Conflict returns a 400 for an entity that already exists under one of its
// identity rules. The existing entity travels as data.
func Conflict(msg string, existing interface{}) error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  msg,
		Code:     CodeConflict,
		Data:     existing,
	}
}

// Persistence wraps a store failure. data carries whatever was already
// written before the failure so the caller can deal with it.
func Persistence(msg string, cause error, data interface{}) error {
	return &Error{
		HTTPCode: http.StatusInternalServerError,
		Message:  msg,
		Code:     CodePersistence,
		Data:     data,
		cause:    cause,
	}
}

func Unexpected(cause error) error {
	return &Error{
		HTTPCode: http.StatusInternalServerError,
		Message:  "An error occurred.",
		Code:     CodeUnexpected,
		cause:    cause,
	}
}

func MalformedPayload() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Malformed Payload",
		Code:     "malformed_payload",
	}
}

func EmptyRequestBody() error {
	return &Error{
		HTTPCode: http.StatusBadRequest,
		Message:  "Request body can't be empty.",
		Code:     "empty_request_body",
	}
}
