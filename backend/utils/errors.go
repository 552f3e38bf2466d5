package utils

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// ErrorKind classifies a failure for the response envelope.
type ErrorKind int

const (
	KindInfrastructure ErrorKind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindGenerationFormat
	KindUpstream
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindConflict:
		return "ConflictError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindNotFound:
		return "NotFoundError"
	case KindGenerationFormat:
		return "GenerationFormatError"
	case KindUpstream:
		return "UpstreamError"
	case KindTimeout:
		return "TimeoutError"
	default:
		return "InfrastructureError"
	}
}

// Status maps the kind to its HTTP status code.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindAuthentication:
		return fiber.StatusUnauthorized
	case KindAuthorization:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindGenerationFormat:
		return fiber.StatusBadGateway
	case KindUpstream:
		return fiber.StatusServiceUnavailable
	case KindTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []FieldError
	Err     error

	status int
}

// StatusCode is the HTTP status for the error, normally derived from its kind.
func (e *AppError) StatusCode() int {
	if e.status != 0 {
		return e.status
	}
	return e.Kind.Status()
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewAuthenticationError(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewGenerationFormatError(message string, err error) *AppError {
	return &AppError{Kind: KindGenerationFormat, Message: message, Err: err}
}

// NewUpstreamError reports a failed call to an external service. Deadline
// expiry is reported as a timeout.
func NewUpstreamError(message string, err error) *AppError {
	kind := KindUpstream
	if stderrors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &AppError{Kind: kind, Message: message, Err: errors.WithStack(err)}
}

// NewInfrastructureError wraps a storage or I/O failure and records a stack trace.
func NewInfrastructureError(message string, err error) *AppError {
	if err == nil {
		err = stderrors.New(message)
	}
	return &AppError{Kind: KindInfrastructure, Message: message, Err: errors.WithStack(err)}
}

// AsAppError returns err as an *AppError, classifying unknown errors.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	var fiberErr *fiber.Error
	if stderrors.As(err, &fiberErr) {
		return fromFiberError(fiberErr)
	}

	return &AppError{Kind: KindInfrastructure, Message: "Internal server error", Err: errors.WithStack(err)}
}

func fromFiberError(e *fiber.Error) *AppError {
	switch e.Code {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge,
		fiber.StatusMethodNotAllowed, fiber.StatusUnsupportedMediaType:
		return &AppError{Kind: KindValidation, Message: e.Message, status: e.Code}
	case fiber.StatusUnauthorized:
		return NewAuthenticationError(e.Message)
	case fiber.StatusForbidden:
		return NewAuthorizationError(e.Message)
	case fiber.StatusNotFound:
		return NewNotFoundError(e.Message)
	case fiber.StatusConflict:
		return NewConflictError(e.Message)
	default:
		return &AppError{Kind: KindInfrastructure, Message: e.Message, Err: errors.WithStack(e)}
	}
}
