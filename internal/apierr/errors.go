// Package apierr defines the REST-facing error taxonomy shared by services and
// the HTTP layer.
//
// Services return *Error values built with the New* constructors below; the
// error stages in internal/http/handlers translate them into JSON envelopes
// and structured log entries. Every variant carries a fixed HTTP status, a
// stable machine-readable code, and a client-safe message. Validation
// variants also carry an ordered list of field errors.
//
// Codes are lowercase snake_case and never change meaning once shipped:
//
//	server_error     500
//	invalid_request  400 (also used by the validation variants)
//	unauthorized     401
//	forbidden        403
//	not_found        404
//
// Example:
//
//	if u == nil {
//	    return nil, apierr.NewNotFoundError()
//	}
//	return nil, apierr.NewValidationError("email", "required", "Email is required")
package apierr

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Default codes.
const (
	CodeServer       = "server_error"
	CodeBadRequest   = "invalid_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"

	// CodeUnknown is used for errors that do not belong to the taxonomy.
	CodeUnknown = "unknown_error"
)

// Default messages.
const (
	MessageServer     = "An internal server problem occurred"
	MessageBadRequest = "The request is missing a required parameter, includes an invalid parameter " +
		"value, includes a parameter more than once, or is otherwise malformed."
	MessageUnauthorized = "Invalid credentials"
	MessageForbidden    = "Insufficient privileges"
	MessageNotFound     = "Resource not found"

	nilMessage = "nil *apierr.Error"
)

// Kind tags the variant an *Error was constructed as.
type Kind int

const (
	KindRest Kind = iota // generic, built with New
	KindServer
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "rest"
	}
}

// FieldError identifies one invalid input field.
type FieldError struct {
	Code    string `json:"code"    example:"required"`
	Path    string `json:"path"    example:"email"`
	Message string `json:"message" example:"Email is required"`
}

// Error is a classified REST error. The zero value is not useful; use the
// constructors.
type Error struct {
	kind    Kind
	status  int
	code    string
	message string
	details []FieldError
	cause   error
	trace   stackTracer
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// Option overrides a default of a constructed error.
type Option func(*Error)

// WithCode overrides the default code. Empty values are ignored.
func WithCode(code string) Option {
	return func(e *Error) {
		if code != "" {
			e.code = code
		}
	}
}

// WithMessage overrides the default message. Empty values are ignored.
func WithMessage(msg string) Option {
	return func(e *Error) {
		if msg != "" {
			e.message = msg
		}
	}
}

// WithCause attaches the underlying error, exposed through Unwrap. The cause
// never reaches the client body of a classified response.
func WithCause(err error) Option {
	return func(e *Error) { e.cause = err }
}

func newError(kind Kind, status int, code, msg string, opts []Option) *Error {
	e := &Error{kind: kind, status: status, code: code, message: msg}
	for _, o := range opts {
		if o != nil {
			o(e)
		}
	}
	e.trace, _ = pkgerrors.New(e.message).(stackTracer)
	return e
}

// New builds a generic REST error with an arbitrary status.
func New(status int, code, message string, opts ...Option) *Error {
	return newError(KindRest, status, code, message, opts)
}

// NewServerError reports a generic internal failure (500).
func NewServerError(opts ...Option) *Error {
	return newError(KindServer, http.StatusInternalServerError, CodeServer, MessageServer, opts)
}

// NewBadRequestError reports a malformed, missing, or duplicated parameter (400).
func NewBadRequestError(opts ...Option) *Error {
	return newError(KindBadRequest, http.StatusBadRequest, CodeBadRequest, MessageBadRequest, opts)
}

// NewUnauthorizedError reports invalid or missing credentials (401).
func NewUnauthorizedError(opts ...Option) *Error {
	return newError(KindUnauthorized, http.StatusUnauthorized, CodeUnauthorized, MessageUnauthorized, opts)
}

// NewForbiddenError reports insufficient privileges (403).
func NewForbiddenError(opts ...Option) *Error {
	return newError(KindForbidden, http.StatusForbidden, CodeForbidden, MessageForbidden, opts)
}

// NewNotFoundError reports a missing resource (404).
func NewNotFoundError(opts ...Option) *Error {
	return newError(KindNotFound, http.StatusNotFound, CodeNotFound, MessageNotFound, opts)
}

// NewValidationError reports a single invalid field. The variant itself keeps
// the bad-request status, code, and message; opts override the latter two.
func NewValidationError(path, code, message string, opts ...Option) *Error {
	e := newError(KindValidation, http.StatusBadRequest, CodeBadRequest, MessageBadRequest, opts)
	e.details = []FieldError{{Code: code, Path: path, Message: message}}
	return e
}

// NewValidationErrors reports zero or more invalid fields, kept in input
// order. Paths need not be unique. An empty input still yields a defined,
// empty detail list.
func NewValidationErrors(fields []FieldError, opts ...Option) *Error {
	e := newError(KindValidation, http.StatusBadRequest, CodeBadRequest, MessageBadRequest, opts)
	e.details = make([]FieldError, 0, len(fields))
	for _, f := range fields {
		e.details = append(e.details, FieldError{Code: f.Code, Path: f.Path, Message: f.Message})
	}
	return e
}

// A nil *Error is safe to call: it reports status 0, so Classify leaves it to
// the fallback stage.

// Error returns the client-safe message.
func (e *Error) Error() string {
	if e == nil {
		return nilMessage
	}
	return e.message
}

// Unwrap returns the cause attached with WithCause, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindRest
	}
	return e.kind
}

func (e *Error) HTTPStatus() int {
	if e == nil {
		return 0
	}
	return e.status
}

func (e *Error) Code() string {
	if e == nil {
		return ""
	}
	return e.code
}

func (e *Error) Message() string { return e.Error() }

// FieldErrors returns a copy of the field errors. It is nil for variants that
// carry none.
func (e *Error) FieldErrors() []FieldError {
	if e == nil || e.details == nil {
		return nil
	}
	out := make([]FieldError, len(e.details))
	copy(out, e.details)
	return out
}

// StackTrace returns the frames captured when the error was constructed.
func (e *Error) StackTrace() pkgerrors.StackTrace {
	if e == nil || e.trace == nil {
		return nil
	}
	return e.trace.StackTrace()
}

// Format supports %s, %q and %v. %+v adds the code, the cause, and the
// construction stack trace.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e != nil {
			fmt.Fprintf(s, "%s (%d): %s", e.code, e.status, e.message)
			if e.cause != nil {
				fmt.Fprintf(s, "\ncaused by: %+v", e.cause)
			}
			e.StackTrace().Format(s, verb)
			return
		}
		fallthrough
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// IsKind reports whether err wraps an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e != nil && e.kind == k
}
