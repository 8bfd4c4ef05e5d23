// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the two error stages every router registers, in order:
//
//	r.Use(middleware.ErrorHandlers(
//	    handlers.ClassifiedErrorHandler(lg),                      // taxonomy errors
//	    handlers.FallbackErrorHandler(lg, handlers.FallbackOptions{}), // everything else
//	))
//
// ClassifiedErrorHandler answers any error that structurally carries an HTTP
// status (see apierr.Classify) with its own status and envelope:
//
//	HTTP/1.1 404 Not Found
//	{ "error": "not_found", "error_description": "Resource not found" }
//
// Validation variants add "error_details": [{code, path, message}, ...].
//
// FallbackErrorHandler answers whatever is left with a 500:
//
//	{ "error": "unknown_error", "error_description": "<err>", "error_details": "<trace>" }
//
// Severity: classified statuses up to and including 500 are logged at info as
// "Client error"; above 500 at error as "Server error". Exactly-500 therefore
// logs as a client error, which existing dashboards rely on. The fallback
// always logs "Server error".
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-rest-errors/internal/apierr"
	"github.com/tbourn/go-rest-errors/internal/http/middleware"
	"github.com/tbourn/go-rest-errors/internal/observability"
)

// ErrCodeMethodNotAllowed answers requests whose path matched but method did not.
const ErrCodeMethodNotAllowed = "method_not_allowed"

const (
	msgClientError = "Client error"
	msgServerError = "Server error"

	severityClient = "client"
	severityServer = "server"
)

// Logger is the logging capability used by the error stages. Implementations
// must not panic; the stages do not wait for delivery.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// requestScoper is implemented by loggers that can bind to a request.
type requestScoper interface {
	ForRequest(c *gin.Context) Logger
}

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger wraps l.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger { return &ZerologLogger{l: l} }

func (z *ZerologLogger) Info(msg string, fields map[string]any) {
	z.l.Info().Fields(fields).Msg(msg)
}

func (z *ZerologLogger) Error(msg string, fields map[string]any) {
	z.l.Error().Fields(fields).Msg(msg)
}

// RequestLogger logs through the request-scoped logger installed by
// middleware.Logger, so error lines carry request_id, method and path. Outside
// a request it writes to the global zerolog logger.
type RequestLogger struct{}

func (RequestLogger) Info(msg string, fields map[string]any) {
	NewZerologLogger(log.Logger).Info(msg, fields)
}

func (RequestLogger) Error(msg string, fields map[string]any) {
	NewZerologLogger(log.Logger).Error(msg, fields)
}

// ForRequest binds to the logger stored on c.
func (RequestLogger) ForRequest(c *gin.Context) Logger {
	return NewZerologLogger(*middleware.LoggerFrom(c))
}

func scoped(lg Logger, c *gin.Context) Logger {
	if s, ok := lg.(requestScoper); ok {
		return s.ForRequest(c)
	}
	return lg
}

// ClassifiedErrorHandler returns the stage that answers taxonomy errors and
// forwards everything else untouched, without logging.
func ClassifiedErrorHandler(lg Logger) middleware.ErrorStage {
	return func(err error, c *gin.Context, next func(error)) {
		ce, ok := apierr.Classify(err)
		if !ok {
			next(err)
			return
		}

		severity := severityClient
		if ce.Status <= http.StatusInternalServerError {
			scoped(lg, c).Info(msgClientError, ce.LogFields())
		} else {
			severity = severityServer
			scoped(lg, c).Error(msgServerError, ce.LogFields())
		}
		middleware.ObserveAPIError(ce.Code, ce.Status, severity)
		recordSpanError(c, err, ce.Code, ce.Status, severity == severityServer)

		c.AbortWithStatusJSON(ce.Status, ce.Body())
	}
}

// FallbackOptions configures FallbackErrorHandler.
//
// HideInternal replaces the raw error message with the generic server message
// and drops the trace from the response. The log line is unaffected.
type FallbackOptions struct {
	HideInternal bool
}

// FallbackErrorHandler returns the terminal stage: it logs any error as a
// server error and answers 500 with the unknown_error envelope. It never
// forwards.
func FallbackErrorHandler(lg Logger, opt FallbackOptions) middleware.ErrorStage {
	return func(err error, c *gin.Context, _ func(error)) {
		if err == nil {
			err = errors.New("unknown error")
		}
		scoped(lg, c).Error(msgServerError, map[string]any{
			"error": err.Error(),
			"stack": apierr.Trace(err),
		})
		middleware.ObserveAPIError(apierr.CodeUnknown, http.StatusInternalServerError, severityServer)
		recordSpanError(c, err, apierr.CodeUnknown, http.StatusInternalServerError, true)

		c.AbortWithStatusJSON(http.StatusInternalServerError, apierr.UnknownBody(err, opt.HideInternal))
	}
}

// recordSpanError attaches err to the active span. Only server-side failures
// mark the span as failed.
func recordSpanError(c *gin.Context, err error, code string, status int, server bool) {
	if c.Request == nil {
		return
	}
	observability.RecordError(trace.SpanFromContext(c.Request.Context()), err, server,
		observability.AttrErrorCode.String(code),
		observability.AttrHTTPStatus.Int(status),
		observability.AttrErrorSource.String("http"),
	)
}
