package apierr

import (
	"errors"
	"fmt"
)

// StatusCoder is implemented by any error that knows its HTTP status.
//
// Classification is structural: an error from another package (or another
// copy of this taxonomy) is treated as classified as long as it exposes
// HTTPStatus. Code, Message and FieldErrors are read when present.
type StatusCoder interface {
	HTTPStatus() int
}

type coder interface{ Code() string }
type messager interface{ Message() string }
type fieldErrorer interface{ FieldErrors() []FieldError }

// Classified is a snapshot of a recognized error.
type Classified struct {
	Status  int
	Code    string
	Message string
	Details []FieldError // nil when the error carries no field errors
}

// Classify reports whether err (or anything it wraps) carries a usable HTTP
// status. A zero status counts as absent; statuses outside 100..599 are
// rejected so they reach the fallback stage instead of the response writer.
func Classify(err error) (Classified, bool) {
	if err == nil {
		return Classified{}, false
	}
	var sc StatusCoder
	if !errors.As(err, &sc) {
		return Classified{}, false
	}
	status := sc.HTTPStatus()
	if status < 100 || status > 599 {
		return Classified{}, false
	}

	out := Classified{Status: status}
	if c, ok := sc.(coder); ok {
		out.Code = c.Code()
	}
	if m, ok := sc.(messager); ok {
		out.Message = m.Message()
	} else if e, ok := sc.(error); ok {
		out.Message = e.Error()
	}
	if f, ok := sc.(fieldErrorer); ok {
		out.Details = f.FieldErrors()
	}
	return out, true
}

// Body is the JSON error envelope written to clients.
//
// Details holds []FieldError for classified errors and a trace string for the
// fallback envelope. It is omitted entirely when there is nothing to report.
type Body struct {
	Error       string `json:"error"                   example:"not_found"`
	Description string `json:"error_description"       example:"Resource not found"`
	Details     any    `json:"error_details,omitempty" swaggertype:"array,object"`
}

// Body formats the classified error for the wire. error_details is present
// only when the error defines field errors, even if that list is empty.
func (c Classified) Body() Body {
	b := Body{Error: c.Code, Description: c.Message}
	if c.Details != nil {
		b.Details = c.Details
	}
	return b
}

// LogFields returns the structured context logged for a classified error.
func (c Classified) LogFields() map[string]any {
	f := map[string]any{
		"httpStatus": c.Status,
		"code":       c.Code,
		"message":    c.Message,
	}
	if c.Details != nil {
		f["errors"] = c.Details
	}
	return f
}

// UnknownBody formats an unclassified error. Unless hideInternal is set, the
// raw message and trace are exposed to the client.
func UnknownBody(err error, hideInternal bool) Body {
	if hideInternal || err == nil {
		return Body{Error: CodeUnknown, Description: MessageServer}
	}
	return Body{
		Error:       CodeUnknown,
		Description: err.Error(),
		Details:     Trace(err),
	}
}

// Trace renders err with its stack when one was recorded (pkg/errors style
// %+v); errors without a stack render as their message.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%+v", err)
}
