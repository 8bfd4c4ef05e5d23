package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"testing"
)

func TestConstructors_Defaults(t *testing.T) {
	cases := []struct {
		name   string
		err    *Error
		kind   Kind
		status int
		code   string
		msg    string
	}{
		{"server", NewServerError(), KindServer, http.StatusInternalServerError, "server_error", "An internal server problem occurred"},
		{"bad request", NewBadRequestError(), KindBadRequest, http.StatusBadRequest, "invalid_request", MessageBadRequest},
		{"unauthorized", NewUnauthorizedError(), KindUnauthorized, http.StatusUnauthorized, "unauthorized", "Invalid credentials"},
		{"forbidden", NewForbiddenError(), KindForbidden, http.StatusForbidden, "forbidden", "Insufficient privileges"},
		{"not found", NewNotFoundError(), KindNotFound, http.StatusNotFound, "not_found", "Resource not found"},
		{"validation", NewValidationError("email", "required", "Email is required"), KindValidation, http.StatusBadRequest, "invalid_request", MessageBadRequest},
		{"validation list", NewValidationErrors(nil), KindValidation, http.StatusBadRequest, "invalid_request", MessageBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Kind() != tc.kind || tc.err.HTTPStatus() != tc.status || tc.err.Code() != tc.code || tc.err.Message() != tc.msg {
				t.Fatalf("got kind=%v status=%d code=%q msg=%q", tc.err.Kind(), tc.err.HTTPStatus(), tc.err.Code(), tc.err.Message())
			}
			if tc.err.Error() != tc.msg {
				t.Fatalf("Error() = %q; want %q", tc.err.Error(), tc.msg)
			}
		})
	}
	if !strings.HasPrefix(MessageBadRequest, "The request is missing a required parameter") {
		t.Fatalf("unexpected bad request message: %q", MessageBadRequest)
	}
}

func TestConstructors_NonValidationVariantsHaveNoDetails(t *testing.T) {
	for _, e := range []*Error{NewServerError(), NewBadRequestError(), NewUnauthorizedError(), NewForbiddenError(), NewNotFoundError()} {
		if e.FieldErrors() != nil {
			t.Fatalf("%s: expected nil details, got %#v", e.Code(), e.FieldErrors())
		}
	}
}

func TestOptions_OverrideCodeAndMessageButNotStatus(t *testing.T) {
	e := NewNotFoundError(WithCode("user_not_found"), WithMessage("User not found"))
	if e.HTTPStatus() != http.StatusNotFound || e.Code() != "user_not_found" || e.Message() != "User not found" {
		t.Fatalf("unexpected: %d %q %q", e.HTTPStatus(), e.Code(), e.Message())
	}

	// Empty overrides keep the defaults.
	e = NewForbiddenError(WithCode(""), WithMessage(""), nil)
	if e.Code() != CodeForbidden || e.Message() != MessageForbidden {
		t.Fatalf("empty overrides should be ignored: %q %q", e.Code(), e.Message())
	}

	v := NewValidationError("name", "max", "too long", WithMessage("Invalid user"))
	if v.Message() != "Invalid user" || v.Code() != CodeBadRequest {
		t.Fatalf("validation overrides: %q %q", v.Code(), v.Message())
	}
}

func TestNewValidationError_SingleField(t *testing.T) {
	e := NewValidationError("email", "required", "Email is required")
	want := []FieldError{{Code: "required", Path: "email", Message: "Email is required"}}
	if got := e.FieldErrors(); !reflect.DeepEqual(got, want) {
		t.Fatalf("details = %#v; want %#v", got, want)
	}
}

func TestNewValidationErrors_OrderAndCopy(t *testing.T) {
	in := []FieldError{
		{Code: "required", Path: "email", Message: "Email is required"},
		{Code: "max", Path: "name", Message: "Name too long"},
		{Code: "oneof", Path: "email", Message: "duplicate path is fine"},
	}
	e := NewValidationErrors(in)
	if got := e.FieldErrors(); !reflect.DeepEqual(got, in) {
		t.Fatalf("details = %#v; want %#v", got, in)
	}

	// Mutating the input or the returned slice must not affect the error.
	in[0].Code = "mutated"
	got := e.FieldErrors()
	got[1].Path = "mutated"
	if d := e.FieldErrors(); d[0].Code != "required" || d[1].Path != "name" {
		t.Fatalf("details aliased: %#v", d)
	}
}

func TestNewValidationErrors_EmptyIsDefined(t *testing.T) {
	for _, in := range [][]FieldError{nil, {}} {
		d := NewValidationErrors(in).FieldErrors()
		if d == nil || len(d) != 0 {
			t.Fatalf("expected empty non-nil details, got %#v", d)
		}
	}
}

func TestNew_ArbitraryStatus(t *testing.T) {
	e := New(http.StatusNotImplemented, "not_implemented", "Not implemented")
	if e.Kind() != KindRest || e.HTTPStatus() != 501 || e.Code() != "not_implemented" {
		t.Fatalf("unexpected: %v %d %q", e.Kind(), e.HTTPStatus(), e.Code())
	}
}

func TestWithCause_UnwrapAndIsKind(t *testing.T) {
	cause := errors.New("disk on fire")
	e := NewServerError(WithCause(cause))
	if !errors.Is(e, cause) {
		t.Fatalf("errors.Is should find the cause")
	}
	wrapped := fmt.Errorf("repo: %w", e)
	if !IsKind(wrapped, KindServer) || IsKind(wrapped, KindNotFound) {
		t.Fatalf("IsKind mismatch")
	}
	if IsKind(cause, KindServer) {
		t.Fatalf("plain error must not match")
	}
	if e.Error() != MessageServer {
		t.Fatalf("Error() should not include the cause: %q", e.Error())
	}
}

func TestFormat_PlusVIncludesStackAndCause(t *testing.T) {
	e := NewNotFoundError(WithCause(errors.New("record not found")))
	if len(e.StackTrace()) == 0 {
		t.Fatalf("expected captured stack")
	}
	out := fmt.Sprintf("%+v", e)
	for _, want := range []string{"not_found (404): Resource not found", "caused by: record not found", "TestFormat_PlusVIncludesStackAndCause"} {
		if !strings.Contains(out, want) {
			t.Fatalf("%%+v missing %q:\n%s", want, out)
		}
	}
	if s := fmt.Sprintf("%v|%s|%q", e, e, e); s != `Resource not found|Resource not found|"Resource not found"` {
		t.Fatalf("short forms = %s", s)
	}
}

func TestKind_String(t *testing.T) {
	got := []string{KindRest.String(), KindServer.String(), KindBadRequest.String(), KindUnauthorized.String(),
		KindForbidden.String(), KindNotFound.String(), KindValidation.String()}
	want := []string{"rest", "server", "bad_request", "unauthorized", "forbidden", "not_found", "validation"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestNilError_IsUnclassifiedAndSafe(t *testing.T) {
	var e *Error
	var err error = e

	if _, ok := Classify(err); ok {
		t.Fatalf("nil *Error must not classify")
	}
	if errors.Unwrap(err) != nil || e.FieldErrors() != nil || e.StackTrace() != nil || e.Code() != "" {
		t.Fatalf("nil accessors should return zero values")
	}
	if IsKind(err, KindRest) {
		t.Fatalf("nil *Error has no kind")
	}
	if got := fmt.Sprintf("%v|%+v", err, err); got != nilMessage+"|"+nilMessage {
		t.Fatalf("format = %q", got)
	}
	// wrapping does not resurrect it
	if _, ok := Classify(fmt.Errorf("ctx: %w", err)); ok {
		t.Fatalf("wrapped nil *Error must not classify")
	}
}
