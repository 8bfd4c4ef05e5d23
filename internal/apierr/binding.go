package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CodePayloadTooLarge is returned for request bodies over the size cap.
const CodePayloadTooLarge = "payload_too_large"

// FromBindingError converts a request binding failure (gin ShouldBind*) into
// a taxonomy error.
//
//   - validator.ValidationErrors become ValidationErrors, one FieldError per
//     failed rule, code = the validation tag.
//   - JSON type mismatches become a single ValidationError (invalid_type).
//   - A body over the http.MaxBytesReader cap is a 413 payload_too_large.
//   - Anything else (syntax errors, empty body) is a plain BadRequestError.
func FromBindingError(err error) *Error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Code:    fe.Tag(),
				Path:    fieldPath(fe),
				Message: fieldMessage(fe),
			})
		}
		return NewValidationErrors(fields, WithCause(err))
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		path := typeErr.Field
		if path == "" {
			path = "body"
		}
		return NewValidationError(path, "invalid_type",
			fmt.Sprintf("%s must be of type %s", path, typeErr.Type), WithCause(err))
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit), WithCause(err))
	}

	if errors.Is(err, io.EOF) {
		return NewBadRequestError(WithMessage("Request body is required"), WithCause(err))
	}
	return NewBadRequestError(WithCause(err))
}

// JSONTagName reports a struct field by its json name. Register it on the
// binding engine so validation paths match the wire format:
//
//	v.RegisterTagNameFunc(apierr.JSONTagName)
func JSONTagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// fieldPath drops the root struct name from the namespace
// ("CreateUserRequest.address.city" -> "address.city").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "uuid", "uuid4":
		return name + " must be a UUID"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return name + " is invalid"
	}
}
