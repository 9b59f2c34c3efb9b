// Package validation binds request data and reports validation failures
// in the errs.HTTPError shape.
//
// Request types declare their rules with validator struct tags (or return
// CustomValidationErrors for rules tags can't express) and expose them
// through Validate.
package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/yourconsultingltd/ycl-backend/internal/errs"
)

// Validatable is implemented by request payloads.
type Validatable interface {
	Validate() error
}

// Binder is implemented by payloads that read the request themselves
// instead of going through echo's binder.
type Binder interface {
	Bind(c echo.Context) error
}

// CustomValidationError is a single field failure.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is returned by Validate for rules that aren't tags.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name, which is what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct runs the tag rules on v.
func Struct(v any) error {
	return validate.Struct(v)
}

// BindAndValidate binds the request into payload and validates it. Failures
// come back as *errs.HTTPError: 413 when the body exceeds the limit, 400
// otherwise.
func BindAndValidate(c echo.Context, payload Validatable) error {
	var err error
	if b, ok := payload.(Binder); ok {
		err = b.Bind(c)
	} else {
		err = c.Bind(payload)
	}
	if err != nil {
		return bindError(err)
	}

	if err := payload.Validate(); err != nil {
		msg, fieldErrors := extractValidationError(err)
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}

	return nil
}

func bindError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return errs.NewRequestTooLargeError("Request body too large.")
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if echoErr.Code == http.StatusRequestEntityTooLarge {
			return errs.NewRequestTooLargeError("Request body too large.")
		}
		return errs.NewBadRequestError(fmt.Sprint(echoErr.Message), false, nil, nil)
	}

	return errs.NewBadRequestError("Invalid request body.", false, nil, nil)
}

// extractValidationError converts a Validate error into a summary message
// and field errors. A single failure gets a sentence of its own, e.g.
// "Email is required.".
func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var custom CustomValidationErrors
	var tagged validator.ValidationErrors

	switch {
	case errors.As(err, &custom):
		for _, e := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field, Error: e.Message})
		}
	case errors.As(err, &tagged):
		for _, e := range tagged {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field(), Error: tagMessage(e)})
		}
	default:
		return err.Error(), nil
	}

	if len(fieldErrors) == 1 {
		return sentence(fieldErrors[0]), fieldErrors
	}
	return "Validation failed", fieldErrors
}

func tagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", e.Param())
		}
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	default:
		if e.Param() != "" {
			return fmt.Sprintf("failed %s=%s", e.Tag(), e.Param())
		}
		return fmt.Sprintf("failed %s", e.Tag())
	}
}

func sentence(fe errs.FieldError) string {
	field := fe.Field
	if field != "" {
		field = strings.ToUpper(field[:1]) + field[1:]
	}
	return strings.TrimSpace(field+" "+fe.Error) + "."
}
