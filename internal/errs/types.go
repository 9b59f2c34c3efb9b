package errs

import "strings"

// FieldError is a field-level validation error.
//
//	{ "field": "email", "error": "is required" }
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError is the JSON body of every error response.
//
// Success is always false so form clients can branch on the same key they
// read from successful responses. Detail carries the underlying error text
// and is only populated outside production.
type HTTPError struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`

	// Override marks messages that are safe to show to end users verbatim.
	Override bool `json:"override"`

	Errors []FieldError `json:"errors,omitempty"`
	Detail string       `json:"error,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError, regardless of status or code.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithDetail returns a copy of e carrying the underlying error text.
func (e *HTTPError) WithDetail(err error) *HTTPError {
	cp := *e
	if err != nil {
		cp.Detail = err.Error()
	}
	return &cp
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}
