package nasa

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is. The concrete error types below
// carry the details.
var (
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrInvalidRange  = errors.New("invalid range")
	ErrTransport     = errors.New("http error")
	ErrMissingAPIKey = errors.New("api key is required")
)

// TypeMismatchError reports a parameter whose runtime type does not match
// its contract (date kind, limit type, boolean flags).
type TypeMismatchError struct {
	Param   string
	Message string
	Got     any
}

func (e *TypeMismatchError) Error() string {
	if e.Got == nil {
		return e.Message
	}
	return fmt.Sprintf("%s (got %T)", e.Message, e.Got)
}

// Is lets errors.Is(err, ErrTypeMismatch) match.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// InvalidRangeError reports an inverted min/max pair or a non-positive limit.
type InvalidRangeError struct {
	Param   string
	Message string
}

func (e *InvalidRangeError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrInvalidRange) match.
func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// HTTPError is returned when the remote service answers with anything other
// than 200 OK. URL is the full request URL including the encoded query; the
// api_key value is masked in Error().
type HTTPError struct {
	StatusCode int
	Reason     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.StatusCode, e.Reason, redactAPIKey(e.URL))
}

// Is lets errors.Is(err, ErrTransport) match.
func (e *HTTPError) Is(target error) bool {
	return target == ErrTransport
}

func boolFlagError(param string, got any) error {
	return &TypeMismatchError{
		Param:   param,
		Message: param + " parameter must be a boolean (true or false)",
		Got:     got,
	}
}

func rangeError(minParam, maxParam string) error {
	return &InvalidRangeError{
		Param:   minParam,
		Message: fmt.Sprintf("%s parameter must be less than %s", minParam, maxParam),
	}
}
