package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the controller.
var (
	// ErrClosed is returned by Wait once the controller has been closed.
	ErrClosed = errors.New("controller closed")

	// errNoResponse is wrapped by UnknownError when a Doer returns neither
	// a response nor an error.
	errNoResponse = errors.New("no response")
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses and other non-2xx statuses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures (dial, timeout, abort).
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a response body that is not valid JSON for the target type.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassUnknown represents rejections that are not error values.
	ErrorClassUnknown ErrorClass = "unknown"
)

// HTTPStatusError is returned when a response arrived with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	URL        string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("Error: %d", e.StatusCode)
}

// Class returns ErrorClassClient for 4xx and ErrorClassServer otherwise.
func (e *HTTPStatusError) Class() ErrorClass {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrorClassClient
	}
	return ErrorClassServer
}

// TransportError is returned when the request could not complete.
// Its message is the underlying transport message.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Err == nil {
		return "transport error"
	}
	return e.Err.Error()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a 2xx body could not be decoded as JSON.
type DecodeError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownError is the normalized form of a rejection that was not an error value.
type UnknownError struct {
	Value any
}

// Error implements the error interface.
func (e *UnknownError) Error() string {
	return "Unknown error"
}

// Unwrap returns the rejected value when it happens to be an error.
func (e *UnknownError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Classify returns the ErrorClass of err, or "" for nil.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}

	var statusErr *HTTPStatusError
	var decodeErr *DecodeError
	var unknownErr *UnknownError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Class()
	case errors.As(err, &decodeErr):
		return ErrorClassDecode
	case errors.As(err, &unknownErr):
		return ErrorClassUnknown
	default:
		return ErrorClassNetwork
	}
}

// IsStatus reports whether err is an HTTPStatusError with the given status code.
func IsStatus(err error, code int) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// normalize converts anything a request attempt can reject with into one of
// the taxonomy's error values.
func normalize(url string, v any) error {
	switch e := v.(type) {
	case nil:
		return &UnknownError{Value: errNoResponse}
	case *HTTPStatusError, *TransportError, *DecodeError, *UnknownError:
		return e.(error)
	case error:
		return &TransportError{URL: url, Err: e}
	default:
		return &UnknownError{Value: v}
	}
}
