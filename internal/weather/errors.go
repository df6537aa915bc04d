package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the upstream API cannot resolve the city.
	ErrNotFound = errors.New("city not found")
	// ErrTransport covers every other failed lookup: non-2xx status,
	// network failure or an unreadable body.
	ErrTransport = errors.New("weather transport error")
	// ErrEmptyCity is returned for a blank query.
	ErrEmptyCity = errors.New("city name is empty")
)

// LookupError describes a failed lookup. Message is what the user sees;
// Err is the underlying cause that goes to the logs.
type LookupError struct {
	Kind    error // ErrNotFound or ErrTransport
	City    string
	Status  int // upstream HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LookupError) Unwrap() error { return e.Err }

// Is matches the error kind so callers can use errors.Is(err, ErrNotFound).
func (e *LookupError) Is(target error) bool {
	return target == e.Kind
}

// NotFoundError builds the error reported for an unresolvable city.
func NotFoundError(city string) *LookupError {
	return &LookupError{
		Kind:    ErrNotFound,
		City:    city,
		Status:  404,
		Message: "City \"" + city + "\" not found. Please check the spelling and try again.",
	}
}

// StatusError builds the error reported for any other non-2xx response.
func StatusError(city string, status int, statusText string) *LookupError {
	return &LookupError{
		Kind:    ErrTransport,
		City:    city,
		Status:  status,
		Message: "Network response was not ok " + statusText,
	}
}

// NetworkError builds the error reported when no response was received.
func NetworkError(city string, cause error) *LookupError {
	return &LookupError{
		Kind:    ErrTransport,
		City:    city,
		Message: "Unable to reach the weather service. Please try again later.",
		Err:     cause,
	}
}

// DecodeError builds the error reported for a malformed response body.
func DecodeError(city string, status int, cause error) *LookupError {
	return &LookupError{
		Kind:    ErrTransport,
		City:    city,
		Status:  status,
		Message: "Received an unreadable response from the weather service.",
		Err:     cause,
	}
}

// UserMessage returns the message to show for err. Errors that are not a
// *LookupError fall back to their own text.
func UserMessage(err error) string {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Message
	}
	return err.Error()
}
