package relay

import "errors"

// ErrInvalidRequest is matched by every validation failure returned by the relay.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError describes a request the relay refused to route.
// Message is safe to return to the caller as-is.
type RequestError struct {
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return ErrInvalidRequest
}

func invalid(message string) error {
	return &RequestError{Message: message}
}
