package appservice

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an authentication failure
type ErrorKind string

const (
	KindEndpointUnsuccessful ErrorKind = "endpoint_unsuccessful"
	KindEndpointTransport    ErrorKind = "endpoint_transport"
	KindMalformedPayload     ErrorKind = "malformed_payload"
	KindEmptyPayload         ErrorKind = "empty_payload"
	KindMissingField         ErrorKind = "missing_required_field"
)

// Error is a structured failure raised while fetching or parsing the
// identity payload. Two errors are equal under errors.Is when their kinds match.
type Error struct {
	Kind    ErrorKind
	Message string

	// StatusCode and Reason are set for KindEndpointUnsuccessful
	StatusCode int
	Reason     string

	// Field is set for KindMissingField
	Field string

	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d %s)", msg, e.StatusCode, e.Reason)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %q)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrEndpointUnsuccessful = &Error{Kind: KindEndpointUnsuccessful, Message: "auth endpoint returned a non-success status"}
	ErrEndpointTransport    = &Error{Kind: KindEndpointTransport, Message: "auth endpoint request failed"}
	ErrMalformedPayload     = &Error{Kind: KindMalformedPayload, Message: "payload is not a JSON array of objects"}
	ErrEmptyPayload         = &Error{Kind: KindEmptyPayload, Message: "payload contains no records"}
	ErrMissingField         = &Error{Kind: KindMissingField, Message: "payload record is missing a required field"}
)

func newUnsuccessfulError(statusCode int, reason string) *Error {
	return &Error{
		Kind:       KindEndpointUnsuccessful,
		Message:    ErrEndpointUnsuccessful.Message,
		StatusCode: statusCode,
		Reason:     reason,
	}
}

func newTransportError(err error) *Error {
	return &Error{Kind: KindEndpointTransport, Message: ErrEndpointTransport.Message, Err: err}
}

func newMalformedError(err error) *Error {
	return &Error{Kind: KindMalformedPayload, Message: ErrMalformedPayload.Message, Err: err}
}

// KindOf returns the kind of err, or an empty kind when err is not an *Error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsClientError reports whether err came from the call to the auth endpoint
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindEndpointUnsuccessful, KindEndpointTransport:
		return true
	}
	return false
}

// IsParseError reports whether err came from decoding the endpoint payload
func IsParseError(err error) bool {
	switch KindOf(err) {
	case KindMalformedPayload, KindEmptyPayload, KindMissingField:
		return true
	}
	return false
}
