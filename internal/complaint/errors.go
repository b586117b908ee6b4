package complaint

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the caller. The HTTP layer maps kinds to
// status codes.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindInvalidArgument  Kind = "invalid-argument"
	KindPermissionDenied Kind = "permission-denied"
	KindNotFound         Kind = "not-found"
	KindInternal         Kind = "internal"
)

// Message catalog keys used in Error.Message.
const (
	msgSubmitted        = "complaint.submitted"
	msgRejectedText     = "complaint.rejected.text"
	msgRejectedImage    = "complaint.rejected.image"
	msgUnauthenticated  = "error.unauthenticated"
	msgInvalidRequest   = "error.invalid_request"
	msgMissingFields    = "error.missing_fields"
	msgInvalidCategory  = "error.invalid_category"
	msgInvalidImage     = "error.invalid_image"
	msgInvalidStatus    = "error.invalid_status"
	msgInvalidRole      = "error.invalid_role"
	msgEmptyText        = "error.empty_comment"
	msgPermissionDenied = "error.permission_denied"
	msgNotFound         = "error.not_found"
	msgInternal         = "error.internal"
)

// Error is returned by the gateway and the service. Message is a message
// catalog key, safe to show to the user once localized; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidRequest wraps a payload decoding error.
func InvalidRequest(err error) *Error {
	return newError(KindInvalidArgument, msgInvalidRequest, err)
}

// Unauthenticated wraps a missing or rejected credential.
func Unauthenticated(err error) *Error {
	return newError(KindUnauthenticated, msgUnauthenticated, err)
}

func PermissionDenied() *Error {
	return newError(KindPermissionDenied, msgPermissionDenied, nil)
}

// KindOf returns the kind of err, or KindInternal for errors not produced
// by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the catalog key carried by err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return msgInternal
}
