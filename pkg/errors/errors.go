package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary and for callers that
// need to branch on failure class without string matching.
type Kind string

const (
	// KindInvalidReference means the input URL or identifier is malformed.
	KindInvalidReference Kind = "invalid_reference"
	// KindConfiguration means required configuration (credentials, connection
	// descriptors) is missing. Always distinct from a provider failure.
	KindConfiguration Kind = "configuration"
	// KindExternalService means the content provider failed: network fault,
	// auth rejection, rate limit, or missing/private content.
	KindExternalService Kind = "external_service"
	// KindStorage means a durable object-store write failed.
	KindStorage Kind = "storage"
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown Kind = "unknown"
)

// Error carries a machine-readable kind alongside a human-readable message
// and an optional wrapped cause.
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

// InvalidReference reports a malformed URL or identifier.
func InvalidReference(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidReference, Message: fmt.Sprintf(format, args...)}
}

// Configuration reports missing or invalid configuration.
func Configuration(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// ExternalService wraps a provider-side failure. err may be nil.
func ExternalService(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindExternalService, Message: fmt.Sprintf(format, args...), Err: err}
}

// Storage wraps an object-store failure. err may be nil.
func Storage(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindStorage, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error kind to the status code the response boundary
// uses. Client mistakes and misconfiguration are 4xx, everything else 5xx.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidReference, KindConfiguration:
		return http.StatusBadRequest
	case KindExternalService, KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
