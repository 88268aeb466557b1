package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies an upstream failure for rotation decisions.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimited ErrorKind = "rate_limited"
	KindUnavailable ErrorKind = "unavailable"
	KindNetwork     ErrorKind = "network"
	KindAuth        ErrorKind = "auth"
	KindBadRequest  ErrorKind = "bad_request"
	KindEmpty       ErrorKind = "empty_response"
	KindUnknown     ErrorKind = "unknown"
)

// Retriable reports whether a different credential could plausibly succeed.
// Auth failures are tied to one credential, so the next one is worth a try.
func (k ErrorKind) Retriable() bool {
	return k != KindBadRequest
}

// Error is a classified upstream failure.
type Error struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status code to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout:
		return KindTimeout
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusPaymentRequired:
		return KindAuth
	case status == http.StatusBadRequest, status == http.StatusNotFound, status == http.StatusUnprocessableEntity,
		status == http.StatusRequestEntityTooLarge:
		return KindBadRequest
	case status >= 500:
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// Classify wraps err as a provider *Error. status is the HTTP status when the
// upstream answered, or 0.
func Classify(providerName string, status int, err error) *Error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	kind := KindUnknown
	var netErr net.Error
	switch {
	case status != 0:
		kind = KindForStatus(status)
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			kind = KindTimeout
		} else {
			kind = KindNetwork
		}
	}
	return &Error{Provider: providerName, Kind: kind, Status: status, Err: err}
}

// KindOf extracts the classification of err; unclassified errors are unknown.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUnknown
}

// IsRetriable reports whether rotating to another credential may help.
func IsRetriable(err error) bool {
	return KindOf(err).Retriable()
}
