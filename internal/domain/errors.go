package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed covers transport failures and non-success statuses
	ErrFetchFailed = errors.New("fetch failed")
	// ErrMalformedResponse is a success status with a missing or ill-shaped body
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrFetchFailed)
	// ErrInvalidTimeRange means a time value outside the unit's bounds
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrUnknownTimeUnit means no timeframe token exists for the unit
	ErrUnknownTimeUnit = errors.New("unknown time unit")
	// ErrEngineStopped is returned by entry points after teardown
	ErrEngineStopped = errors.New("engine stopped")
)

// ErrorKind classifies errors for the view and for logs
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindInvalidTimeRange  ErrorKind = "invalid_time_range"
	KindFetchFailed       ErrorKind = "fetch_failed"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindCallerError       ErrorKind = "caller_error"
)

// KindOf maps err onto an ErrorKind. Unclassified errors count as fetch failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrFetchFailed):
		return KindFetchFailed
	case errors.Is(err, ErrInvalidTimeRange):
		return KindInvalidTimeRange
	case errors.Is(err, ErrUnknownTimeUnit):
		return KindCallerError
	default:
		return KindFetchFailed
	}
}
