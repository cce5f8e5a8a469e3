package common

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind classifies venue failures.
type ErrorKind int

const (
	KindUnavailable ErrorKind = iota
	KindTimeout
	KindAuthRejected
	KindRateLimited
	KindBadResponse
	KindRejected
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuthRejected:
		return "auth_rejected"
	case KindRateLimited:
		return "rate_limited"
	case KindBadResponse:
		return "bad_response"
	case KindRejected:
		return "rejected"
	case KindNotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}

// UpstreamError is returned for every failed venue call.
type UpstreamError struct {
	Kind       ErrorKind
	Op         string
	Status     int           // HTTP or realtime status, 0 if none
	Message    string        // venue supplied message, if any
	RetryAfter time.Duration // set for KindRateLimited when known
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("venue %s: %s", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// KindOf returns the kind of an UpstreamError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind, true
	}
	return 0, false
}

// KindForStatus maps a venue HTTP status onto an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuthRejected
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	case status == 408 || status == 504:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	default:
		return KindRejected
	}
}
