package fetch

import (
	"errors"
	"fmt"
)

type ErrorReason string

const (
	ReasonAuth        ErrorReason = "auth"
	ReasonRateLimited ErrorReason = "rate_limited"
	ReasonNotFound    ErrorReason = "not_found"
	ReasonTimeout     ErrorReason = "timeout"
	ReasonUnavailable ErrorReason = "unavailable"
	ReasonBadResponse ErrorReason = "bad_response"
)

// FetchError is the only error type fetchers return for upstream failures.
// Transient errors are eligible for retry; everything else is terminal.
type FetchError struct {
	Reason    ErrorReason
	Detail    string
	Transient bool
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

func NewFetchError(reason ErrorReason, detail string, transient bool) *FetchError {
	return &FetchError{Reason: reason, Detail: detail, Transient: transient}
}

func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
