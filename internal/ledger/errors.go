package ledger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCropNotFound is returned when the crop id does not resolve.
	ErrCropNotFound = errors.New("crop not found")
	// ErrRequestNotFound is returned when the request id does not resolve.
	ErrRequestNotFound = errors.New("request not found")
	// ErrCropUnavailable is returned when the availability predicate fails at
	// request-creation time.
	ErrCropUnavailable = errors.New("crop is no longer available")
)

// InvalidTransitionError reports a status-machine guard failure. The message
// names the expected and actual statuses so the caller can surface it as-is.
type InvalidTransitionError struct {
	RequestID string
	Expected  []string
	Actual    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s: invalid status transition: status is '%s', expected '%s'",
		e.RequestID, e.Actual, strings.Join(e.Expected, "' or '"))
}
