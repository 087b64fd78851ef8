package fal

import (
	"errors"
	"fmt"
)

var (
	// ErrPollTimeout is returned when a job reaches no terminal status
	// within the caller's polling window. The remote job may still finish
	// later; the ticket stays valid.
	ErrPollTimeout = errors.New("polling timed out before a terminal status")
	// ErrResponseParse is returned when the queue answers with a body or
	// status value this client does not understand. It is never retried,
	// an unknown response must surface instead of being polled forever.
	ErrResponseParse = errors.New("unparseable queue response")
)

// SubmitError reports a failed job submission. StatusCode is zero when the
// request never reached the queue.
type SubmitError struct {
	Endpoint   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmitError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submit to %s failed with status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}

	return fmt.Sprintf("submit to %s failed: %v", e.Endpoint, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// RemoteError reports a job the queue accepted and then failed on its side.
// Retrying the same payload is pointless.
type RemoteError struct {
	TicketID string
	Message  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote job %s failed: %s", e.TicketID, e.Message)
}

// IsRemoteError checks if the error is a queue-side execution failure.
func IsRemoteError(err error) bool {
	var remoteErr *RemoteError

	return errors.As(err, &remoteErr)
}
