package orchestrator

import (
	"errors"
	"fmt"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/comfyui"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/fal"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/providers"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/templates"
)

// ErrNoTicket is returned by Resume when neither the ticket store nor the job
// record holds a queue ticket for the job.
var ErrNoTicket = errors.New("job has no persisted ticket")

// Code is the stable failure classification carried by every job error. The
// values surface unchanged in job records, events and API problem responses.
type Code string

const (
	CodeTemplateNotFound    Code = "template_not_found"
	CodeTemplateCorrupt     Code = "template_corrupt"
	CodeLocalUnavailable    Code = "local_unavailable"
	CodeChannelClosed       Code = "channel_closed"
	CodeExecutionFailed     Code = "execution_failed"
	CodeSubmitFailed        Code = "submit_failed"
	CodePollTimeout         Code = "poll_timeout"
	CodeRemoteFailed        Code = "remote_failed"
	CodeResponseParse       Code = "response_parse"
	CodeProviderUnavailable Code = "provider_unavailable"
	CodeInternal            Code = "internal"
)

// Stage names the pipeline step a job failed in.
type Stage string

const (
	StageRoute       Stage = "route"
	StageTemplate    Stage = "template"
	StageSubmit      Stage = "submit"
	StageExecute     Stage = "execute"
	StagePoll        Stage = "poll"
	StagePostProcess Stage = "post_process"
)

// Error wraps every failure leaving the orchestrator with the code taxonomy
// and the stage it happened in. Callers decide fallbacks from Code and
// Retryable; the orchestrator itself never re-routes a failed job.
type Error struct {
	Code  Code
	Stage Stage
	JobID string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("job %s failed at %s (%s): %v", e.JobID, e.Stage, e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether re-dispatching the same request can succeed. Only
// transport and availability failures qualify; anything the backend rejected
// on its merits would fail again with the same payload.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeLocalUnavailable, CodeChannelClosed, CodeSubmitFailed, CodePollTimeout:
		return true
	default:
		return false
	}
}

func newError(stage Stage, jobID string, err error) *Error {
	return &Error{Code: classify(err), Stage: stage, JobID: jobID, Err: err}
}

// classify maps driver errors onto the unified code taxonomy. Unknown errors
// land on CodeInternal rather than guessing.
func classify(err error) Code {
	var submitErr *fal.SubmitError

	switch {
	case templates.IsNotFound(err):
		return CodeTemplateNotFound
	case templates.IsCorrupt(err):
		return CodeTemplateCorrupt
	case comfyui.IsNotAvailable(err):
		return CodeLocalUnavailable
	case errors.Is(err, comfyui.ErrChannelClosed):
		return CodeChannelClosed
	case comfyui.IsExecutionError(err):
		return CodeExecutionFailed
	case errors.As(err, &submitErr):
		return CodeSubmitFailed
	case errors.Is(err, fal.ErrPollTimeout):
		return CodePollTimeout
	case fal.IsRemoteError(err):
		return CodeRemoteFailed
	case errors.Is(err, fal.ErrResponseParse):
		return CodeResponseParse
	case providers.IsProviderUnavailable(err):
		return CodeProviderUnavailable
	default:
		return CodeInternal
	}
}

// AsError unwraps err into the orchestrator error type.
func AsError(err error) (*Error, bool) {
	var jobErr *Error
	if errors.As(err, &jobErr) {
		return jobErr, true
	}

	return nil, false
}
