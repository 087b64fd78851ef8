package comfyui

import (
	"errors"
	"fmt"
)

var (
	// ErrLocalNotAvailable is returned when the local engine does not answer
	// the readiness probe. Execute never starts the engine on its own.
	ErrLocalNotAvailable = errors.New("local engine is not available")
	// ErrChannelClosed is returned when the event channel drops while a job
	// is still in flight, leaving the job outcome unknown.
	ErrChannelClosed = errors.New("event channel closed before job completion")
	// ErrStartTimeout is returned when the engine process does not become
	// ready within the configured startup window.
	ErrStartTimeout = errors.New("engine did not become ready in time")
)

// ExecutionError reports a failure raised by the engine for a specific graph
// node. It is terminal for the job and not retryable on the same payload.
type ExecutionError struct {
	PromptID      string
	NodeID        string
	NodeType      string
	ExceptionType string
	Message       string
}

func (e *ExecutionError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("workflow execution failed: %s", e.Message)
	}

	return fmt.Sprintf("workflow execution failed at node %s (%s): %s", e.NodeID, e.NodeType, e.Message)
}

// IsExecutionError checks if the error is an engine-side execution failure.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError

	return errors.As(err, &execErr)
}

// IsNotAvailable checks if the error means the local engine was unreachable.
func IsNotAvailable(err error) bool {
	return errors.Is(err, ErrLocalNotAvailable)
}
