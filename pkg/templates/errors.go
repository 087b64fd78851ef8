// Package templates provides the read-only workflow template store and the
// instantiator that turns a template plus a generation request into a
// validated workflow payload.
package templates

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound indicates no template exists for the given id.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateCorrupt indicates a template rendered into an invalid
	// graph. This is an authoring-bug signal, distinct from a bad request,
	// and is never retryable.
	ErrTemplateCorrupt = errors.New("template corrupt")
)

// TemplateError wraps template-related errors with operation context.
type TemplateError struct {
	Op         string // Operation being performed (e.g., "Get", "Instantiate")
	TemplateID string
	Err        error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s failed for template %s: %v", e.Op, e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for template errors.
func (e *TemplateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNotFound checks whether an error indicates a missing template.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsCorrupt checks whether an error indicates a corrupt template.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrTemplateCorrupt)
}
