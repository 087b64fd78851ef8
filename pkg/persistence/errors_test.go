package persistence_test

import (
	"errors"
	"testing"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error constants are available", func(t *testing.T) {
		assert.NotNil(t, persistence.ErrJobNotFound)
		assert.NotNil(t, persistence.ErrJobAlreadyExists)
		assert.NotNil(t, persistence.ErrInvalidJobStatus)
	})

	t.Run("error checking functions work correctly", func(t *testing.T) {
		notFoundErr := persistence.NewJobError("GetByID", "job-123", persistence.ErrJobNotFound)
		duplicateErr := persistence.NewJobError("Create", "job-456", persistence.ErrJobAlreadyExists)

		assert.True(t, persistence.IsJobNotFound(notFoundErr))
		assert.True(t, persistence.IsJobAlreadyExists(duplicateErr))

		// Test error unwrapping
		assert.True(t, errors.Is(notFoundErr, persistence.ErrJobNotFound))
		assert.True(t, errors.Is(duplicateErr, persistence.ErrJobAlreadyExists))
	})

	t.Run("job error contains context", func(t *testing.T) {
		err := persistence.NewJobError("UpdateStatus", "job-123", persistence.ErrJobNotFound)

		assert.Contains(t, err.Error(), "UpdateStatus")
		assert.Contains(t, err.Error(), "job-123")
		assert.Contains(t, err.Error(), "job not found")
	})
}
