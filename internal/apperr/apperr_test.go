package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/organizador/platform/internal/apperr"
)

func TestKindsSurviveWrapping(t *testing.T) {
	notFound := apperr.NotFound("category not found")
	wrapped := fmt.Errorf("load: %w", notFound)

	assert.True(t, errors.Is(wrapped, notFound))
	assert.True(t, errors.Is(wrapped, apperr.ErrNotFound))
	assert.False(t, errors.Is(wrapped, apperr.ErrInvalid))
	assert.Equal(t, "category not found", notFound.Error())
}

func TestRequired(t *testing.T) {
	err := apperr.Required("name")
	assert.EqualError(t, err, "name is required")
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestConflict(t *testing.T) {
	assert.ErrorIs(t, apperr.Conflict("dup"), apperr.ErrConflict)
}
