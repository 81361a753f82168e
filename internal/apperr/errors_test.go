package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := NewValidation("", map[string]string{"zipCode": "required", "city": "required"})
	assert.Equal(t, "validation failed: city: required, zipCode: required", err.Error())
	assert.Equal(t, "validation_failed", err.MessageID)
}

func TestPersistenceUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("place order: %w", Persistence("insert order", cause))

	var pe *PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "insert order", pe.Op)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Persistence("noop", nil))
}

func TestInsufficientStockNamesProduct(t *testing.T) {
	err := &InsufficientStockError{ProductID: "p-1", ProductName: "Mug", Requested: 2, Available: 1}
	assert.Contains(t, err.Error(), "p-1")
	assert.Contains(t, err.Error(), "Mug")
}
