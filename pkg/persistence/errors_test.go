package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "workflow:abc-123", ContextKey("abc-123"))
}

func TestStorageError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewStorageError("SaveContext", "wf-1", cause)

	assert.Contains(t, err.Error(), "SaveContext")
	assert.Contains(t, err.Error(), "wf-1")
	require.ErrorIs(t, err, cause)
	assert.True(t, IsStorageError(err))
	assert.True(t, IsStorageError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsStorageError(cause))
}

func TestIsContextNotFound(t *testing.T) {
	t.Parallel()

	assert.True(t, IsContextNotFound(ErrContextNotFound))
	assert.True(t, IsContextNotFound(fmt.Errorf("lookup: %w", ErrContextNotFound)))
	assert.True(t, IsContextNotFound(NewStorageError("ContextByID", "wf-1", ErrContextNotFound)))
	assert.False(t, IsContextNotFound(errors.New("other")))
}
