package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Clone(ErrNotLoaded, "no sessions"))
	got := FromError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrNotLoaded.Code, got.Code)
	assert.Equal(t, http.StatusServiceUnavailable, got.Status)
	assert.Equal(t, "no sessions", got.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, "internal server error: boom", got.Error())
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrValidation, "bad index")
	assert.Equal(t, "bad index", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestWrapUnwraps(t *testing.T) {
	err := Wrap(ErrCacheMiss, ErrInternal.Code, ErrInternal.Status, "cache")
	assert.True(t, errors.Is(err, ErrCacheMiss))
}
