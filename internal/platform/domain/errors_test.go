package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNotFoundError_DerivesCode(t *testing.T) {
	err := NewNotFoundError("Tour", "42")
	assert.Equal(t, "TOUR_NOT_FOUND", err.Code)
	assert.Equal(t, KindNotFound, err.Kind)

	err = NewNotFoundError("Tour Category", "7")
	assert.Equal(t, "TOUR_CATEGORY_NOT_FOUND", err.Code)
}

func TestKindHelpers_SeeThroughWrapping(t *testing.T) {
	busy := NewTransientError(CodeBusy, "tour is busy", errors.New("lock timeout"))
	wrapped := fmt.Errorf("create booking: %w", busy)

	assert.True(t, IsTransient(wrapped))
	assert.True(t, HasCode(wrapped, CodeBusy))
	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.False(t, IsTransient(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := NewConflictErrorWithCode("INSUFFICIENT_CAPACITY", "not enough slots").
		WithDetail("available", 6)
	assert.Equal(t, 6, err.Details["available"])
}

func TestNewPaginatedResult(t *testing.T) {
	result := NewPaginatedResult([]string{"a", "b"}, 21, 1, 10)
	assert.Equal(t, 3, result.TotalPages)

	empty := NewPaginatedResult[string](nil, 0, 1, 10)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
}
