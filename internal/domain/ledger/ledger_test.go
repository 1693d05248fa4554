package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourhub/service-booking/internal/platform/domain"
)

func newEntry(t *testing.T, max int) *Entry {
	t.Helper()
	e, err := NewEntry(uuid.New(), max, true)
	require.NoError(t, err)
	return e
}

func TestNewEntry_Validation(t *testing.T) {
	_, err := NewEntry(uuid.Nil, 5, true)
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = NewEntry(uuid.New(), 0, true)
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestEntry_TryReserve(t *testing.T) {
	e := newEntry(t, 5)

	require.NoError(t, e.TryReserve(3))
	assert.Equal(t, 3, e.ReservedCount())
	assert.Equal(t, 2, e.Available())

	err := e.TryReserve(3)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, CodeInsufficientCapacity))
	available, ok := AvailableFrom(err)
	require.True(t, ok)
	assert.Equal(t, 2, available)
	assert.Equal(t, 3, e.ReservedCount(), "rejected reservation must not change the count")

	require.NoError(t, e.TryReserve(2))
	assert.Equal(t, 0, e.Available())
}

func TestEntry_TryReserve_RejectsNonPositive(t *testing.T) {
	e := newEntry(t, 5)
	for _, n := range []int{0, -1} {
		err := e.TryReserve(n)
		assert.True(t, domain.IsKind(err, domain.KindValidation))
	}
	assert.Equal(t, 0, e.ReservedCount())
}

func TestEntry_TryReserve_Inactive(t *testing.T) {
	e := newEntry(t, 5)
	e.SetActive(false)

	err := e.TryReserve(1)
	assert.True(t, domain.HasCode(err, CodeTourInactive))
}

func TestEntry_Release(t *testing.T) {
	e := newEntry(t, 10)
	require.NoError(t, e.TryReserve(4))

	require.NoError(t, e.Release(4))
	assert.Equal(t, 0, e.ReservedCount())

	err := e.Release(1)
	assert.True(t, domain.IsKind(err, domain.KindInternal))
	assert.Equal(t, 0, e.ReservedCount())
}

func TestEntry_Resize(t *testing.T) {
	e := newEntry(t, 10)
	require.NoError(t, e.TryReserve(6))

	err := e.Resize(5)
	assert.True(t, domain.HasCode(err, CodeCapacityBelowReserved))
	assert.Equal(t, 10, e.MaxPeople())

	require.NoError(t, e.Resize(6))
	assert.Equal(t, 0, e.Available())
}

func TestEntry_Reconcile(t *testing.T) {
	e := ReconstructEntry(uuid.New(), 10, 7, true, 3, time.Now().UTC())

	drift, err := e.Reconcile(4)
	require.NoError(t, err)
	assert.Equal(t, -3, drift)
	assert.Equal(t, 4, e.ReservedCount())

	drift, err = e.Reconcile(4)
	require.NoError(t, err)
	assert.Zero(t, drift)

	_, err = e.Reconcile(11)
	assert.True(t, domain.IsKind(err, domain.KindInternal))
}
