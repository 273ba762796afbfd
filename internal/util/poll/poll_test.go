package poll

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilAdditiveSchedule(t *testing.T) {
	var waits []time.Duration
	attempts := 0

	err := Until(func() (bool, error) {
		attempts++
		return false, nil
	}, WithSleep(func(d time.Duration) {
		waits = append(waits, d)
	}))

	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 5, attempts)
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		3 * time.Second,
		5 * time.Second,
		7 * time.Second,
		9 * time.Second,
	}, waits)
}

func TestUntilStopsWhenDone(t *testing.T) {
	attempts := 0

	err := Until(func() (bool, error) {
		attempts++
		return attempts == 3, nil
	}, WithSleep(func(time.Duration) {}))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestUntilPropagatesCheckError(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0

	err := Until(func() (bool, error) {
		attempts++
		return false, boom
	}, WithSleep(func(time.Duration) {}))

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestUntilCustomBudgetAndInterval(t *testing.T) {
	var waits []time.Duration

	err := Until(func() (bool, error) {
		return false, nil
	},
		WithMaxAttempts(2),
		WithInterval(10*time.Millisecond),
		WithSleep(func(d time.Duration) {
			waits = append(waits, d)
		}))

	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 30 * time.Millisecond}, waits)
}
