package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock(time.Time{})
	assert.Equal(t, Epoch, clock.Now())

	start := time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, start, NewManualClock(start).Now())
}

func TestManualClock_Advance(t *testing.T) {
	clock := NewManualClock(time.Time{})

	assert.Equal(t, Epoch.Add(time.Second), clock.Advance(time.Second))
	assert.Equal(t, Epoch.Add(time.Second), clock.Now(), "Now does not move the clock")
	clock.Advance(time.Minute)
	assert.Equal(t, Epoch.Add(time.Minute+time.Second), clock.Now())
}

func TestManualClock_Reset(t *testing.T) {
	clock := NewManualClock(time.Time{})
	clock.Advance(time.Hour)
	clock.Reset()
	assert.Equal(t, Epoch, clock.Now())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock(time.Time{})
	const numGoroutines = 100
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				clock.Advance(time.Millisecond)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, Epoch.Add(numGoroutines*callsPerGoroutine*time.Millisecond), clock.Now())
}

func TestSequentialIDs(t *testing.T) {
	a, b := NewSequentialIDs("x"), NewSequentialIDs("x")

	first, err := a.Next()
	require.NoError(t, err)
	second, err := a.Next()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	again, err := b.Next()
	require.NoError(t, err)
	assert.Equal(t, first, again, "same prefix and position give the same id")

	other, err := NewSequentialIDs("").Next()
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}
