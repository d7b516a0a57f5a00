package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/roach88/mant/internal/config"
)

func TestNewSampler_Fixed(t *testing.T) {
	s, err := NewSampler(config.Jitter{FixedMS: 1100}, rand.NewSource(1))
	require.NoError(t, err)
	for range 5 {
		assert.Equal(t, 1100*time.Millisecond, s.Sample())
	}
}

func TestNewSampler_Choice(t *testing.T) {
	choices := []int{300, 550, 800}
	s, err := NewSampler(config.Jitter{ChoicesMS: choices}, rand.NewSource(7))
	require.NoError(t, err)

	seen := map[time.Duration]bool{}
	for range 200 {
		d := s.Sample()
		assert.Contains(t, []time.Duration{300 * time.Millisecond, 550 * time.Millisecond, 800 * time.Millisecond}, d)
		seen[d] = true
	}
	assert.Len(t, seen, 3)
}

func TestNewSampler_Uniform(t *testing.T) {
	s, err := NewSampler(config.Jitter{MinMS: 500, MaxMS: 1000}, rand.NewSource(3))
	require.NoError(t, err)
	for range 200 {
		d := s.Sample()
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.LessOrEqual(t, d, 1000*time.Millisecond)
		assert.Equal(t, time.Duration(0), d%time.Millisecond)
	}
}

func TestNewSampler_InvertedRange(t *testing.T) {
	_, err := NewSampler(config.Jitter{MinMS: 900, MaxMS: 100}, rand.NewSource(1))
	require.Error(t, err)
}

func TestSchedule_SeedReproduces(t *testing.T) {
	cfg, err := config.Preset(config.Behavioural)
	require.NoError(t, err)

	draw := func() []Plan {
		s, err := NewSchedule(cfg.Timing, rand.NewSource(42))
		require.NoError(t, err)
		plans := make([]Plan, 10)
		for i := range plans {
			plans[i] = s.Next()
		}
		return plans
	}
	a, b := draw(), draw()
	assert.Equal(t, a, b)
	assert.Equal(t, 200*time.Millisecond, a[0].Cue)
	assert.Equal(t, 2*time.Second, a[0].Target)
	assert.Equal(t, time.Duration(0), a[0].MaxTrial)
}

func TestSchedule_EEG(t *testing.T) {
	cfg, err := config.Preset(config.EEG)
	require.NoError(t, err)
	s, err := NewSchedule(cfg.Timing, rand.NewSource(1))
	require.NoError(t, err)

	p := s.Next()
	assert.Equal(t, 1100*time.Millisecond, p.PostCueFixation)
	assert.Equal(t, 3600*time.Millisecond, p.MaxTrial)
	assert.GreaterOrEqual(t, p.InitialFixation, 500*time.Millisecond)
}
