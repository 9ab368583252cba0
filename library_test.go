package vlc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/vlc/internal/simvlc"
)

func TestLoadReturnsOneLibrary(t *testing.T) {
	a, errA := Load()
	b, errB := Load()
	if errA != nil {
		require.ErrorIs(t, errA, ErrNotLoaded)
		assert.Equal(t, errA, errB)
		return
	}
	require.NoError(t, errB)
	assert.Same(t, a, b)
	def, err := DefaultLibrary()
	require.NoError(t, err)
	assert.Same(t, a, def)
}

func TestOneTrampolinePerLibrary(t *testing.T) {
	sim := simvlc.NewWithOptions(simvlc.Options{
		StartDelay: 10 * time.Millisecond,
		Tick:       10 * time.Millisecond,
		Length:     300 * time.Millisecond,
	})
	t.Cleanup(sim.Close)
	api := sim.API()
	var made atomic.Int32
	newCallback := api.NewEventCallback
	api.NewEventCallback = func(fn func(event, userData uintptr)) uintptr {
		made.Add(1)
		return newCallback(fn)
	}
	lib := NewLibrary(api)

	for range 2 {
		s, err := lib.NewSession()
		require.NoError(t, err)
		t.Cleanup(s.Release)
		p, err := s.NewPlayer()
		require.NoError(t, err)
		t.Cleanup(p.Release)
		require.NoError(t, p.AddListener(&MediaPlayerListenerFuncs{}))
	}
	assert.Equal(t, int32(1), made.Load())
}
