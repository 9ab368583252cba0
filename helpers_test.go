package vlc

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thesyncim/vlc/internal/simvlc"
)

// newTestLibrary returns a Library backed by a fast simulator.
func newTestLibrary(t *testing.T) (*Library, *simvlc.Sim) {
	t.Helper()
	sim := simvlc.NewWithOptions(simvlc.Options{
		StartDelay: 10 * time.Millisecond,
		Tick:       10 * time.Millisecond,
		Length:     300 * time.Millisecond,
	})
	t.Cleanup(func() {
		sim.Close()
		require.Empty(t, sim.Violations(), "native misuse")
	})
	return NewLibrary(sim.API()), sim
}

func newTestSession(t *testing.T, args ...string) (*Session, *simvlc.Sim) {
	t.Helper()
	lib, sim := newTestLibrary(t)
	s, err := lib.NewSession(args...)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s, sim
}

// writeClip creates a local file the simulator treats as playable video.
func writeClip(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("not really a movie"), 0o644))
	return path
}
