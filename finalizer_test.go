package vlc

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// collectedWithin runs the collector until cond holds or the attempts run
// out.
func collectedWithin(cond func() bool) bool {
	for range 100 {
		runtime.GC()
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestLeakedWrappersAreFinalized(t *testing.T) {
	tests := []struct {
		name string
		kind string
		leak func(t *testing.T, s *Session)
	}{
		{"media", "media", func(t *testing.T, s *Session) {
			m, err := s.NewMedia(writeClip(t, "clip.mkv"))
			require.NoError(t, err)
			_, err = m.MRL()
			require.NoError(t, err)
		}},
		{"media with listener", "media", func(t *testing.T, s *Session) {
			m, err := s.NewMedia(writeClip(t, "clip.mkv"))
			require.NoError(t, err)
			require.NoError(t, m.AddListener(&MediaListenerFuncs{}))
		}},
		{"player with video and listener", "player", func(t *testing.T, s *Session) {
			p, err := s.NewPlayer()
			require.NoError(t, err)
			_, err = p.Video().Scale()
			require.ErrorIs(t, err, ErrNativeCall)
			require.NoError(t, p.AddListener(&MediaPlayerListenerFuncs{}, Async(4)))
		}},
		{"media list with listener", "media list", func(t *testing.T, s *Session) {
			l, err := s.NewMediaList()
			require.NoError(t, err)
			require.NoError(t, l.AddListener(&MediaListListenerFuncs{}))
		}},
		{"media list player", "media list player", func(t *testing.T, s *Session) {
			_, err := s.NewMediaListPlayer()
			require.NoError(t, err)
		}},
		{"log", "log", func(t *testing.T, s *Session) {
			_, err := s.OpenLog()
			require.NoError(t, err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sim := newTestSession(t)
			tt.leak(t, s)
			require.Equal(t, 1, sim.Live(tt.kind))

			ok := collectedWithin(func() bool { return sim.Live(tt.kind) == 0 })
			require.True(t, ok, "leaked %s still live", tt.kind)
		})
	}
}

func TestLeakedSessionIsFinalized(t *testing.T) {
	lib, sim := newTestLibrary(t)
	func() {
		s, err := lib.NewSession()
		require.NoError(t, err)
		require.NoError(t, s.Audio().SetVolume(80))
		_, err = s.VLM()
		require.NoError(t, err)
	}()
	require.Equal(t, 1, sim.Live("instance"))

	ok := collectedWithin(func() bool { return sim.Live("instance") == 0 })
	require.True(t, ok, "leaked session still live")
}
