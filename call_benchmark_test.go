package vlc

import (
	"testing"

	"github.com/thesyncim/vlc/internal/simvlc"
)

// BenchmarkCallOverhead measures what the exception round trip and the
// handle bookkeeping add to a native call.
func BenchmarkCallOverhead(b *testing.B) {
	sim := simvlc.New()
	defer sim.Close()
	s, err := NewLibrary(sim.API()).NewSession()
	if err != nil {
		b.Fatal(err)
	}
	defer s.Release()

	b.Run("Version", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = s.Version()
		}
	})

	b.Run("GetVolume", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := s.Audio().Volume(); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("CreateRelease", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			m, err := s.NewMedia("sim://bench")
			if err != nil {
				b.Fatal(err)
			}
			m.Release()
		}
	})

	b.Run("Dispatch", func(b *testing.B) {
		p, err := s.NewPlayer()
		if err != nil {
			b.Fatal(err)
		}
		defer p.Release()
		var n int
		if err := p.AddListener(&MediaPlayerListenerFuncs{
			OnPositionChanged: func(*Player, float32) { n++ },
		}); err != nil {
			b.Fatal(err)
		}
		kind := int32(EventPlayerPositionChanged)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			sim.Emit(kind, nil)
		}
		b.StopTimer()
		if n != b.N {
			b.Fatalf("delivered %d of %d events", n, b.N)
		}
	})
}

// BenchmarkLibvlcCallOverhead is the same measurement against the
// installed libvlc.
func BenchmarkLibvlcCallOverhead(b *testing.B) {
	lib, err := DefaultLibrary()
	if err != nil {
		b.Skip("libvlc not available:", err)
	}
	s, err := lib.NewSession("--quiet")
	if err != nil {
		b.Fatal(err)
	}
	defer s.Release()

	b.Run("GetVolume", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = s.Audio().Volume()
		}
	})
}
