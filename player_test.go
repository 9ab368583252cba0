package vlc

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects player callbacks. It never calls back into the
// player, so it can run synchronously on the native thread.
type recorder struct {
	MediaPlayerListenerFuncs

	mu     sync.Mutex
	seen   []string
	ticks  int
	ended  chan struct{}
	failed chan struct{}
}

func newRecorder() *recorder {
	r := &recorder{ended: make(chan struct{}), failed: make(chan struct{})}
	note := func(name string) func(*Player) {
		return func(*Player) {
			r.mu.Lock()
			r.seen = append(r.seen, name)
			r.mu.Unlock()
		}
	}
	r.OnOpening = note("opening")
	r.OnBuffering = note("buffering")
	r.OnPlaying = note("playing")
	r.OnPaused = note("paused")
	r.OnStopped = note("stopped")
	r.OnTimeChanged = func(*Player, time.Duration) {
		r.mu.Lock()
		r.ticks++
		r.mu.Unlock()
	}
	r.OnEndReached = func(*Player) {
		note("end")(nil)
		close(r.ended)
	}
	r.OnEncounteredError = func(*Player) {
		note("error")(nil)
		close(r.failed)
	}
	return r
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestPlayLocalFile(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia(writeClip(t, "movie.mp4"))
	require.NoError(t, err)
	defer m.Release()
	p, err := m.NewPlayer()
	require.NoError(t, err)
	defer p.Release()

	rec := newRecorder()
	require.NoError(t, p.AddListener(rec))
	require.NoError(t, p.Play())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.WaitForVideoOutput(ctx, 5*time.Millisecond))

	playing, err := p.IsPlaying()
	require.NoError(t, err)
	assert.True(t, playing)
	length, err := p.Length()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, length)
	seekable, err := p.IsSeekable()
	require.NoError(t, err)
	assert.True(t, seekable)

	w, err := p.Video().Width()
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	fps, err := p.FPS()
	require.NoError(t, err)
	assert.InDelta(t, 25, fps, 0.01)

	waitFor(t, rec.ended, "end of media")
	assert.Equal(t, []string{"opening", "buffering", "playing", "end"}, rec.events())
	rec.mu.Lock()
	assert.Positive(t, rec.ticks)
	rec.mu.Unlock()

	st, err := p.State()
	require.NoError(t, err)
	assert.Equal(t, StateEnded, st)
}

func TestPlayMissingFile(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia(filepath.Join(t.TempDir(), "gone.mp4"))
	require.NoError(t, err)
	defer m.Release()
	p, err := m.NewPlayer()
	require.NoError(t, err)
	defer p.Release()

	rec := newRecorder()
	require.NoError(t, p.AddListener(rec))
	require.NoError(t, p.Play())
	waitFor(t, rec.failed, "encountered error")

	st, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, StateError, st)
}

func TestWaitForVideoOutputTimesOut(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia(writeClip(t, "song.mp3"))
	require.NoError(t, err)
	defer m.Release()
	p, err := m.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	require.NoError(t, p.Play())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = p.WaitForVideoOutput(ctx, 10*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPlayerWithoutInput(t *testing.T) {
	s, _ := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()

	m, err := p.Media()
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = p.Time()
	var nerr *NativeCallError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "No active input", nerr.Message)
	length, err := p.Length()
	require.ErrorIs(t, err, ErrNativeCall)
	assert.Zero(t, length)

	has, err := p.HasVideoOutput()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = p.Video().Width()
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "No active video output", nerr.Message)

	err = p.Play()
	require.ErrorIs(t, err, ErrNativeCall)
}

func TestPlayerControls(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia(writeClip(t, "movie.mkv"))
	require.NoError(t, err)
	defer m.Release()
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()

	paused := make(chan struct{}, 1)
	require.NoError(t, p.AddListener(&MediaPlayerListenerFuncs{
		OnPaused: func(*Player) { paused <- struct{}{} },
	}))

	require.NoError(t, p.SetMedia(m))
	cur, err := p.Media()
	require.NoError(t, err)
	mrl, err := cur.MRL()
	cur.Release()
	require.NoError(t, err)
	want, _ := m.MRL()
	assert.Equal(t, want, mrl)

	require.NoError(t, p.Play())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.WaitForVideoOutput(ctx, 5*time.Millisecond))

	require.NoError(t, p.Pause())
	waitFor(t, paused, "pause")
	st, err := p.State()
	require.NoError(t, err)
	assert.Equal(t, StatePaused, st)

	require.NoError(t, p.SetPosition(0.5))
	pos, err := p.Position()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pos, 0.01)
	require.NoError(t, p.SetTime(30*time.Millisecond))
	tm, err := p.Time()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, tm)

	require.NoError(t, p.Video().SetAspectRatio("16:9"))
	ratio, err := p.Video().AspectRatio()
	require.NoError(t, err)
	assert.Equal(t, "16:9", ratio)

	require.NoError(t, p.SetXWindow(0x2a))
	xid, err := p.XWindow()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2a), xid)

	require.NoError(t, p.Stop())
	playing, err := p.IsPlaying()
	require.NoError(t, err)
	assert.False(t, playing)
}

func TestTakeSnapshot(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia(writeClip(t, "movie.mp4"))
	require.NoError(t, err)
	defer m.Release()
	p, err := m.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	require.NoError(t, p.Play())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.WaitForVideoOutput(ctx, 5*time.Millisecond))

	out := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, p.Video().TakeSnapshot(out, 32, 18))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Width)
	assert.Equal(t, 18, cfg.Height)
}

func TestPlayerUseAfterRelease(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	p.Release()
	calls := sim.Calls()

	require.ErrorIs(t, p.Play(), ErrReleased)
	_, err = p.Video().Width()
	require.ErrorIs(t, err, ErrReleased)
	require.ErrorIs(t, p.AddListener(&MediaPlayerListenerFuncs{}), ErrReleased)
	err = p.WaitForVideoOutput(context.Background(), 0)
	require.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, calls, sim.Calls())
}
