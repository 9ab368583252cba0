package vlc

import (
	"errors"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/vlc/internal/native"
)

// captureDispatchErrors routes dispatch errors into a channel for the
// duration of the test.
func captureDispatchErrors(t *testing.T) <-chan error {
	t.Helper()
	errs := make(chan error, 16)
	SetDispatchErrorHandler(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	t.Cleanup(func() { SetDispatchErrorHandler(nil) })
	return errs
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		kind EventKind
		fill func(*native.RawEvent)
		want Event
	}{
		{"meta", EventMediaMetaChanged, func(e *native.RawEvent) { e.SetInt32(0, int32(MetaArtist)) }, MediaMetaChanged{Meta: MetaArtist}},
		{"duration", EventMediaDurationChanged, func(e *native.RawEvent) { e.SetInt64(0, 1500) }, MediaDurationChanged{Duration: 1500 * time.Millisecond}},
		{"preparsed", EventMediaPreparsedChanged, func(e *native.RawEvent) { e.SetInt32(0, 1) }, MediaPreparsedChanged{Preparsed: true}},
		{"media state", EventMediaStateChanged, func(e *native.RawEvent) { e.SetInt32(0, int32(StateEnded)) }, MediaStateChanged{State: StateEnded}},
		{"freed", EventMediaFreed, nil, MediaFreed{}},
		{"playing", EventPlayerPlaying, nil, PlayerPlaying{}},
		{"end reached", EventPlayerEndReached, nil, PlayerEndReached{}},
		{"time", EventPlayerTimeChanged, func(e *native.RawEvent) { e.SetInt64(0, 250) }, PlayerTimeChanged{Time: 250 * time.Millisecond}},
		{"position", EventPlayerPositionChanged, func(e *native.RawEvent) { e.SetFloat32(0, 0.5) }, PlayerPositionChanged{Position: 0.5}},
		{"seekable", EventPlayerSeekableChanged, func(e *native.RawEvent) { e.SetInt32(0, 1) }, PlayerSeekableChanged{Seekable: true}},
		{"pausable", EventPlayerPausableChanged, func(e *native.RawEvent) { e.SetInt32(0, 0) }, PlayerPausableChanged{}},
		{"item added", EventListItemAdded, func(e *native.RawEvent) {
			e.SetPointer(0, 0x1234)
			e.SetInt32(native.ListIndexOffset, 3)
		}, ListItemAdded{Index: 3}},
		{"will delete", EventListWillDeleteItem, func(e *native.RawEvent) {
			e.SetPointer(0, 0x1234)
			e.SetInt32(native.ListIndexOffset, 7)
		}, ListWillDeleteItem{Index: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &native.RawEvent{Type: int32(tt.kind)}
			if tt.fill != nil {
				tt.fill(raw)
			}
			ev, err := decodeEvent(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
			assert.Equal(t, tt.kind, ev.Kind())
		})
	}
}

func TestDecodeUnsupportedEvent(t *testing.T) {
	for _, kind := range []int32{-1, int32(eventKindCount), 0x100} {
		_, err := decodeEvent(&native.RawEvent{Type: kind})
		require.ErrorIs(t, err, ErrUnsupportedEvent)
	}
}

// heldEvent keeps hand-built events on the heap while native code would
// read them.
var heldEvent *native.RawEvent

func TestDispatchReportsUnsupportedKind(t *testing.T) {
	s, _ := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	em, err := p.Events()
	require.NoError(t, err)

	var calls int
	r, err := em.Attach(EventPlayerPlaying, func(Event) { calls++ })
	require.NoError(t, err)

	errs := captureDispatchErrors(t)
	heldEvent = &native.RawEvent{Type: 99}
	dispatch(uintptr(unsafe.Pointer(heldEvent)), r.id)

	select {
	case err := <-errs:
		var uerr *UnsupportedEventError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, EventKind(99), uerr.Kind)
	default:
		t.Fatal("no dispatch error reported")
	}
	assert.Zero(t, calls)
}

func TestDispatchUnknownRegistrationIgnored(t *testing.T) {
	errs := captureDispatchErrors(t)
	heldEvent = &native.RawEvent{Type: int32(EventPlayerPlaying)}
	dispatch(uintptr(unsafe.Pointer(heldEvent)), ^uintptr(0))
	assert.Empty(t, errs)
}

func TestAttachRejectsBadInput(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	em, err := p.Events()
	require.NoError(t, err)

	_, err = em.Attach(EventKind(42), func(Event) {})
	require.ErrorIs(t, err, ErrUnsupportedEvent)
	_, err = em.Attach(EventPlayerPlaying, nil)
	require.Error(t, err)
	assert.Zero(t, sim.Attached())
}

func TestListenerPanicIsRecovered(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	em, err := p.Events()
	require.NoError(t, err)

	_, err = em.Attach(EventPlayerPaused, func(Event) { panic("boom") })
	require.NoError(t, err)
	var after int
	_, err = em.Attach(EventPlayerPaused, func(Event) { after++ })
	require.NoError(t, err)

	errs := captureDispatchErrors(t)
	require.Equal(t, 2, sim.Emit(int32(EventPlayerPaused), nil))

	err = <-errs
	var perr *ListenerPanicError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, EventPlayerPaused, perr.Kind)
	assert.Equal(t, "boom", perr.Value)
	assert.Equal(t, 1, after)
}

func TestDetachIsIdempotent(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	em, err := p.Events()
	require.NoError(t, err)

	var calls int
	r, err := em.Attach(EventPlayerStopped, func(Event) { calls++ })
	require.NoError(t, err)
	require.Equal(t, 1, sim.Attached())

	require.NoError(t, r.Detach())
	require.NoError(t, r.Detach())
	require.NoError(t, em.Detach(nil))
	assert.False(t, r.Active())
	assert.Zero(t, em.Len())
	assert.Zero(t, sim.Attached())

	assert.Zero(t, sim.Emit(int32(EventPlayerStopped), nil))
	assert.Zero(t, calls)

	// A registration from another manager is not ours to detach.
	other, err := s.NewPlayer()
	require.NoError(t, err)
	defer other.Release()
	oem, err := other.Events()
	require.NoError(t, err)
	r2, err := oem.Attach(EventPlayerStopped, func(Event) {})
	require.NoError(t, err)
	require.NoError(t, em.Detach(r2))
	assert.True(t, r2.Active())
}

func TestAsyncPreservesOrder(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	em, err := p.Events()
	require.NoError(t, err)

	got := make(chan time.Duration, 32)
	_, err = em.Attach(EventPlayerTimeChanged, func(ev Event) {
		got <- ev.(PlayerTimeChanged).Time
	}, Async(32))
	require.NoError(t, err)

	for i := range 10 {
		sim.Emit(int32(EventPlayerTimeChanged), func(e *native.RawEvent) { e.SetInt64(0, int64(i)) })
	}
	for i := range 10 {
		select {
		case d := <-got:
			require.Equal(t, time.Duration(i)*time.Millisecond, d)
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestAsyncQueueFull(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	em, err := p.Events()
	require.NoError(t, err)

	started := make(chan struct{}, 4)
	unblock := make(chan struct{})
	_, err = em.Attach(EventPlayerBuffering, func(Event) {
		started <- struct{}{}
		<-unblock
	}, Async(1))
	require.NoError(t, err)
	errs := captureDispatchErrors(t)

	sim.Emit(int32(EventPlayerBuffering), nil)
	<-started
	sim.Emit(int32(EventPlayerBuffering), nil) // fills the queue
	sim.Emit(int32(EventPlayerBuffering), nil) // dropped

	select {
	case err := <-errs:
		require.ErrorIs(t, err, ErrEventQueueFull)
	case <-time.After(time.Second):
		t.Fatal("queue overflow not reported")
	}
	close(unblock)
}

func TestReleaseDetachesEverything(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)

	require.NoError(t, p.AddListener(&MediaPlayerListenerFuncs{}))
	require.Equal(t, len(playerEventKinds), sim.Attached())

	em, err := p.Events()
	require.NoError(t, err)
	p.Release()
	assert.Zero(t, sim.Attached())

	_, err = em.Attach(EventPlayerPlaying, func(Event) {})
	require.ErrorIs(t, err, ErrReleased)
	_, err = p.Events()
	require.ErrorIs(t, err, ErrReleased)
}

func TestRemoveListener(t *testing.T) {
	s, sim := newTestSession(t)
	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()

	var mu sync.Mutex
	var stopped int
	l := &MediaPlayerListenerFuncs{OnStopped: func(*Player) {
		mu.Lock()
		stopped++
		mu.Unlock()
	}}
	require.NoError(t, p.AddListener(l))
	require.NoError(t, p.RemoveListener(&MediaPlayerListenerFuncs{}))
	require.Equal(t, len(playerEventKinds), sim.Attached())

	sim.Emit(int32(EventPlayerStopped), nil)
	require.NoError(t, p.RemoveListener(l))
	require.NoError(t, p.RemoveListener(l))
	sim.Emit(int32(EventPlayerStopped), nil)

	assert.Zero(t, sim.Attached())
	mu.Lock()
	assert.Equal(t, 1, stopped)
	mu.Unlock()
}

func TestAttachFailureRollsBack(t *testing.T) {
	s, sim := newTestSession(t)
	l, err := s.NewMediaList()
	require.NoError(t, err)
	defer l.Release()

	_, err = l.Events()
	require.NoError(t, err)
	sim.FailNext("libvlc_event_attach", "no more room")
	err = l.AddListener(&MediaListListenerFuncs{})
	var nerr *NativeCallError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "no more room", nerr.Message)
	assert.Zero(t, sim.Attached())
	assert.True(t, errors.Is(err, ErrNativeCall))
}
