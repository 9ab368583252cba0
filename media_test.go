package vlc

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaBasics(t *testing.T) {
	s, sim := newTestSession(t)
	clip := writeClip(t, "clip.mp4")

	m, err := s.NewMedia(clip)
	require.NoError(t, err)
	defer m.Release()
	assert.Same(t, s, m.Session())

	mrl, err := m.MRL()
	require.NoError(t, err)
	assert.Equal(t, clip, mrl)
	assert.Zero(t, sim.PendingStrings(), "returned string not freed")

	d, err := m.Duration()
	require.NoError(t, err)
	assert.Zero(t, d, "duration before parsing")
	parsed, err := m.IsPreparsed()
	require.NoError(t, err)
	assert.False(t, parsed)

	title, err := m.Meta(MetaTitle)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(clip), title)
	publisher, err := m.Meta(MetaPublisher)
	require.NoError(t, err)
	assert.Empty(t, publisher)

	d, err = m.Duration()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, d)
	parsed, err = m.IsPreparsed()
	require.NoError(t, err)
	assert.True(t, parsed)

	st, err := m.State()
	require.NoError(t, err)
	assert.Equal(t, StateNothingSpecial, st)
}

func TestMediaEmptyMRL(t *testing.T) {
	s, _ := newTestSession(t)
	_, err := s.NewMedia("")
	require.ErrorIs(t, err, ErrCreation)
	var nerr *NativeCallError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Can't create md with empty mrl", nerr.Message)
}

func TestMediaDuplicate(t *testing.T) {
	s, sim := newTestSession(t)
	m, err := s.NewMedia("http://example.com/live.ts")
	require.NoError(t, err)
	require.NoError(t, m.AddOption(":network-caching=300"))

	dup, err := m.Duplicate()
	require.NoError(t, err)
	m.Release()

	mrl, err := dup.MRL()
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/live.ts", mrl)
	dup.Release()
	assert.Equal(t, 2, sim.Releases("media"))
	assert.Zero(t, sim.Live("media"))
}

func TestMediaNodeSubItems(t *testing.T) {
	s, sim := newTestSession(t)
	node, err := s.NewMediaAsNode("podcasts")
	require.NoError(t, err)
	defer node.Release()

	var mu sync.Mutex
	var added int
	require.NoError(t, node.AddListener(&MediaListenerFuncs{
		OnSubItemAdded: func(*Media) {
			mu.Lock()
			added++
			mu.Unlock()
		},
	}))

	require.Equal(t, 1, sim.AddSubItem("podcasts", "http://example.com/ep1.mp3"))
	require.Equal(t, 1, sim.AddSubItem("podcasts", "http://example.com/ep2.mp3"))

	items, err := node.SubItems()
	require.NoError(t, err)
	require.NotNil(t, items)
	defer items.Release()
	n, err := items.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := items.Item(0)
	require.NoError(t, err)
	mrl, err := first.MRL()
	first.Release()
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/ep1.mp3", mrl)

	mu.Lock()
	assert.Equal(t, 2, added)
	mu.Unlock()
}

func TestMediaWithoutSubItems(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia("file:///tmp/none.mp4")
	require.NoError(t, err)
	defer m.Release()

	items, err := m.SubItems()
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestMediaListenerSeesParse(t *testing.T) {
	s, _ := newTestSession(t)
	m, err := s.NewMedia(writeClip(t, "song.mp4"))
	require.NoError(t, err)
	defer m.Release()

	var got []Event
	em, err := m.Events()
	require.NoError(t, err)
	for _, kind := range []EventKind{EventMediaPreparsedChanged, EventMediaDurationChanged, EventMediaMetaChanged} {
		_, err := em.Attach(kind, func(ev Event) { got = append(got, ev) })
		require.NoError(t, err)
	}

	_, err = m.Meta(MetaTitle)
	require.NoError(t, err)
	assert.Equal(t, []Event{
		MediaPreparsedChanged{Preparsed: true},
		MediaDurationChanged{Duration: 300 * time.Millisecond},
		MediaMetaChanged{Meta: MetaTitle},
	}, got)
}

func TestMediaUseAfterRelease(t *testing.T) {
	s, sim := newTestSession(t)
	m, err := s.NewMedia("file:///tmp/a.mp4")
	require.NoError(t, err)
	m.Release()
	assert.True(t, m.Released())
	calls := sim.Calls()

	_, err = m.MRL()
	require.ErrorIs(t, err, ErrReleased)
	require.ErrorIs(t, m.AddOption(":no-video"), ErrReleased)
	_, err = m.NewPlayer()
	require.ErrorIs(t, err, ErrReleased)
	_, err = m.Events()
	require.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, calls, sim.Calls())
}
