package vlc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listLog struct {
	mu  sync.Mutex
	got []string
}

func (l *listLog) listener() *MediaListListenerFuncs {
	note := func(name string) func(*MediaList, int) {
		return func(_ *MediaList, i int) {
			l.mu.Lock()
			l.got = append(l.got, name+":"+string(rune('0'+i)))
			l.mu.Unlock()
		}
	}
	return &MediaListListenerFuncs{
		OnWillAddItem:    note("will-add"),
		OnItemAdded:      note("added"),
		OnWillDeleteItem: note("will-delete"),
		OnItemDeleted:    note("deleted"),
	}
}

func (l *listLog) events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.got...)
}

func TestMediaListDeduplicatesByMRL(t *testing.T) {
	s, sim := newTestSession(t)
	l, err := s.NewMediaList()
	require.NoError(t, err)
	defer l.Release()

	a, err := s.NewMedia("http://example.com/a.ts")
	require.NoError(t, err)
	defer a.Release()
	again, err := s.NewMedia("http://example.com/a.ts")
	require.NoError(t, err)
	defer again.Release()

	added, err := l.AddMedia(a)
	require.NoError(t, err)
	assert.True(t, added)
	before := sim.OpCalls("libvlc_media_list_add_media")

	added, err = l.AddMedia(again)
	require.NoError(t, err)
	assert.False(t, added)
	added, err = l.AddMRL("http://example.com/a.ts")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, before, sim.OpCalls("libvlc_media_list_add_media"))

	n, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, l.Contains("http://example.com/a.ts"))
}

func TestMediaListEditing(t *testing.T) {
	s, _ := newTestSession(t)
	l, err := s.NewMediaList()
	require.NoError(t, err)
	defer l.Release()

	var log listLog
	require.NoError(t, l.AddListener(log.listener()))

	for _, mrl := range []string{"sim://one", "sim://three"} {
		added, err := l.AddMRL(mrl)
		require.NoError(t, err)
		require.True(t, added)
	}
	two, err := s.NewMedia("sim://two")
	require.NoError(t, err)
	defer two.Release()
	added, err := l.InsertMedia(two, 1)
	require.NoError(t, err)
	require.True(t, added)

	i, err := l.IndexOf(two)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	require.NoError(t, l.RemoveIndex(0))
	assert.False(t, l.Contains("sim://one"))
	n, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := l.Item(0)
	require.NoError(t, err)
	mrl, err := first.MRL()
	first.Release()
	require.NoError(t, err)
	assert.Equal(t, "sim://two", mrl)

	assert.Equal(t, []string{
		"will-add:0", "added:0",
		"will-add:1", "added:1",
		"will-add:1", "added:1",
		"will-delete:0", "deleted:0",
	}, log.events())

	err = l.RemoveIndex(5)
	require.ErrorIs(t, err, ErrNativeCall)
	ro, err := l.IsReadOnly()
	require.NoError(t, err)
	assert.False(t, ro)
}

func TestMediaListUseAfterRelease(t *testing.T) {
	s, sim := newTestSession(t)
	l, err := s.NewMediaList()
	require.NoError(t, err)
	m, err := s.NewMedia("sim://one")
	require.NoError(t, err)
	defer m.Release()
	l.Release()
	calls := sim.Calls()

	_, err = l.Count()
	require.ErrorIs(t, err, ErrReleased)
	_, err = l.AddMedia(m)
	require.ErrorIs(t, err, ErrReleased)
	// MRL of m was read before the list was found released.
	assert.Equal(t, calls+1, sim.Calls())
}

func TestMediaListPlayerAdvances(t *testing.T) {
	s, _ := newTestSession(t)
	l, err := s.NewMediaList()
	require.NoError(t, err)
	defer l.Release()
	for _, name := range []string{"a.mp4", "b.mp4"} {
		_, err := l.AddMRL(writeClip(t, name))
		require.NoError(t, err)
	}

	p, err := s.NewPlayer()
	require.NoError(t, err)
	defer p.Release()
	var mu sync.Mutex
	ends := 0
	done := make(chan struct{})
	require.NoError(t, p.AddListener(&MediaPlayerListenerFuncs{
		OnEndReached: func(*Player) {
			mu.Lock()
			defer mu.Unlock()
			ends++
			if ends == 2 {
				close(done)
			}
		},
	}))

	lp, err := s.NewMediaListPlayer()
	require.NoError(t, err)
	defer lp.Release()
	require.NoError(t, lp.SetMediaList(l))
	require.NoError(t, lp.SetMediaPlayer(p))
	assert.Same(t, l, lp.MediaList())
	assert.Same(t, p, lp.MediaPlayer())

	require.NoError(t, lp.Play())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.WaitForVideoOutput(ctx, 5*time.Millisecond))
	playing, err := lp.IsPlaying()
	require.NoError(t, err)
	assert.True(t, playing)

	waitFor(t, done, "both items to end")
	require.Error(t, lp.PlayItemAt(7))
	require.NoError(t, lp.Stop())
}

func TestSubItemListKnowsExistingItems(t *testing.T) {
	s, sim := newTestSession(t)
	node, err := s.NewMediaAsNode("radio")
	require.NoError(t, err)
	defer node.Release()
	require.Equal(t, 1, sim.AddSubItem("radio", "http://example.com/a.mp3"))
	require.Equal(t, 1, sim.AddSubItem("radio", "http://example.com/b.mp3"))

	items, err := node.SubItems()
	require.NoError(t, err)
	require.NotNil(t, items)
	defer items.Release()
	assert.True(t, items.Contains("http://example.com/a.mp3"))
	assert.True(t, items.Contains("http://example.com/b.mp3"))

	before := sim.OpCalls("libvlc_media_list_add_media")
	added, err := items.AddMRL("http://example.com/a.mp3")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, before, sim.OpCalls("libvlc_media_list_add_media"))

	added, err = items.AddMRL("http://example.com/c.mp3")
	require.NoError(t, err)
	assert.True(t, added)
	n, err := items.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
