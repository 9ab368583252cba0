package vlc

import (
	"runtime"
	"sync"
	"weak"

	"go.uber.org/zap"

	"github.com/thesyncim/vlc/internal/native"
)

// MediaList is an ordered list of media. Adding a media whose MRL is
// already in the list is a no-op.
type MediaList struct {
	s         *Session
	h         *handle[native.MediaList]
	events    eventSource
	listeners listenerSet[MediaListListener]

	mu   sync.Mutex
	mrls map[string]struct{}
}

func newMediaList(s *Session, raw native.MediaList) *MediaList {
	lib := s.lib
	l := &MediaList{s: s, mrls: make(map[string]struct{})}
	l.h = newHandle("media list", raw, func(raw native.MediaList) {
		lib.exec(func() { lib.api.MediaListRelease(raw) })
	})
	runtime.SetFinalizer(l, (*MediaList).finalize)
	if err := l.seed(); err != nil {
		Logger().Warn("media list contents unknown; duplicates may be added", zap.Error(err))
	}
	return l
}

// seed records the MRLs of the items already in the native list, such as
// the sub-items of a parsed playlist.
func (l *MediaList) seed() error {
	n, err := l.Count()
	if err != nil {
		return err
	}
	for i := range n {
		item, err := l.Item(i)
		if err != nil {
			return err
		}
		mrl, err := item.MRL()
		item.Release()
		if err != nil {
			return err
		}
		l.mrls[mrl] = struct{}{}
	}
	return nil
}

// Session returns the session the list was created from.
func (l *MediaList) Session() *Session { return l.s }

// AddMedia appends m. It reports false, without touching the native list,
// when an item with the same MRL was already added.
func (l *MediaList) AddMedia(m *Media) (bool, error) {
	return l.insert(m, -1)
}

// InsertMedia inserts m at pos, with the same de-duplication as AddMedia.
func (l *MediaList) InsertMedia(m *Media, pos int) (bool, error) {
	return l.insert(m, pos)
}

// AddMRL creates a media for mrl and appends it.
func (l *MediaList) AddMRL(mrl string) (bool, error) {
	if l.Contains(mrl) {
		return false, nil
	}
	m, err := l.s.NewMedia(mrl)
	if err != nil {
		return false, err
	}
	defer m.Release()
	return l.AddMedia(m)
}

func (l *MediaList) insert(m *Media, pos int) (bool, error) {
	mrl, err := m.MRL()
	if err != nil {
		return false, err
	}
	media, err := m.h.acquire()
	if err != nil {
		return false, err
	}
	defer m.h.done()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.mrls[mrl]; ok {
		return false, nil
	}
	if pos < 0 {
		err = do(l.s.lib, l.h, "libvlc_media_list_add_media", func(raw native.MediaList, ex *native.Exception) {
			l.s.lib.api.MediaListAddMedia(raw, media, ex)
		})
	} else {
		err = do(l.s.lib, l.h, "libvlc_media_list_insert_media", func(raw native.MediaList, ex *native.Exception) {
			l.s.lib.api.MediaListInsertMedia(raw, media, int32(pos), ex)
		})
	}
	if err != nil {
		return false, err
	}
	l.mrls[mrl] = struct{}{}
	return true, nil
}

// RemoveIndex removes the item at pos.
func (l *MediaList) RemoveIndex(pos int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	item, err := l.Item(pos)
	if err != nil {
		return err
	}
	mrl, err := item.MRL()
	item.Release()
	if err != nil {
		return err
	}
	err = do(l.s.lib, l.h, "libvlc_media_list_remove_index", func(raw native.MediaList, ex *native.Exception) {
		l.s.lib.api.MediaListRemoveIndex(raw, int32(pos), ex)
	})
	if err != nil {
		return err
	}
	delete(l.mrls, mrl)
	return nil
}

func (l *MediaList) Count() (int, error) {
	n, err := get(l.s.lib, l.h, "libvlc_media_list_count", l.s.lib.api.MediaListCount)
	return int(n), err
}

// Item returns the media at pos. The caller releases it.
func (l *MediaList) Item(pos int) (*Media, error) {
	raw, err := get(l.s.lib, l.h, "libvlc_media_list_item_at_index", func(raw native.MediaList, ex *native.Exception) native.Media {
		return l.s.lib.api.MediaListItemAtIndex(raw, int32(pos), ex)
	})
	if err != nil {
		return nil, err
	}
	if raw == 0 {
		return nil, &CreationError{Kind: "media"}
	}
	return newMedia(l.s, raw), nil
}

// IndexOf returns the position of m, or -1.
func (l *MediaList) IndexOf(m *Media) (int, error) {
	media, err := m.h.acquire()
	if err != nil {
		return -1, err
	}
	defer m.h.done()
	i, err := get(l.s.lib, l.h, "libvlc_media_list_index_of_item", func(raw native.MediaList, ex *native.Exception) int32 {
		return l.s.lib.api.MediaListIndexOfItem(raw, media, ex)
	})
	if err != nil {
		return -1, err
	}
	return int(i), nil
}

// Contains reports whether an item with mrl was in the list when the
// wrapper was created or has been added through it since.
func (l *MediaList) Contains(mrl string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.mrls[mrl]
	return ok
}

func (l *MediaList) IsReadOnly() (bool, error) {
	raw, err := l.h.acquire()
	if err != nil {
		return false, err
	}
	defer l.h.done()
	var ro int32
	l.s.lib.exec(func() { ro = l.s.lib.api.MediaListIsReadonly(raw) })
	return ro != 0, nil
}

// Events returns the list's event manager.
func (l *MediaList) Events() (*EventManager, error) {
	return l.events.manager("media list", func() (*EventManager, error) {
		raw, err := get(l.s.lib, l.h, "libvlc_media_list_event_manager", l.s.lib.api.MediaListEventManager)
		if err != nil {
			return nil, err
		}
		return newEventManager(l.s.lib, "media list", raw, l.h.pin), nil
	})
}

// AddListener attaches ml to every list event kind.
func (l *MediaList) AddListener(ml MediaListListener, opts ...AttachOption) error {
	em, err := l.Events()
	if err != nil {
		return err
	}
	wl := weak.Make(l)
	return l.listeners.add(em, ml, listEventKinds, func(ev Event) {
		l := wl.Value()
		if l == nil {
			return
		}
		switch ev := ev.(type) {
		case ListItemAdded:
			ml.ItemAdded(l, ev.Index)
		case ListWillAddItem:
			ml.WillAddItem(l, ev.Index)
		case ListItemDeleted:
			ml.ItemDeleted(l, ev.Index)
		case ListWillDeleteItem:
			ml.WillDeleteItem(l, ev.Index)
		}
	}, opts)
}

// RemoveListener detaches ml. Removing an unknown listener is a no-op.
func (l *MediaList) RemoveListener(ml MediaListListener) error {
	return l.listeners.remove(ml)
}

// Released reports whether Release has run.
func (l *MediaList) Released() bool { return l.h.isReleased() }

// Release detaches every handler, then releases the list. Calling Release
// again is a no-op.
func (l *MediaList) Release() {
	if l.h.isReleased() {
		return
	}
	l.events.close()
	if l.h.release() {
		runtime.SetFinalizer(l, nil)
	}
}

func (l *MediaList) finalize() {
	leaked("media list")
	l.Release()
}
