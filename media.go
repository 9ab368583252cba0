package vlc

import (
	"runtime"
	"time"
	"weak"

	"github.com/thesyncim/vlc/internal/native"
)

// Media is one playable item: a file, a URL or a node holding sub-items.
type Media struct {
	s         *Session
	h         *handle[native.Media]
	events    eventSource
	listeners listenerSet[MediaListener]
}

func newMedia(s *Session, raw native.Media) *Media {
	lib := s.lib
	m := &Media{s: s}
	m.h = newHandle("media", raw, func(raw native.Media) {
		lib.exec(func() { lib.api.MediaRelease(raw) })
	})
	runtime.SetFinalizer(m, (*Media).finalize)
	return m
}

// Session returns the session the media was created from.
func (m *Media) Session() *Session { return m.s }

// MRL returns the media resource locator.
func (m *Media) MRL() (string, error) {
	return getString(m.s.lib, m.h, "libvlc_media_get_mrl", m.s.lib.api.MediaGetMrl)
}

// AddOption adds an input option, for example ":no-audio".
func (m *Media) AddOption(option string) error {
	return do(m.s.lib, m.h, "libvlc_media_add_option", func(raw native.Media, ex *native.Exception) {
		m.s.lib.api.MediaAddOption(raw, option, ex)
	})
}

// Duration is zero until the media has been parsed. libvlc reports an
// unknown duration as -1, which is returned as zero without an error.
func (m *Media) Duration() (time.Duration, error) {
	ms, err := get(m.s.lib, m.h, "libvlc_media_get_duration", m.s.lib.api.MediaGetDuration)
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond, err
}

func (m *Media) State() (State, error) {
	v, err := get(m.s.lib, m.h, "libvlc_media_get_state", m.s.lib.api.MediaGetState)
	return State(v), err
}

// Meta returns one metadata field, or "" when it is not set.
func (m *Media) Meta(meta MetaType) (string, error) {
	return getString(m.s.lib, m.h, "libvlc_media_get_meta", func(raw native.Media, ex *native.Exception) uintptr {
		return m.s.lib.api.MediaGetMeta(raw, int32(meta), ex)
	})
}

func (m *Media) IsPreparsed() (bool, error) {
	return getBool(m.s.lib, m.h, "libvlc_media_is_preparsed", m.s.lib.api.MediaIsPreparsed)
}

// SubItems returns the media's sub-items, or nil when it has none. The
// caller releases the returned list.
func (m *Media) SubItems() (*MediaList, error) {
	raw, err := get(m.s.lib, m.h, "libvlc_media_subitems", m.s.lib.api.MediaSubitems)
	if err != nil || raw == 0 {
		return nil, err
	}
	return newMediaList(m.s, raw), nil
}

// Duplicate returns an independent copy of the media and its options.
func (m *Media) Duplicate() (*Media, error) {
	src, err := m.h.acquire()
	if err != nil {
		return nil, err
	}
	defer m.h.done()
	var raw native.Media
	m.s.lib.exec(func() { raw = m.s.lib.api.MediaDuplicate(src) })
	if raw == 0 {
		return nil, &CreationError{Kind: "media"}
	}
	return newMedia(m.s, raw), nil
}

// NewPlayer creates a player with this media set.
func (m *Media) NewPlayer() (*Player, error) {
	src, err := m.h.acquire()
	if err != nil {
		return nil, err
	}
	defer m.h.done()
	raw, err := create(m.s.lib, "player", "libvlc_media_player_new_from_media", func(ex *native.Exception) native.Player {
		return m.s.lib.api.MediaPlayerNewFromMedia(src, ex)
	})
	if err != nil {
		return nil, err
	}
	return newPlayer(m.s, raw), nil
}

// Events returns the media's event manager.
func (m *Media) Events() (*EventManager, error) {
	return m.events.manager("media", func() (*EventManager, error) {
		raw, err := get(m.s.lib, m.h, "libvlc_media_event_manager", m.s.lib.api.MediaEventManager)
		if err != nil {
			return nil, err
		}
		return newEventManager(m.s.lib, "media", raw, m.h.pin), nil
	})
}

// AddListener attaches l to every media event kind.
func (m *Media) AddListener(l MediaListener, opts ...AttachOption) error {
	em, err := m.Events()
	if err != nil {
		return err
	}
	wm := weak.Make(m)
	return m.listeners.add(em, l, mediaEventKinds, func(ev Event) {
		m := wm.Value()
		if m == nil {
			return
		}
		switch ev := ev.(type) {
		case MediaMetaChanged:
			l.MetaChanged(m, ev.Meta)
		case MediaSubItemAdded:
			l.SubItemAdded(m)
		case MediaDurationChanged:
			l.DurationChanged(m, ev.Duration)
		case MediaPreparsedChanged:
			l.PreparsedChanged(m, ev.Preparsed)
		case MediaFreed:
			l.Freed(m)
		case MediaStateChanged:
			l.StateChanged(m, ev.State)
		}
	}, opts)
}

// RemoveListener detaches l. Removing an unknown listener is a no-op.
func (m *Media) RemoveListener(l MediaListener) error {
	return m.listeners.remove(l)
}

// Released reports whether Release has run.
func (m *Media) Released() bool { return m.h.isReleased() }

// Release detaches every handler, then releases the media. Calling
// Release again is a no-op.
func (m *Media) Release() {
	if m.h.isReleased() {
		return
	}
	m.events.close()
	if m.h.release() {
		runtime.SetFinalizer(m, nil)
	}
}

func (m *Media) finalize() {
	leaked("media")
	m.Release()
}
