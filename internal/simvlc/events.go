package simvlc

import (
	"sync/atomic"
	"unsafe"

	"github.com/thesyncim/vlc/internal/native"
)

// Event kinds, numbered as in libvlc 1.0.
const (
	mediaMetaChanged int32 = iota
	mediaSubItemAdded
	mediaDurationChanged
	mediaPreparsedChanged
	mediaFreed
	mediaStateChanged

	playerNothingSpecial
	playerOpening
	playerBuffering
	playerPlaying
	playerPaused
	playerStopped
	playerForward
	playerBackward
	playerEndReached
	playerEncounteredError
	playerTimeChanged
	playerPositionChanged
	playerSeekableChanged
	playerPausableChanged

	listItemAdded
	listWillAddItem
	listItemDeleted
	listWillDeleteItem

	eventCount
)

var eventNames = [eventCount]string{
	"MediaMetaChanged", "MediaSubItemAdded", "MediaDurationChanged",
	"MediaPreparsedChanged", "MediaFreed", "MediaStateChanged",
	"MediaPlayerNothingSpecial", "MediaPlayerOpening", "MediaPlayerBuffering",
	"MediaPlayerPlaying", "MediaPlayerPaused", "MediaPlayerStopped",
	"MediaPlayerForward", "MediaPlayerBackward", "MediaPlayerEndReached",
	"MediaPlayerEncounteredError", "MediaPlayerTimeChanged",
	"MediaPlayerPositionChanged", "MediaPlayerSeekableChanged",
	"MediaPlayerPausableChanged",
	"MediaListItemAdded", "MediaListWillAddItem", "MediaListItemDeleted",
	"MediaListWillDeleteItem",
}

func eventTypeName(kind int32) string {
	if kind < 0 || kind >= eventCount {
		return "Unknown Event"
	}
	return eventNames[kind]
}

type registration struct {
	kind     int32
	cb       uintptr
	userData uintptr
}

type eventManager struct {
	owner uintptr
	regs  []registration
}

// delivery is one pending callback, collected under s.mu and run after it
// is released.
type delivery struct {
	fn       func(event, userData uintptr)
	userData uintptr
	event    *native.RawEvent
}

// escaped keeps event buffers on the heap: their address is handed to
// callbacks as a plain uintptr.
var escaped atomic.Pointer[native.RawEvent]

func (s *Sim) newEventManager(owner uintptr) native.EventManager {
	em := native.EventManager(s.handle())
	s.managers[em] = &eventManager{owner: owner}
	return em
}

func (s *Sim) eventAttach(em native.EventManager, kind int32, cb, userData uintptr, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_event_attach", ex) {
		return
	}
	m, ok := s.managers[em]
	if !ok {
		s.violate("libvlc_event_attach: unknown event manager %#x", em)
		s.raise(ex, "invalid event manager")
		return
	}
	if kind < 0 || kind >= eventCount {
		s.raise(ex, "unknown event type %d", kind)
		return
	}
	if _, ok := s.callbacks[cb]; !ok {
		s.violate("libvlc_event_attach: unknown callback %#x", cb)
	}
	m.regs = append(m.regs, registration{kind: kind, cb: cb, userData: userData})
}

func (s *Sim) eventDetach(em native.EventManager, kind int32, cb, userData uintptr, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_event_detach", ex) {
		return
	}
	m, ok := s.managers[em]
	if !ok {
		s.violate("libvlc_event_detach: unknown event manager %#x", em)
		s.raise(ex, "invalid event manager")
		return
	}
	for i, r := range m.regs {
		if r.kind == kind && r.cb == cb && r.userData == userData {
			m.regs = append(m.regs[:i], m.regs[i+1:]...)
			return
		}
	}
}

// collect builds the callbacks kind triggers on em. s.mu is held.
func (s *Sim) collect(em native.EventManager, kind int32, fill func(*native.RawEvent)) []delivery {
	m, ok := s.managers[em]
	if !ok {
		return nil
	}
	var out []delivery
	for _, r := range m.regs {
		if r.kind != kind {
			continue
		}
		fn := s.callbacks[r.cb]
		if fn == nil {
			continue
		}
		ev := &native.RawEvent{Type: kind, Obj: m.owner}
		if fill != nil {
			fill(ev)
		}
		escaped.Store(ev)
		out = append(out, delivery{fn: fn, userData: r.userData, event: ev})
	}
	return out
}

// run invokes collected callbacks. s.mu must not be held.
func run(ds []delivery) {
	for _, d := range ds {
		d.fn(uintptr(unsafe.Pointer(d.event)), d.userData)
	}
}

// Emit raises kind on every event manager with a callback attached for
// it and returns the number of callbacks run. fill sets the payload.
func (s *Sim) Emit(kind int32, fill func(*native.RawEvent)) int {
	s.mu.Lock()
	var ds []delivery
	for em := range s.managers {
		ds = append(ds, s.collect(em, kind, fill)...)
	}
	s.mu.Unlock()
	run(ds)
	return len(ds)
}

// Attached counts the callbacks attached across every event manager.
func (s *Sim) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.managers {
		n += len(m.regs)
	}
	return n
}
