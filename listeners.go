package vlc

import (
	"errors"
	"sync"
	"time"
)

// MediaPlayerListener receives player events. Attach it with
// Player.AddListener.
type MediaPlayerListener interface {
	NothingSpecial(p *Player)
	Opening(p *Player)
	Buffering(p *Player)
	Playing(p *Player)
	Paused(p *Player)
	Stopped(p *Player)
	Forward(p *Player)
	Backward(p *Player)
	EndReached(p *Player)
	EncounteredError(p *Player)
	TimeChanged(p *Player, t time.Duration)
	PositionChanged(p *Player, pos float32)
	SeekableChanged(p *Player, seekable bool)
	PausableChanged(p *Player, pausable bool)
}

// MediaListener receives media events.
type MediaListener interface {
	MetaChanged(m *Media, meta MetaType)
	SubItemAdded(m *Media)
	DurationChanged(m *Media, d time.Duration)
	PreparsedChanged(m *Media, preparsed bool)
	Freed(m *Media)
	StateChanged(m *Media, s State)
}

// MediaListListener receives media list events.
type MediaListListener interface {
	ItemAdded(l *MediaList, index int)
	WillAddItem(l *MediaList, index int)
	ItemDeleted(l *MediaList, index int)
	WillDeleteItem(l *MediaList, index int)
}

// MediaPlayerListenerFuncs implements MediaPlayerListener with optional
// funcs. Pass it by pointer so that RemoveListener can find it.
type MediaPlayerListenerFuncs struct {
	OnNothingSpecial   func(p *Player)
	OnOpening          func(p *Player)
	OnBuffering        func(p *Player)
	OnPlaying          func(p *Player)
	OnPaused           func(p *Player)
	OnStopped          func(p *Player)
	OnForward          func(p *Player)
	OnBackward         func(p *Player)
	OnEndReached       func(p *Player)
	OnEncounteredError func(p *Player)
	OnTimeChanged      func(p *Player, t time.Duration)
	OnPositionChanged  func(p *Player, pos float32)
	OnSeekableChanged  func(p *Player, seekable bool)
	OnPausableChanged  func(p *Player, pausable bool)
}

func (f *MediaPlayerListenerFuncs) NothingSpecial(p *Player) {
	if f.OnNothingSpecial != nil {
		f.OnNothingSpecial(p)
	}
}

func (f *MediaPlayerListenerFuncs) Opening(p *Player) {
	if f.OnOpening != nil {
		f.OnOpening(p)
	}
}

func (f *MediaPlayerListenerFuncs) Buffering(p *Player) {
	if f.OnBuffering != nil {
		f.OnBuffering(p)
	}
}

func (f *MediaPlayerListenerFuncs) Playing(p *Player) {
	if f.OnPlaying != nil {
		f.OnPlaying(p)
	}
}

func (f *MediaPlayerListenerFuncs) Paused(p *Player) {
	if f.OnPaused != nil {
		f.OnPaused(p)
	}
}

func (f *MediaPlayerListenerFuncs) Stopped(p *Player) {
	if f.OnStopped != nil {
		f.OnStopped(p)
	}
}

func (f *MediaPlayerListenerFuncs) Forward(p *Player) {
	if f.OnForward != nil {
		f.OnForward(p)
	}
}

func (f *MediaPlayerListenerFuncs) Backward(p *Player) {
	if f.OnBackward != nil {
		f.OnBackward(p)
	}
}

func (f *MediaPlayerListenerFuncs) EndReached(p *Player) {
	if f.OnEndReached != nil {
		f.OnEndReached(p)
	}
}

func (f *MediaPlayerListenerFuncs) EncounteredError(p *Player) {
	if f.OnEncounteredError != nil {
		f.OnEncounteredError(p)
	}
}

func (f *MediaPlayerListenerFuncs) TimeChanged(p *Player, t time.Duration) {
	if f.OnTimeChanged != nil {
		f.OnTimeChanged(p, t)
	}
}

func (f *MediaPlayerListenerFuncs) PositionChanged(p *Player, pos float32) {
	if f.OnPositionChanged != nil {
		f.OnPositionChanged(p, pos)
	}
}

func (f *MediaPlayerListenerFuncs) SeekableChanged(p *Player, seekable bool) {
	if f.OnSeekableChanged != nil {
		f.OnSeekableChanged(p, seekable)
	}
}

func (f *MediaPlayerListenerFuncs) PausableChanged(p *Player, pausable bool) {
	if f.OnPausableChanged != nil {
		f.OnPausableChanged(p, pausable)
	}
}

// MediaListenerFuncs implements MediaListener with optional funcs.
type MediaListenerFuncs struct {
	OnMetaChanged      func(m *Media, meta MetaType)
	OnSubItemAdded     func(m *Media)
	OnDurationChanged  func(m *Media, d time.Duration)
	OnPreparsedChanged func(m *Media, preparsed bool)
	OnFreed            func(m *Media)
	OnStateChanged     func(m *Media, s State)
}

func (f *MediaListenerFuncs) MetaChanged(m *Media, meta MetaType) {
	if f.OnMetaChanged != nil {
		f.OnMetaChanged(m, meta)
	}
}

func (f *MediaListenerFuncs) SubItemAdded(m *Media) {
	if f.OnSubItemAdded != nil {
		f.OnSubItemAdded(m)
	}
}

func (f *MediaListenerFuncs) DurationChanged(m *Media, d time.Duration) {
	if f.OnDurationChanged != nil {
		f.OnDurationChanged(m, d)
	}
}

func (f *MediaListenerFuncs) PreparsedChanged(m *Media, preparsed bool) {
	if f.OnPreparsedChanged != nil {
		f.OnPreparsedChanged(m, preparsed)
	}
}

func (f *MediaListenerFuncs) Freed(m *Media) {
	if f.OnFreed != nil {
		f.OnFreed(m)
	}
}

func (f *MediaListenerFuncs) StateChanged(m *Media, s State) {
	if f.OnStateChanged != nil {
		f.OnStateChanged(m, s)
	}
}

// MediaListListenerFuncs implements MediaListListener with optional funcs.
type MediaListListenerFuncs struct {
	OnItemAdded      func(l *MediaList, index int)
	OnWillAddItem    func(l *MediaList, index int)
	OnItemDeleted    func(l *MediaList, index int)
	OnWillDeleteItem func(l *MediaList, index int)
}

func (f *MediaListListenerFuncs) ItemAdded(l *MediaList, index int) {
	if f.OnItemAdded != nil {
		f.OnItemAdded(l, index)
	}
}

func (f *MediaListListenerFuncs) WillAddItem(l *MediaList, index int) {
	if f.OnWillAddItem != nil {
		f.OnWillAddItem(l, index)
	}
}

func (f *MediaListListenerFuncs) ItemDeleted(l *MediaList, index int) {
	if f.OnItemDeleted != nil {
		f.OnItemDeleted(l, index)
	}
}

func (f *MediaListListenerFuncs) WillDeleteItem(l *MediaList, index int) {
	if f.OnWillDeleteItem != nil {
		f.OnWillDeleteItem(l, index)
	}
}

// eventSource lazily opens the event manager of its owner and closes it
// before the owner's handle goes away.
type eventSource struct {
	mu     sync.Mutex
	em     *EventManager
	closed bool
}

func (s *eventSource) manager(owner string, open func() (*EventManager, error)) (*EventManager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &UseAfterReleaseError{Kind: owner}
	}
	if s.em != nil {
		return s.em, nil
	}
	em, err := open()
	if err != nil {
		return nil, err
	}
	s.em = em
	return em, nil
}

func (s *eventSource) close() {
	s.mu.Lock()
	em := s.em
	s.closed = true
	s.mu.Unlock()
	if em != nil {
		em.close()
	}
}

// listenerSet tracks the registrations made on behalf of each listener.
type listenerSet[L comparable] struct {
	mu   sync.Mutex
	regs map[L][]*Registration
}

func (s *listenerSet[L]) add(em *EventManager, l L, kinds []EventKind, handler func(Event), opts []AttachOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regs == nil {
		s.regs = make(map[L][]*Registration)
	}
	attached := make([]*Registration, 0, len(kinds))
	for _, kind := range kinds {
		r, err := em.Attach(kind, handler, opts...)
		if err != nil {
			for _, r := range attached {
				_ = r.Detach()
			}
			return err
		}
		attached = append(attached, r)
	}
	s.regs[l] = append(s.regs[l], attached...)
	return nil
}

// remove detaches everything attached for l. Unknown listeners are a
// no-op.
func (s *listenerSet[L]) remove(l L) error {
	s.mu.Lock()
	regs, ok := s.regs[l]
	delete(s.regs, l)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	var errs []error
	for _, r := range regs {
		errs = append(errs, r.Detach())
	}
	return errors.Join(errs...)
}

func (s *listenerSet[L]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regs)
}
