// Package simvlc is an in-process stand-in for libvlc. It fills the same
// native.API table the purego loader fills, raises errors through the
// exception out-parameter and raises events from its own goroutines, so
// the binding can be exercised without the shared library.
package simvlc

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/thesyncim/vlc/internal/native"
)

// Version is what libvlc_get_version reports.
const Version = "1.0.6 Goldeneye (simulated)"

// Options tune the simulated playback clock.
type Options struct {
	// StartDelay is how long a player spends opening before it plays.
	StartDelay time.Duration
	// Tick is the interval of time and position events.
	Tick time.Duration
	// Length is the duration reported for media the simulator can play.
	Length time.Duration
}

// DefaultOptions plays a two second clip with 50ms ticks.
func DefaultOptions() Options {
	return Options{
		StartDelay: 20 * time.Millisecond,
		Tick:       50 * time.Millisecond,
		Length:     2 * time.Second,
	}
}

// Sim is one simulated libvlc. All methods are safe for concurrent use.
type Sim struct {
	opts Options

	mu   sync.Mutex
	next uintptr

	instances   map[native.Instance]*instance
	medias      map[native.Media]*media
	players     map[native.Player]*player
	lists       map[native.MediaList]*mediaList
	listPlayers map[native.MediaListPlayer]*listPlayer
	logs        map[native.Log]*logHandle
	iterators   map[native.LogIterator]*logIterator
	managers    map[native.EventManager]*eventManager

	// Heap strings handed out through exceptions and string returns.
	// They stay reachable here until cleared or freed.
	messages map[uintptr][]byte
	strs     map[uintptr][]byte

	callbacks map[uintptr]func(event, userData uintptr)
	nextCB    uintptr

	failures   map[string]string
	calls      atomic.Int64
	opCalls    map[string]int
	releases   map[string]int
	violations []string
	lastArgv   []string

	wg      sync.WaitGroup
	closing chan struct{}
	closed  bool
}

// New returns a simulator with DefaultOptions.
func New() *Sim {
	return NewWithOptions(DefaultOptions())
}

// NewWithOptions returns a simulator with the given clock.
func NewWithOptions(opts Options) *Sim {
	def := DefaultOptions()
	if opts.StartDelay <= 0 {
		opts.StartDelay = def.StartDelay
	}
	if opts.Tick <= 0 {
		opts.Tick = def.Tick
	}
	if opts.Length <= 0 {
		opts.Length = def.Length
	}
	return &Sim{
		opts:        opts,
		next:        0x1000,
		instances:   make(map[native.Instance]*instance),
		medias:      make(map[native.Media]*media),
		players:     make(map[native.Player]*player),
		lists:       make(map[native.MediaList]*mediaList),
		listPlayers: make(map[native.MediaListPlayer]*listPlayer),
		logs:        make(map[native.Log]*logHandle),
		iterators:   make(map[native.LogIterator]*logIterator),
		managers:    make(map[native.EventManager]*eventManager),
		messages:    make(map[uintptr][]byte),
		strs:        make(map[uintptr][]byte),
		callbacks:   make(map[uintptr]func(event, userData uintptr)),
		nextCB:      0x7f000000,
		failures:    make(map[string]string),
		opCalls:     make(map[string]int),
		releases:    make(map[string]int),
		closing:     make(chan struct{}),
	}
}

// Close stops every simulated playback and VLM stream and waits for their
// goroutines.
func (s *Sim) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.closing)
		for _, p := range s.players {
			p.gen++
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// FailNext makes the next call to op raise msg.
func (s *Sim) FailNext(op, msg string) {
	s.mu.Lock()
	s.failures[op] = msg
	s.mu.Unlock()
}

// Calls returns the number of entry-point calls made so far, exception
// management excluded.
func (s *Sim) Calls() int64 { return s.calls.Load() }

// OpCalls returns how often op was called.
func (s *Sim) OpCalls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opCalls[op]
}

// Releases returns how many release calls reached objects of kind:
// "instance", "media", "player", "media list", "media list player",
// "log", "log iterator" or "vlm".
func (s *Sim) Releases(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases[kind]
}

// Violations lists misuse the simulator detected: calls on freed handles,
// reused or uninitialized exceptions, double frees.
func (s *Sim) Violations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.violations...)
}

// LastArgv returns the argv of the most recent libvlc_new.
func (s *Sim) LastArgv() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lastArgv...)
}

// PendingStrings counts heap strings handed out and not yet freed.
func (s *Sim) PendingStrings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.strs) + len(s.messages)
}

// Live counts objects of kind that have not been released.
func (s *Sim) Live(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case "instance":
		return len(s.instances)
	case "media":
		return len(s.medias)
	case "player":
		return len(s.players)
	case "media list":
		return len(s.lists)
	case "media list player":
		return len(s.listPlayers)
	case "log":
		return len(s.logs)
	case "log iterator":
		return len(s.iterators)
	}
	return 0
}

func (s *Sim) handle() uintptr {
	s.next += 0x10
	return s.next
}

func (s *Sim) violate(format string, args ...any) {
	s.violations = append(s.violations, fmt.Sprintf(format, args...))
}

// enter books one call to op and validates its exception argument. It
// reports false when the call must raise instead of running. s.mu is held.
func (s *Sim) enter(op string, ex *native.Exception) bool {
	s.calls.Add(1)
	s.opCalls[op]++
	if ex == nil {
		s.violate("%s: nil exception", op)
		return true
	}
	if ex.Raised != 0 || ex.Code != 0 || ex.Message != 0 {
		s.violate("%s: exception not freshly initialized (raised=%d code=%d)", op, ex.Raised, ex.Code)
	}
	if msg, ok := s.failures[op]; ok {
		delete(s.failures, op)
		s.raise(ex, "%s", msg)
		return false
	}
	return true
}

// count books a call to an entry point without an exception argument.
func (s *Sim) count(op string) {
	s.calls.Add(1)
	s.opCalls[op]++
}

func (s *Sim) raise(ex *native.Exception, format string, args ...any) {
	if ex == nil {
		return
	}
	ptr, buf := cstring(fmt.Sprintf(format, args...))
	s.messages[ptr] = buf
	ex.Raised = 1
	ex.Code = -1
	ex.Message = ptr
}

// newString hands out a heap string the caller frees with libvlc_free.
func (s *Sim) newString(v string) uintptr {
	ptr, buf := cstring(v)
	s.strs[ptr] = buf
	return ptr
}

func cstring(v string) (uintptr, []byte) {
	buf := make([]byte, len(v)+1)
	copy(buf, v)
	return uintptr(unsafe.Pointer(&buf[0])), buf
}

// API returns the entry-point table backed by s.
func (s *Sim) API() *native.API {
	return &native.API{
		ExceptionInit:  s.exceptionInit,
		ExceptionClear: s.exceptionClear,

		New:          s.newInstance,
		Release:      s.release,
		Retain:       s.retain,
		AddIntf:      s.addIntf,
		GetVersion:   func() string { return Version },
		GetCompiler:  func() string { return "gc (simulated)" },
		GetChangeset: func() string { return "simvlc" },
		Free:         s.free,

		GetLogVerbosity:    s.getLogVerbosity,
		SetLogVerbosity:    s.setLogVerbosity,
		LogOpen:            s.logOpen,
		LogClose:           s.logClose,
		LogCount:           s.logCount,
		LogClear:           s.logClear,
		LogGetIterator:     s.logGetIterator,
		LogIteratorFree:    s.logIteratorFree,
		LogIteratorHasNext: s.logIteratorHasNext,
		LogIteratorNext:    s.logIteratorNext,

		AudioToggleMute:    s.audioToggleMute,
		AudioGetMute:       s.audioGetMute,
		AudioSetMute:       s.audioSetMute,
		AudioGetVolume:     s.audioGetVolume,
		AudioSetVolume:     s.audioSetVolume,
		AudioGetChannel:    s.audioGetChannel,
		AudioSetChannel:    s.audioSetChannel,
		AudioGetTrackCount: s.audioGetTrackCount,
		AudioGetTrack:      s.audioGetTrack,
		AudioSetTrack:      s.audioSetTrack,

		MediaNew:          s.mediaNew,
		MediaNewAsNode:    s.mediaNewAsNode,
		MediaAddOption:    s.mediaAddOption,
		MediaRetain:       s.mediaRetain,
		MediaRelease:      s.mediaRelease,
		MediaGetMrl:       s.mediaGetMrl,
		MediaDuplicate:    s.mediaDuplicate,
		MediaGetMeta:      s.mediaGetMeta,
		MediaGetState:     s.mediaGetState,
		MediaSubitems:     s.mediaSubitems,
		MediaEventManager: s.mediaEventManager,
		MediaGetDuration:  s.mediaGetDuration,
		MediaIsPreparsed:  s.mediaIsPreparsed,

		MediaPlayerNew:             s.playerNew,
		MediaPlayerNewFromMedia:    s.playerNewFromMedia,
		MediaPlayerRelease:         s.playerRelease,
		MediaPlayerRetain:          s.playerRetain,
		MediaPlayerSetMedia:        s.playerSetMedia,
		MediaPlayerGetMedia:        s.playerGetMedia,
		MediaPlayerEventManager:    s.playerEventManager,
		MediaPlayerIsPlaying:       s.playerIsPlaying,
		MediaPlayerPlay:            s.playerPlay,
		MediaPlayerPause:           s.playerPause,
		MediaPlayerStop:            s.playerStop,
		MediaPlayerSetXWindow:      s.playerSetXWindow,
		MediaPlayerGetXWindow:      s.playerGetXWindow,
		MediaPlayerGetLength:       s.playerGetLength,
		MediaPlayerGetTime:         s.playerGetTime,
		MediaPlayerSetTime:         s.playerSetTime,
		MediaPlayerGetPosition:     s.playerGetPosition,
		MediaPlayerSetPosition:     s.playerSetPosition,
		MediaPlayerSetChapter:      s.playerSetChapter,
		MediaPlayerGetChapter:      s.playerGetChapter,
		MediaPlayerGetChapterCount: s.playerGetChapterCount,
		MediaPlayerWillPlay:        s.playerWillPlay,
		MediaPlayerGetRate:         s.playerGetRate,
		MediaPlayerSetRate:         s.playerSetRate,
		MediaPlayerGetState:        s.playerGetState,
		MediaPlayerGetFPS:          s.playerGetFPS,
		MediaPlayerHasVout:         s.playerHasVout,
		MediaPlayerIsSeekable:      s.playerIsSeekable,
		MediaPlayerCanPause:        s.playerCanPause,

		VideoGetFullscreen:    s.videoGetFullscreen,
		VideoSetFullscreen:    s.videoSetFullscreen,
		VideoToggleFullscreen: s.videoToggleFullscreen,
		VideoGetWidth:         s.videoGetWidth,
		VideoGetHeight:        s.videoGetHeight,
		VideoGetScale:         s.videoGetScale,
		VideoSetScale:         s.videoSetScale,
		VideoGetAspectRatio:   s.videoGetAspectRatio,
		VideoSetAspectRatio:   s.videoSetAspectRatio,
		VideoGetSpu:           s.videoGetSpu,
		VideoSetSpu:           s.videoSetSpu,
		VideoTakeSnapshot:     s.videoTakeSnapshot,

		MediaListNew:          s.listNew,
		MediaListRelease:      s.listRelease,
		MediaListRetain:       s.listRetain,
		MediaListAddMedia:     s.listAddMedia,
		MediaListInsertMedia:  s.listInsertMedia,
		MediaListRemoveIndex:  s.listRemoveIndex,
		MediaListCount:        s.listCount,
		MediaListItemAtIndex:  s.listItemAtIndex,
		MediaListIndexOfItem:  s.listIndexOfItem,
		MediaListIsReadonly:   s.listIsReadonly,
		MediaListLock:         func(native.MediaList) {},
		MediaListUnlock:       func(native.MediaList) {},
		MediaListEventManager: s.listEventManager,

		MediaListPlayerNew:             s.listPlayerNew,
		MediaListPlayerRelease:         s.listPlayerRelease,
		MediaListPlayerSetMediaPlayer:  s.listPlayerSetMediaPlayer,
		MediaListPlayerSetMediaList:    s.listPlayerSetMediaList,
		MediaListPlayerPlay:            s.listPlayerPlay,
		MediaListPlayerPause:           s.listPlayerPause,
		MediaListPlayerStop:            s.listPlayerStop,
		MediaListPlayerNext:            s.listPlayerNext,
		MediaListPlayerIsPlaying:       s.listPlayerIsPlaying,
		MediaListPlayerPlayItemAtIndex: s.listPlayerPlayItemAtIndex,

		EventAttach:   s.eventAttach,
		EventDetach:   s.eventDetach,
		EventTypeName: eventTypeName,

		VLMRelease:                  s.vlmRelease,
		VLMAddBroadcast:             s.vlmAddBroadcast,
		VLMAddVod:                   s.vlmAddVod,
		VLMDelMedia:                 s.vlmDelMedia,
		VLMSetEnabled:               s.vlmSetEnabled,
		VLMSetOutput:                s.vlmSetOutput,
		VLMSetInput:                 s.vlmSetInput,
		VLMAddInput:                 s.vlmAddInput,
		VLMSetLoop:                  s.vlmSetLoop,
		VLMSetMux:                   s.vlmSetMux,
		VLMChangeMedia:              s.vlmChangeMedia,
		VLMPlayMedia:                s.vlmPlayMedia,
		VLMStopMedia:                s.vlmStopMedia,
		VLMPauseMedia:               s.vlmPauseMedia,
		VLMSeekMedia:                s.vlmSeekMedia,
		VLMShowMedia:                s.vlmShowMedia,
		VLMGetMediaInstancePosition: s.vlmInstancePosition,
		VLMGetMediaInstanceTime:     s.vlmInstanceTime,
		VLMGetMediaInstanceLength:   s.vlmInstanceLength,
		VLMGetMediaInstanceRate:     s.vlmInstanceRate,

		NewEventCallback: s.newEventCallback,
	}
}

func (s *Sim) exceptionInit(ex *native.Exception) {
	*ex = native.Exception{}
}

func (s *Sim) exceptionClear(ex *native.Exception) {
	if ex.Message != 0 {
		s.mu.Lock()
		if _, ok := s.messages[ex.Message]; !ok {
			s.violate("libvlc_exception_clear: unknown message %#x", ex.Message)
		}
		delete(s.messages, ex.Message)
		s.mu.Unlock()
	}
	*ex = native.Exception{}
}

func (s *Sim) free(ptr uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.strs[ptr]; !ok {
		s.violate("libvlc_free: unknown pointer %#x", ptr)
		return
	}
	delete(s.strs, ptr)
}

func (s *Sim) newEventCallback(fn func(event, userData uintptr)) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCB += 0x10
	s.callbacks[s.nextCB] = fn
	return s.nextCB
}
