// Package native holds the libvlc entry-point table and the C struct
// layouts it traffics in.
//
// The table is filled either by Load, which dlopens libvlc through purego,
// or by an in-process stand-in. Nothing in this package is goroutine safe;
// callers serialize access.
package native

import "errors"

// ErrNotLoaded is returned when libvlc could not be opened.
var ErrNotLoaded = errors.New("libvlc not loaded")

// API is the libvlc function table. Field order follows the C headers.
// Every entry that can fail takes a trailing *Exception out-parameter.
type API struct {
	// Exceptions
	ExceptionInit  func(ex *Exception)
	ExceptionClear func(ex *Exception)

	// Core
	New          func(argc int32, argv uintptr, ex *Exception) Instance
	Release      func(inst Instance)
	Retain       func(inst Instance)
	AddIntf      func(inst Instance, name string, ex *Exception)
	GetVersion   func() string
	GetCompiler  func() string
	GetChangeset func() string
	Free         func(ptr uintptr)

	// Logging
	GetLogVerbosity    func(inst Instance, ex *Exception) uint32
	SetLogVerbosity    func(inst Instance, level uint32, ex *Exception)
	LogOpen            func(inst Instance, ex *Exception) Log
	LogClose           func(log Log, ex *Exception)
	LogCount           func(log Log, ex *Exception) uint32
	LogClear           func(log Log, ex *Exception)
	LogGetIterator     func(log Log, ex *Exception) LogIterator
	LogIteratorFree    func(it LogIterator, ex *Exception)
	LogIteratorHasNext func(it LogIterator, ex *Exception) int32
	LogIteratorNext    func(it LogIterator, buf *LogMessage, ex *Exception) uintptr

	// Audio
	AudioToggleMute    func(inst Instance, ex *Exception)
	AudioGetMute       func(inst Instance, ex *Exception) int32
	AudioSetMute       func(inst Instance, mute int32, ex *Exception)
	AudioGetVolume     func(inst Instance, ex *Exception) int32
	AudioSetVolume     func(inst Instance, volume int32, ex *Exception)
	AudioGetChannel    func(inst Instance, ex *Exception) int32
	AudioSetChannel    func(inst Instance, channel int32, ex *Exception)
	AudioGetTrackCount func(p Player, ex *Exception) int32
	AudioGetTrack      func(p Player, ex *Exception) int32
	AudioSetTrack      func(p Player, track int32, ex *Exception)

	// Media
	MediaNew          func(inst Instance, mrl string, ex *Exception) Media
	MediaNewAsNode    func(inst Instance, name string, ex *Exception) Media
	MediaAddOption    func(m Media, option string, ex *Exception)
	MediaRetain       func(m Media)
	MediaRelease      func(m Media)
	MediaGetMrl       func(m Media, ex *Exception) uintptr
	MediaDuplicate    func(m Media) Media
	MediaGetMeta      func(m Media, meta int32, ex *Exception) uintptr
	MediaGetState     func(m Media, ex *Exception) int32
	MediaSubitems     func(m Media, ex *Exception) MediaList
	MediaEventManager func(m Media, ex *Exception) EventManager
	MediaGetDuration  func(m Media, ex *Exception) int64
	MediaIsPreparsed  func(m Media, ex *Exception) int32

	// Media player
	MediaPlayerNew             func(inst Instance, ex *Exception) Player
	MediaPlayerNewFromMedia    func(m Media, ex *Exception) Player
	MediaPlayerRelease         func(p Player)
	MediaPlayerRetain          func(p Player)
	MediaPlayerSetMedia        func(p Player, m Media, ex *Exception)
	MediaPlayerGetMedia        func(p Player, ex *Exception) Media
	MediaPlayerEventManager    func(p Player, ex *Exception) EventManager
	MediaPlayerIsPlaying       func(p Player, ex *Exception) int32
	MediaPlayerPlay            func(p Player, ex *Exception)
	MediaPlayerPause           func(p Player, ex *Exception)
	MediaPlayerStop            func(p Player, ex *Exception)
	MediaPlayerSetXWindow      func(p Player, drawable uint32, ex *Exception)
	MediaPlayerGetXWindow      func(p Player) uint32
	MediaPlayerGetLength       func(p Player, ex *Exception) int64
	MediaPlayerGetTime         func(p Player, ex *Exception) int64
	MediaPlayerSetTime         func(p Player, t int64, ex *Exception)
	MediaPlayerGetPosition     func(p Player, ex *Exception) float32
	MediaPlayerSetPosition     func(p Player, pos float32, ex *Exception)
	MediaPlayerSetChapter      func(p Player, chapter int32, ex *Exception)
	MediaPlayerGetChapter      func(p Player, ex *Exception) int32
	MediaPlayerGetChapterCount func(p Player, ex *Exception) int32
	MediaPlayerWillPlay        func(p Player, ex *Exception) int32
	MediaPlayerGetRate         func(p Player, ex *Exception) float32
	MediaPlayerSetRate         func(p Player, rate float32, ex *Exception)
	MediaPlayerGetState        func(p Player, ex *Exception) int32
	MediaPlayerGetFPS          func(p Player, ex *Exception) float32
	MediaPlayerHasVout         func(p Player, ex *Exception) int32
	MediaPlayerIsSeekable      func(p Player, ex *Exception) int32
	MediaPlayerCanPause        func(p Player, ex *Exception) int32

	// Video
	VideoGetFullscreen    func(p Player, ex *Exception) int32
	VideoSetFullscreen    func(p Player, on int32, ex *Exception)
	VideoToggleFullscreen func(p Player, ex *Exception)
	VideoGetWidth         func(p Player, ex *Exception) int32
	VideoGetHeight        func(p Player, ex *Exception) int32
	VideoGetScale         func(p Player, ex *Exception) float32
	VideoSetScale         func(p Player, scale float32, ex *Exception)
	VideoGetAspectRatio   func(p Player, ex *Exception) uintptr
	VideoSetAspectRatio   func(p Player, ratio string, ex *Exception)
	VideoGetSpu           func(p Player, ex *Exception) int32
	VideoSetSpu           func(p Player, spu int32, ex *Exception)
	VideoTakeSnapshot     func(p Player, path string, width, height uint32, ex *Exception)

	// Media list
	MediaListNew          func(inst Instance, ex *Exception) MediaList
	MediaListRelease      func(l MediaList)
	MediaListRetain       func(l MediaList)
	MediaListAddMedia     func(l MediaList, m Media, ex *Exception)
	MediaListInsertMedia  func(l MediaList, m Media, pos int32, ex *Exception)
	MediaListRemoveIndex  func(l MediaList, pos int32, ex *Exception)
	MediaListCount        func(l MediaList, ex *Exception) int32
	MediaListItemAtIndex  func(l MediaList, pos int32, ex *Exception) Media
	MediaListIndexOfItem  func(l MediaList, m Media, ex *Exception) int32
	MediaListIsReadonly   func(l MediaList) int32
	MediaListLock         func(l MediaList)
	MediaListUnlock       func(l MediaList)
	MediaListEventManager func(l MediaList, ex *Exception) EventManager

	// Media list player
	MediaListPlayerNew             func(inst Instance, ex *Exception) MediaListPlayer
	MediaListPlayerRelease         func(lp MediaListPlayer)
	MediaListPlayerSetMediaPlayer  func(lp MediaListPlayer, p Player, ex *Exception)
	MediaListPlayerSetMediaList    func(lp MediaListPlayer, l MediaList, ex *Exception)
	MediaListPlayerPlay            func(lp MediaListPlayer, ex *Exception)
	MediaListPlayerPause           func(lp MediaListPlayer, ex *Exception)
	MediaListPlayerStop            func(lp MediaListPlayer, ex *Exception)
	MediaListPlayerNext            func(lp MediaListPlayer, ex *Exception)
	MediaListPlayerIsPlaying       func(lp MediaListPlayer, ex *Exception) int32
	MediaListPlayerPlayItemAtIndex func(lp MediaListPlayer, index int32, ex *Exception)

	// Events
	EventAttach   func(em EventManager, kind int32, cb, userData uintptr, ex *Exception)
	EventDetach   func(em EventManager, kind int32, cb, userData uintptr, ex *Exception)
	EventTypeName func(kind int32) string

	// VLM
	VLMRelease                  func(inst Instance, ex *Exception)
	VLMAddBroadcast             func(inst Instance, name, input, output string, nopts int32, opts uintptr, enabled, loop int32, ex *Exception)
	VLMAddVod                   func(inst Instance, name, input string, nopts int32, opts uintptr, enabled int32, mux string, ex *Exception)
	VLMDelMedia                 func(inst Instance, name string, ex *Exception)
	VLMSetEnabled               func(inst Instance, name string, enabled int32, ex *Exception)
	VLMSetOutput                func(inst Instance, name, output string, ex *Exception)
	VLMSetInput                 func(inst Instance, name, input string, ex *Exception)
	VLMAddInput                 func(inst Instance, name, input string, ex *Exception)
	VLMSetLoop                  func(inst Instance, name string, loop int32, ex *Exception)
	VLMSetMux                   func(inst Instance, name, mux string, ex *Exception)
	VLMChangeMedia              func(inst Instance, name, input, output string, nopts int32, opts uintptr, enabled, loop int32, ex *Exception)
	VLMPlayMedia                func(inst Instance, name string, ex *Exception)
	VLMStopMedia                func(inst Instance, name string, ex *Exception)
	VLMPauseMedia               func(inst Instance, name string, ex *Exception)
	VLMSeekMedia                func(inst Instance, name string, percentage float32, ex *Exception)
	VLMShowMedia                func(inst Instance, name string, ex *Exception) uintptr
	VLMGetMediaInstancePosition func(inst Instance, name string, id int32, ex *Exception) float32
	VLMGetMediaInstanceTime     func(inst Instance, name string, id int32, ex *Exception) int32
	VLMGetMediaInstanceLength   func(inst Instance, name string, id int32, ex *Exception) int32
	VLMGetMediaInstanceRate     func(inst Instance, name string, id int32, ex *Exception) int32

	// NewEventCallback turns fn into a libvlc_callback_t. The returned
	// pointer stays valid for the life of the process.
	NewEventCallback func(fn func(event, userData uintptr)) uintptr
}
