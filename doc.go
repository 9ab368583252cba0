// Package vlc binds the libvlc 1.0 C API, the generation in which every
// call reports failure through a libvlc_exception_t out-parameter.
//
// Key pieces include:
//   - Library and Session: a loaded libvlc and one libvlc instance
//   - Media, Player, Video and Audio: playback of one input
//   - MediaList and MediaListPlayer: ordered playback of many inputs
//   - VLM: broadcast and video-on-demand declarations
//   - Log: the instance's native message log
//   - EventManager: native events delivered to Go listeners
//
// # Architecture
//
//	Session -> Media -> Player -> EventManager -> MediaPlayerListener
//	native thread -> trampoline -> registry lookup -> listener method
//
// Every wrapper owns one native handle and releases it exactly once,
// however often Release is called. Operations on a released wrapper fail
// with ErrReleased and make no native call. Native failures come back as
// *NativeCallError carrying the exception message.
//
// Events arrive on libvlc's own threads through a single purego callback.
// Listeners run there by default and must not call back into this
// package; attach with Async to get a goroutine of their own.
//
// # Native Libraries
//
// Bindings load libvlc with purego (CGO_ENABLED=0). Set VLC_LIB_PATH to
// the shared object, or VLC_SDK_LIB_PATH to the directory containing it.
// VLC_PLUGIN_PATH is forwarded to new sessions as --plugin-path.
//
// Entry points the loaded library does not export fail when called, not
// at load time.
package vlc
