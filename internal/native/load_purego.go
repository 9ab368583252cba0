//go:build darwin || linux

package native

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	loadOnce sync.Once
	loadAPI  *API
	loadErr  error
	loadPath string
)

// Load opens libvlc once per process and returns its entry points.
func Load() (*API, error) {
	loadOnce.Do(func() {
		loadAPI, loadPath, loadErr = loadLibVLC()
	})
	return loadAPI, loadErr
}

// LoadedPath reports which file Load opened, or "" if it failed.
func LoadedPath() string {
	return loadPath
}

func loadLibVLC() (*API, string, error) {
	var lastErr error
	for _, path := range libPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		api := &API{}
		if err := registerSymbols(api, handle); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		if api.Free == nil {
			api.Free = libcFree()
		}
		api.NewEventCallback = func(fn func(event, userData uintptr)) uintptr {
			return purego.NewCallback(fn)
		}
		StubMissing(api)
		return api, path, nil
	}
	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrNotLoaded, lastErr)
	}
	return nil, "", fmt.Errorf("%w: not found in any standard location", ErrNotLoaded)
}

type symbol struct {
	fptr     any
	name     string
	optional bool
}

func symbols(a *API) []symbol {
	return []symbol{
		{&a.ExceptionInit, "libvlc_exception_init", false},
		{&a.ExceptionClear, "libvlc_exception_clear", false},

		{&a.New, "libvlc_new", false},
		{&a.Release, "libvlc_release", false},
		{&a.Retain, "libvlc_retain", false},
		{&a.AddIntf, "libvlc_add_intf", true},
		{&a.GetVersion, "libvlc_get_version", false},
		{&a.GetCompiler, "libvlc_get_compiler", true},
		{&a.GetChangeset, "libvlc_get_changeset", true},
		{&a.Free, "libvlc_free", true},

		{&a.GetLogVerbosity, "libvlc_get_log_verbosity", true},
		{&a.SetLogVerbosity, "libvlc_set_log_verbosity", true},
		{&a.LogOpen, "libvlc_log_open", true},
		{&a.LogClose, "libvlc_log_close", true},
		{&a.LogCount, "libvlc_log_count", true},
		{&a.LogClear, "libvlc_log_clear", true},
		{&a.LogGetIterator, "libvlc_log_get_iterator", true},
		{&a.LogIteratorFree, "libvlc_log_iterator_free", true},
		{&a.LogIteratorHasNext, "libvlc_log_iterator_has_next", true},
		{&a.LogIteratorNext, "libvlc_log_iterator_next", true},

		{&a.AudioToggleMute, "libvlc_audio_toggle_mute", false},
		{&a.AudioGetMute, "libvlc_audio_get_mute", false},
		{&a.AudioSetMute, "libvlc_audio_set_mute", false},
		{&a.AudioGetVolume, "libvlc_audio_get_volume", false},
		{&a.AudioSetVolume, "libvlc_audio_set_volume", false},
		{&a.AudioGetChannel, "libvlc_audio_get_channel", true},
		{&a.AudioSetChannel, "libvlc_audio_set_channel", true},
		{&a.AudioGetTrackCount, "libvlc_audio_get_track_count", true},
		{&a.AudioGetTrack, "libvlc_audio_get_track", true},
		{&a.AudioSetTrack, "libvlc_audio_set_track", true},

		{&a.MediaNew, "libvlc_media_new", false},
		{&a.MediaNewAsNode, "libvlc_media_new_as_node", true},
		{&a.MediaAddOption, "libvlc_media_add_option", false},
		{&a.MediaRetain, "libvlc_media_retain", false},
		{&a.MediaRelease, "libvlc_media_release", false},
		{&a.MediaGetMrl, "libvlc_media_get_mrl", false},
		{&a.MediaDuplicate, "libvlc_media_duplicate", true},
		{&a.MediaGetMeta, "libvlc_media_get_meta", true},
		{&a.MediaGetState, "libvlc_media_get_state", true},
		{&a.MediaSubitems, "libvlc_media_subitems", true},
		{&a.MediaEventManager, "libvlc_media_event_manager", false},
		{&a.MediaGetDuration, "libvlc_media_get_duration", true},
		{&a.MediaIsPreparsed, "libvlc_media_is_preparsed", true},

		{&a.MediaPlayerNew, "libvlc_media_player_new", false},
		{&a.MediaPlayerNewFromMedia, "libvlc_media_player_new_from_media", false},
		{&a.MediaPlayerRelease, "libvlc_media_player_release", false},
		{&a.MediaPlayerRetain, "libvlc_media_player_retain", false},
		{&a.MediaPlayerSetMedia, "libvlc_media_player_set_media", false},
		{&a.MediaPlayerGetMedia, "libvlc_media_player_get_media", false},
		{&a.MediaPlayerEventManager, "libvlc_media_player_event_manager", false},
		{&a.MediaPlayerIsPlaying, "libvlc_media_player_is_playing", false},
		{&a.MediaPlayerPlay, "libvlc_media_player_play", false},
		{&a.MediaPlayerPause, "libvlc_media_player_pause", false},
		{&a.MediaPlayerStop, "libvlc_media_player_stop", false},
		{&a.MediaPlayerSetXWindow, "libvlc_media_player_set_xwindow", true},
		{&a.MediaPlayerGetXWindow, "libvlc_media_player_get_xwindow", true},
		{&a.MediaPlayerGetLength, "libvlc_media_player_get_length", false},
		{&a.MediaPlayerGetTime, "libvlc_media_player_get_time", false},
		{&a.MediaPlayerSetTime, "libvlc_media_player_set_time", false},
		{&a.MediaPlayerGetPosition, "libvlc_media_player_get_position", false},
		{&a.MediaPlayerSetPosition, "libvlc_media_player_set_position", false},
		{&a.MediaPlayerSetChapter, "libvlc_media_player_set_chapter", true},
		{&a.MediaPlayerGetChapter, "libvlc_media_player_get_chapter", true},
		{&a.MediaPlayerGetChapterCount, "libvlc_media_player_get_chapter_count", true},
		{&a.MediaPlayerWillPlay, "libvlc_media_player_will_play", true},
		{&a.MediaPlayerGetRate, "libvlc_media_player_get_rate", false},
		{&a.MediaPlayerSetRate, "libvlc_media_player_set_rate", false},
		{&a.MediaPlayerGetState, "libvlc_media_player_get_state", false},
		{&a.MediaPlayerGetFPS, "libvlc_media_player_get_fps", true},
		{&a.MediaPlayerHasVout, "libvlc_media_player_has_vout", false},
		{&a.MediaPlayerIsSeekable, "libvlc_media_player_is_seekable", true},
		{&a.MediaPlayerCanPause, "libvlc_media_player_can_pause", true},

		{&a.VideoGetFullscreen, "libvlc_get_fullscreen", false},
		{&a.VideoSetFullscreen, "libvlc_set_fullscreen", false},
		{&a.VideoToggleFullscreen, "libvlc_toggle_fullscreen", false},
		{&a.VideoGetWidth, "libvlc_video_get_width", false},
		{&a.VideoGetHeight, "libvlc_video_get_height", false},
		{&a.VideoGetScale, "libvlc_video_get_scale", true},
		{&a.VideoSetScale, "libvlc_video_set_scale", true},
		{&a.VideoGetAspectRatio, "libvlc_video_get_aspect_ratio", true},
		{&a.VideoSetAspectRatio, "libvlc_video_set_aspect_ratio", true},
		{&a.VideoGetSpu, "libvlc_video_get_spu", true},
		{&a.VideoSetSpu, "libvlc_video_set_spu", true},
		{&a.VideoTakeSnapshot, "libvlc_video_take_snapshot", true},

		{&a.MediaListNew, "libvlc_media_list_new", false},
		{&a.MediaListRelease, "libvlc_media_list_release", false},
		{&a.MediaListRetain, "libvlc_media_list_retain", false},
		{&a.MediaListAddMedia, "libvlc_media_list_add_media", false},
		{&a.MediaListInsertMedia, "libvlc_media_list_insert_media", false},
		{&a.MediaListRemoveIndex, "libvlc_media_list_remove_index", false},
		{&a.MediaListCount, "libvlc_media_list_count", false},
		{&a.MediaListItemAtIndex, "libvlc_media_list_item_at_index", false},
		{&a.MediaListIndexOfItem, "libvlc_media_list_index_of_item", false},
		{&a.MediaListIsReadonly, "libvlc_media_list_is_readonly", true},
		{&a.MediaListLock, "libvlc_media_list_lock", false},
		{&a.MediaListUnlock, "libvlc_media_list_unlock", false},
		{&a.MediaListEventManager, "libvlc_media_list_event_manager", false},

		{&a.MediaListPlayerNew, "libvlc_media_list_player_new", true},
		{&a.MediaListPlayerRelease, "libvlc_media_list_player_release", true},
		{&a.MediaListPlayerSetMediaPlayer, "libvlc_media_list_player_set_media_player", true},
		{&a.MediaListPlayerSetMediaList, "libvlc_media_list_player_set_media_list", true},
		{&a.MediaListPlayerPlay, "libvlc_media_list_player_play", true},
		{&a.MediaListPlayerPause, "libvlc_media_list_player_pause", true},
		{&a.MediaListPlayerStop, "libvlc_media_list_player_stop", true},
		{&a.MediaListPlayerNext, "libvlc_media_list_player_next", true},
		{&a.MediaListPlayerIsPlaying, "libvlc_media_list_player_is_playing", true},
		{&a.MediaListPlayerPlayItemAtIndex, "libvlc_media_list_player_play_item_at_index", true},

		{&a.EventAttach, "libvlc_event_attach", false},
		{&a.EventDetach, "libvlc_event_detach", false},
		{&a.EventTypeName, "libvlc_event_type_name", true},

		{&a.VLMRelease, "libvlc_vlm_release", true},
		{&a.VLMAddBroadcast, "libvlc_vlm_add_broadcast", true},
		{&a.VLMAddVod, "libvlc_vlm_add_vod", true},
		{&a.VLMDelMedia, "libvlc_vlm_del_media", true},
		{&a.VLMSetEnabled, "libvlc_vlm_set_enabled", true},
		{&a.VLMSetOutput, "libvlc_vlm_set_output", true},
		{&a.VLMSetInput, "libvlc_vlm_set_input", true},
		{&a.VLMAddInput, "libvlc_vlm_add_input", true},
		{&a.VLMSetLoop, "libvlc_vlm_set_loop", true},
		{&a.VLMSetMux, "libvlc_vlm_set_mux", true},
		{&a.VLMChangeMedia, "libvlc_vlm_change_media", true},
		{&a.VLMPlayMedia, "libvlc_vlm_play_media", true},
		{&a.VLMStopMedia, "libvlc_vlm_stop_media", true},
		{&a.VLMPauseMedia, "libvlc_vlm_pause_media", true},
		{&a.VLMSeekMedia, "libvlc_vlm_seek_media", true},
		{&a.VLMShowMedia, "libvlc_vlm_show_media", true},
		{&a.VLMGetMediaInstancePosition, "libvlc_vlm_get_media_instance_position", true},
		{&a.VLMGetMediaInstanceTime, "libvlc_vlm_get_media_instance_time", true},
		{&a.VLMGetMediaInstanceLength, "libvlc_vlm_get_media_instance_length", true},
		{&a.VLMGetMediaInstanceRate, "libvlc_vlm_get_media_instance_rate", true},
	}
}

func registerSymbols(a *API, handle uintptr) error {
	for _, s := range symbols(a) {
		if _, err := purego.Dlsym(handle, s.name); err != nil {
			if s.optional {
				continue
			}
			return fmt.Errorf("missing symbol %s: %w", s.name, err)
		}
		purego.RegisterLibFunc(s.fptr, handle, s.name)
	}
	return nil
}

// libcFree backs API.Free on libvlc builds that predate libvlc_free.
func libcFree() func(uintptr) {
	name := "libc.so.6"
	if runtime.GOOS == "darwin" {
		name = "/usr/lib/libSystem.B.dylib"
	}
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return func(uintptr) {}
	}
	var free func(uintptr)
	purego.RegisterLibFunc(&free, handle, "free")
	return free
}

func libPaths() []string {
	var paths []string

	libName := "libvlc.so"
	if runtime.GOOS == "darwin" {
		libName = "libvlc.dylib"
	}

	// Environment variable overrides
	if envPath := os.Getenv("VLC_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("VLC_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	// Next to the executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "build", libName))
	}

	// System paths
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libvlc.dylib",
			"/Applications/VLC.app/Contents/MacOS/lib/libvlc.dylib",
			"/usr/local/lib/libvlc.dylib",
			"/opt/homebrew/lib/libvlc.dylib",
		)
	case "linux":
		paths = append(paths,
			"libvlc.so",
			"libvlc.so.5",
			"libvlc.so.2",
			"/usr/local/lib/libvlc.so",
			"/usr/lib/libvlc.so",
			"/usr/lib/x86_64-linux-gnu/libvlc.so.5",
			"/usr/lib/aarch64-linux-gnu/libvlc.so.5",
		)
	}

	return paths
}

// findModuleRoot walks up from the working directory to the directory
// containing go.mod.
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
