package vlc

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/thesyncim/vlc/internal/native"
)

// Session is one libvlc instance. Every other object is created from a
// session and keeps it alive.
type Session struct {
	lib  *Library
	h    *handle[native.Instance]
	argv []string

	audio *Audio

	vlmMu sync.Mutex
	vlm   *VLM
}

// NewSession creates a session on the default library. The conventional
// "vlc" argv[0] is prepended; args are forwarded verbatim.
func NewSession(args ...string) (*Session, error) {
	lib, err := DefaultLibrary()
	if err != nil {
		return nil, err
	}
	return lib.NewSession(args...)
}

// NewSessionWithConfig creates a session on the default library from cfg.
func NewSessionWithConfig(cfg SessionConfig) (*Session, error) {
	return NewSession(cfg.Argv()...)
}

// NewSession creates a session on l. The conventional "vlc" argv[0] is
// prepended; args are forwarded verbatim.
func (l *Library) NewSession(args ...string) (*Session, error) {
	argv := append([]string{"vlc"}, args...)
	cargs := native.NewCStrings(argv)
	raw, err := create(l, "session", "libvlc_new", func(ex *native.Exception) native.Instance {
		return l.api.New(cargs.Len(), cargs.Pointer(), ex)
	})
	cargs.KeepAlive()
	if err != nil {
		return nil, err
	}

	s := &Session{lib: l, argv: argv}
	s.h = newHandle("session", raw, func(raw native.Instance) {
		l.exec(func() { l.api.Release(raw) })
	})
	s.audio = &Audio{lib: l, h: s.h}
	runtime.SetFinalizer(s, (*Session).finalize)
	Logger().Debug("session created", zap.Strings("argv", argv))
	return s, nil
}

// NewSessionWithConfig creates a session on l from cfg.
func (l *Library) NewSessionWithConfig(cfg SessionConfig) (*Session, error) {
	return l.NewSession(cfg.Argv()...)
}

// Library returns the library the session was created from.
func (s *Session) Library() *Library { return s.lib }

// Argv returns the argument vector the instance was created with,
// including argv[0].
func (s *Session) Argv() []string {
	return append([]string(nil), s.argv...)
}

// Version returns the libvlc version string.
func (s *Session) Version() string { return s.lib.Version() }

// Audio returns the session's audio controls.
func (s *Session) Audio() *Audio { return s.audio }

// NewMedia creates a media item for an MRL or a local path.
func (s *Session) NewMedia(mrl string) (*Media, error) {
	return s.newMedia("libvlc_media_new", mrl, s.lib.api.MediaNew)
}

// NewMediaAsNode creates an empty media item that only holds sub-items.
func (s *Session) NewMediaAsNode(name string) (*Media, error) {
	return s.newMedia("libvlc_media_new_as_node", name, s.lib.api.MediaNewAsNode)
}

func (s *Session) newMedia(op, arg string, fn func(native.Instance, string, *native.Exception) native.Media) (*Media, error) {
	inst, err := s.h.acquire()
	if err != nil {
		return nil, err
	}
	defer s.h.done()
	raw, err := create(s.lib, "media", op, func(ex *native.Exception) native.Media {
		return fn(inst, arg, ex)
	})
	if err != nil {
		return nil, err
	}
	return newMedia(s, raw), nil
}

// NewPlayer creates a player with no media set.
func (s *Session) NewPlayer() (*Player, error) {
	inst, err := s.h.acquire()
	if err != nil {
		return nil, err
	}
	defer s.h.done()
	raw, err := create(s.lib, "player", "libvlc_media_player_new", func(ex *native.Exception) native.Player {
		return s.lib.api.MediaPlayerNew(inst, ex)
	})
	if err != nil {
		return nil, err
	}
	return newPlayer(s, raw), nil
}

// NewMediaList creates an empty media list.
func (s *Session) NewMediaList() (*MediaList, error) {
	inst, err := s.h.acquire()
	if err != nil {
		return nil, err
	}
	defer s.h.done()
	raw, err := create(s.lib, "media list", "libvlc_media_list_new", func(ex *native.Exception) native.MediaList {
		return s.lib.api.MediaListNew(inst, ex)
	})
	if err != nil {
		return nil, err
	}
	return newMediaList(s, raw), nil
}

// NewMediaListPlayer creates a player that walks a media list.
func (s *Session) NewMediaListPlayer() (*MediaListPlayer, error) {
	inst, err := s.h.acquire()
	if err != nil {
		return nil, err
	}
	defer s.h.done()
	raw, err := create(s.lib, "media list player", "libvlc_media_list_player_new", func(ex *native.Exception) native.MediaListPlayer {
		return s.lib.api.MediaListPlayerNew(inst, ex)
	})
	if err != nil {
		return nil, err
	}
	return newMediaListPlayer(s, raw), nil
}

// VLM returns the session's VLM, creating it on first use.
func (s *Session) VLM() (*VLM, error) {
	s.vlmMu.Lock()
	defer s.vlmMu.Unlock()
	if s.vlm != nil && !s.vlm.h.isReleased() {
		return s.vlm, nil
	}
	return s.newVLMLocked()
}

// NewVLM releases the current VLM, if any, and returns a fresh one. Media
// declared on the previous VLM are gone.
func (s *Session) NewVLM() (*VLM, error) {
	s.vlmMu.Lock()
	defer s.vlmMu.Unlock()
	if s.vlm != nil {
		s.vlm.Release()
		s.vlm = nil
	}
	return s.newVLMLocked()
}

func (s *Session) newVLMLocked() (*VLM, error) {
	inst, err := s.h.acquire()
	if err != nil {
		return nil, err
	}
	defer s.h.done()
	s.vlm = newVLM(s, inst)
	return s.vlm, nil
}

// OpenLog opens the instance's message log.
func (s *Session) OpenLog() (*Log, error) {
	inst, err := s.h.acquire()
	if err != nil {
		return nil, err
	}
	defer s.h.done()
	raw, err := create(s.lib, "log", "libvlc_log_open", func(ex *native.Exception) native.Log {
		return s.lib.api.LogOpen(inst, ex)
	})
	if err != nil {
		return nil, err
	}
	return newLog(s, raw), nil
}

// LogVerbosity returns the minimum severity kept in the message log.
func (s *Session) LogVerbosity() (uint32, error) {
	return get(s.lib, s.h, "libvlc_get_log_verbosity", s.lib.api.GetLogVerbosity)
}

// SetLogVerbosity sets the minimum severity kept in the message log.
func (s *Session) SetLogVerbosity(level uint32) error {
	return do(s.lib, s.h, "libvlc_set_log_verbosity", func(inst native.Instance, ex *native.Exception) {
		s.lib.api.SetLogVerbosity(inst, level, ex)
	})
}

// AddInterface starts an interface module, for example "http".
func (s *Session) AddInterface(name string) error {
	return do(s.lib, s.h, "libvlc_add_intf", func(inst native.Instance, ex *native.Exception) {
		s.lib.api.AddIntf(inst, name, ex)
	})
}

// Released reports whether Release has run.
func (s *Session) Released() bool { return s.h.isReleased() }

// Release releases the VLM, then the instance. Objects created from the
// session should be released first. Calling Release again is a no-op.
func (s *Session) Release() {
	s.vlmMu.Lock()
	defer s.vlmMu.Unlock()
	if s.vlm != nil {
		s.vlm.Release()
		s.vlm = nil
	}
	if s.h.release() {
		runtime.SetFinalizer(s, nil)
		Logger().Debug("session released")
	}
}

func (s *Session) finalize() {
	leaked("session")
	s.Release()
}

func leaked(kind string) {
	Logger().Warn("native handle was not released; releasing from finalizer", zap.String("kind", kind))
}
