package vlc

import (
	"context"
	"fmt"
	"runtime"
	"time"
	"weak"

	"github.com/thesyncim/vlc/internal/native"
)

// Player plays one media at a time.
type Player struct {
	s         *Session
	h         *handle[native.Player]
	video     *Video
	events    eventSource
	listeners listenerSet[MediaPlayerListener]
}

func newPlayer(s *Session, raw native.Player) *Player {
	lib := s.lib
	p := &Player{s: s}
	p.h = newHandle("player", raw, func(raw native.Player) {
		lib.exec(func() { lib.api.MediaPlayerRelease(raw) })
	})
	p.video = &Video{lib: lib, h: p.h}
	runtime.SetFinalizer(p, (*Player).finalize)
	return p
}

// Session returns the session the player was created from.
func (p *Player) Session() *Session { return p.s }

// Video returns the player's video controls.
func (p *Player) Video() *Video { return p.video }

// SetMedia replaces the current media. A nil media clears it.
func (p *Player) SetMedia(m *Media) error {
	var raw native.Media
	if m != nil {
		var err error
		if raw, err = m.h.acquire(); err != nil {
			return err
		}
		defer m.h.done()
	}
	return do(p.s.lib, p.h, "libvlc_media_player_set_media", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.MediaPlayerSetMedia(pl, raw, ex)
	})
}

// Media returns the current media, or nil when none is set. The caller
// releases the returned media.
func (p *Player) Media() (*Media, error) {
	raw, err := get(p.s.lib, p.h, "libvlc_media_player_get_media", p.s.lib.api.MediaPlayerGetMedia)
	if err != nil || raw == 0 {
		return nil, err
	}
	return newMedia(p.s, raw), nil
}

func (p *Player) Play() error {
	return do(p.s.lib, p.h, "libvlc_media_player_play", p.s.lib.api.MediaPlayerPlay)
}

func (p *Player) Pause() error {
	return do(p.s.lib, p.h, "libvlc_media_player_pause", p.s.lib.api.MediaPlayerPause)
}

func (p *Player) Stop() error {
	return do(p.s.lib, p.h, "libvlc_media_player_stop", p.s.lib.api.MediaPlayerStop)
}

func (p *Player) IsPlaying() (bool, error) {
	return getBool(p.s.lib, p.h, "libvlc_media_player_is_playing", p.s.lib.api.MediaPlayerIsPlaying)
}

// WillPlay reports whether the current media can be played.
func (p *Player) WillPlay() (bool, error) {
	return getBool(p.s.lib, p.h, "libvlc_media_player_will_play", p.s.lib.api.MediaPlayerWillPlay)
}

// Length returns the length of the current input. libvlc's -1 for
// "unknown" is reported as zero; without an active input the error says so.
func (p *Player) Length() (time.Duration, error) {
	return p.duration("libvlc_media_player_get_length", p.s.lib.api.MediaPlayerGetLength)
}

// Time returns the playback time, clamped to zero like Length.
func (p *Player) Time() (time.Duration, error) {
	return p.duration("libvlc_media_player_get_time", p.s.lib.api.MediaPlayerGetTime)
}

// duration converts milliseconds, mapping negative values to zero.
func (p *Player) duration(op string, fn func(native.Player, *native.Exception) int64) (time.Duration, error) {
	ms, err := get(p.s.lib, p.h, op, fn)
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond, err
}

func (p *Player) SetTime(t time.Duration) error {
	return do(p.s.lib, p.h, "libvlc_media_player_set_time", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.MediaPlayerSetTime(pl, t.Milliseconds(), ex)
	})
}

// Position returns the playback position as a fraction in [0, 1].
func (p *Player) Position() (float32, error) {
	return get(p.s.lib, p.h, "libvlc_media_player_get_position", p.s.lib.api.MediaPlayerGetPosition)
}

func (p *Player) SetPosition(pos float32) error {
	return do(p.s.lib, p.h, "libvlc_media_player_set_position", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.MediaPlayerSetPosition(pl, pos, ex)
	})
}

func (p *Player) Rate() (float32, error) {
	return get(p.s.lib, p.h, "libvlc_media_player_get_rate", p.s.lib.api.MediaPlayerGetRate)
}

func (p *Player) SetRate(rate float32) error {
	return do(p.s.lib, p.h, "libvlc_media_player_set_rate", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.MediaPlayerSetRate(pl, rate, ex)
	})
}

func (p *Player) State() (State, error) {
	v, err := get(p.s.lib, p.h, "libvlc_media_player_get_state", p.s.lib.api.MediaPlayerGetState)
	return State(v), err
}

func (p *Player) FPS() (float32, error) {
	return get(p.s.lib, p.h, "libvlc_media_player_get_fps", p.s.lib.api.MediaPlayerGetFPS)
}

// HasVideoOutput reports whether a video output has been created.
func (p *Player) HasVideoOutput() (bool, error) {
	return getBool(p.s.lib, p.h, "libvlc_media_player_has_vout", p.s.lib.api.MediaPlayerHasVout)
}

func (p *Player) IsSeekable() (bool, error) {
	return getBool(p.s.lib, p.h, "libvlc_media_player_is_seekable", p.s.lib.api.MediaPlayerIsSeekable)
}

func (p *Player) CanPause() (bool, error) {
	return getBool(p.s.lib, p.h, "libvlc_media_player_can_pause", p.s.lib.api.MediaPlayerCanPause)
}

// Chapter returns the current chapter, or -1 when there is none.
func (p *Player) Chapter() (int, error) {
	v, err := get(p.s.lib, p.h, "libvlc_media_player_get_chapter", p.s.lib.api.MediaPlayerGetChapter)
	return int(v), err
}

func (p *Player) SetChapter(chapter int) error {
	return do(p.s.lib, p.h, "libvlc_media_player_set_chapter", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.MediaPlayerSetChapter(pl, int32(chapter), ex)
	})
}

func (p *Player) ChapterCount() (int, error) {
	v, err := get(p.s.lib, p.h, "libvlc_media_player_get_chapter_count", p.s.lib.api.MediaPlayerGetChapterCount)
	return int(v), err
}

// AudioTrack returns the current audio track, or -1 when none is selected.
func (p *Player) AudioTrack() (int, error) {
	v, err := get(p.s.lib, p.h, "libvlc_audio_get_track", p.s.lib.api.AudioGetTrack)
	return int(v), err
}

func (p *Player) SetAudioTrack(track int) error {
	return do(p.s.lib, p.h, "libvlc_audio_set_track", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.AudioSetTrack(pl, int32(track), ex)
	})
}

func (p *Player) AudioTrackCount() (int, error) {
	v, err := get(p.s.lib, p.h, "libvlc_audio_get_track_count", p.s.lib.api.AudioGetTrackCount)
	return int(v), err
}

// SetXWindow makes the player render into an existing X11 window.
func (p *Player) SetXWindow(drawable uint32) error {
	return do(p.s.lib, p.h, "libvlc_media_player_set_xwindow", func(pl native.Player, ex *native.Exception) {
		p.s.lib.api.MediaPlayerSetXWindow(pl, drawable, ex)
	})
}

func (p *Player) XWindow() (uint32, error) {
	raw, err := p.h.acquire()
	if err != nil {
		return 0, err
	}
	defer p.h.done()
	var drawable uint32
	p.s.lib.exec(func() { drawable = p.s.lib.api.MediaPlayerGetXWindow(raw) })
	return drawable, nil
}

// WaitForVideoOutput polls HasVideoOutput every interval until it reports
// true or ctx is done. libvlc offers no vout event in this API generation.
func (p *Player) WaitForVideoOutput(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ok, err := p.HasVideoOutput()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: waiting for video output: %w", ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Events returns the player's event manager.
func (p *Player) Events() (*EventManager, error) {
	return p.events.manager("player", func() (*EventManager, error) {
		raw, err := get(p.s.lib, p.h, "libvlc_media_player_event_manager", p.s.lib.api.MediaPlayerEventManager)
		if err != nil {
			return nil, err
		}
		return newEventManager(p.s.lib, "player", raw, p.h.pin), nil
	})
}

// AddListener attaches l to every player event kind. Without Async, l
// runs on the native thread and must not call back into the player.
// Attached listeners do not keep the player reachable.
func (p *Player) AddListener(l MediaPlayerListener, opts ...AttachOption) error {
	em, err := p.Events()
	if err != nil {
		return err
	}
	wp := weak.Make(p)
	return p.listeners.add(em, l, playerEventKinds, func(ev Event) {
		p := wp.Value()
		if p == nil {
			return
		}
		switch ev := ev.(type) {
		case PlayerNothingSpecial:
			l.NothingSpecial(p)
		case PlayerOpening:
			l.Opening(p)
		case PlayerBuffering:
			l.Buffering(p)
		case PlayerPlaying:
			l.Playing(p)
		case PlayerPaused:
			l.Paused(p)
		case PlayerStopped:
			l.Stopped(p)
		case PlayerForward:
			l.Forward(p)
		case PlayerBackward:
			l.Backward(p)
		case PlayerEndReached:
			l.EndReached(p)
		case PlayerEncounteredError:
			l.EncounteredError(p)
		case PlayerTimeChanged:
			l.TimeChanged(p, ev.Time)
		case PlayerPositionChanged:
			l.PositionChanged(p, ev.Position)
		case PlayerSeekableChanged:
			l.SeekableChanged(p, ev.Seekable)
		case PlayerPausableChanged:
			l.PausableChanged(p, ev.Pausable)
		}
	}, opts)
}

// RemoveListener detaches l. Removing an unknown listener is a no-op.
func (p *Player) RemoveListener(l MediaPlayerListener) error {
	return p.listeners.remove(l)
}

// Released reports whether Release has run.
func (p *Player) Released() bool { return p.h.isReleased() }

// Release detaches every handler, then releases the player. Calling
// Release again is a no-op.
func (p *Player) Release() {
	if p.h.isReleased() {
		return
	}
	p.events.close()
	if p.h.release() {
		runtime.SetFinalizer(p, nil)
	}
}

func (p *Player) finalize() {
	leaked("player")
	p.Release()
}
