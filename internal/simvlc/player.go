package simvlc

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/thesyncim/vlc/internal/native"
)

type player struct {
	inst       native.Instance
	refs       int
	media      native.Media
	em         native.EventManager
	state      int32
	timeMs     int64
	lengthMs   int64
	rate       float32
	vout       bool
	xwindow    uint32
	fullscreen bool
	scale      float32
	aspect     string
	spu        int32
	audioTrack int32
	gen        int
	// listPlayer is set while a media list player drives this player.
	listPlayer native.MediaListPlayer
}

const (
	videoWidth  = 640
	videoHeight = 360
)

func (p *player) hasInput() bool {
	switch p.state {
	case stateOpening, stateBuffering, statePlaying, statePaused:
		return true
	}
	return false
}

func (s *Sim) player(op string, h native.Player, ex *native.Exception) *player {
	p, ok := s.players[h]
	if !ok {
		s.violate("%s: unknown player %#x", op, h)
		s.raise(ex, "invalid media player")
		return nil
	}
	return p
}

// input is player plus the "No active input" check most getters make.
func (s *Sim) input(op string, h native.Player, ex *native.Exception) *player {
	p := s.player(op, h, ex)
	if p == nil {
		return nil
	}
	if !p.hasInput() {
		s.raise(ex, "No active input")
		return nil
	}
	return p
}

func (s *Sim) vout(op string, h native.Player, ex *native.Exception) *player {
	p := s.player(op, h, ex)
	if p == nil {
		return nil
	}
	if !p.vout {
		s.raise(ex, "No active video output")
		return nil
	}
	return p
}

func (s *Sim) addPlayer(inst native.Instance) (native.Player, *player) {
	h := native.Player(s.handle())
	p := &player{inst: inst, refs: 1, rate: 1, spu: -1, audioTrack: -1}
	p.em = s.newEventManager(uintptr(h))
	s.players[h] = p
	return h, p
}

func (s *Sim) playerNew(inst native.Instance, ex *native.Exception) native.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_new", ex) {
		return 0
	}
	if s.instance("libvlc_media_player_new", inst, ex) == nil {
		return 0
	}
	h, _ := s.addPlayer(inst)
	return h
}

func (s *Sim) playerNewFromMedia(mh native.Media, ex *native.Exception) native.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_new_from_media", ex) {
		return 0
	}
	m := s.media("libvlc_media_player_new_from_media", mh, ex)
	if m == nil {
		return 0
	}
	h, p := s.addPlayer(m.inst)
	m.refs++
	p.media = mh
	return h
}

func (s *Sim) playerRelease(h native.Player) {
	s.mu.Lock()
	s.count("libvlc_media_player_release")
	if _, ok := s.players[h]; !ok {
		s.violate("libvlc_media_player_release: unknown player %#x", h)
		s.mu.Unlock()
		return
	}
	s.releases["player"]++
	ds := s.unrefPlayer(h)
	s.mu.Unlock()
	run(ds)
}

// unrefPlayer drops one reference and frees the player on the last one.
// s.mu is held.
func (s *Sim) unrefPlayer(h native.Player) []delivery {
	p, ok := s.players[h]
	if !ok {
		return nil
	}
	p.refs--
	if p.refs > 0 {
		return nil
	}
	p.gen++
	var ds []delivery
	if p.media != 0 {
		ds = s.unrefMedia(p.media)
	}
	delete(s.managers, p.em)
	delete(s.players, h)
	return ds
}

func (s *Sim) playerRetain(h native.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_media_player_retain")
	if p, ok := s.players[h]; ok {
		p.refs++
	}
}

func (s *Sim) playerSetMedia(h native.Player, mh native.Media, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_player_set_media", ex) {
		s.mu.Unlock()
		return
	}
	p := s.player("libvlc_media_player_set_media", h, ex)
	if p == nil {
		s.mu.Unlock()
		return
	}
	if mh != 0 {
		m := s.media("libvlc_media_player_set_media", mh, ex)
		if m == nil {
			s.mu.Unlock()
			return
		}
		m.refs++
	}
	var ds []delivery
	if p.hasInput() {
		ds = s.stopPlayer(p)
	}
	if p.media != 0 {
		ds = append(ds, s.unrefMedia(p.media)...)
	}
	p.media = mh
	p.state = stateNothingSpecial
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) playerGetMedia(h native.Player, ex *native.Exception) native.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_media", ex) {
		return 0
	}
	p := s.player("libvlc_media_player_get_media", h, ex)
	if p == nil || p.media == 0 {
		return 0
	}
	s.medias[p.media].refs++
	return p.media
}

func (s *Sim) playerEventManager(h native.Player, ex *native.Exception) native.EventManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_event_manager", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_event_manager", h, ex); p != nil {
		return p.em
	}
	return 0
}

func (s *Sim) playerIsPlaying(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_is_playing", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_is_playing", h, ex); p != nil && p.state == statePlaying {
		return 1
	}
	return 0
}

func (s *Sim) playerPlay(h native.Player, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_player_play", ex) {
		s.mu.Unlock()
		return
	}
	p := s.player("libvlc_media_player_play", h, ex)
	if p == nil {
		s.mu.Unlock()
		return
	}
	var ds []delivery
	switch {
	case p.media == 0:
		s.raise(ex, "No associated media descriptor")
	case p.state == statePaused:
		p.state = statePlaying
		ds = s.collect(p.em, playerPlaying, nil)
		ds = append(ds, s.setMediaState(s.medias[p.media], statePlaying)...)
	case p.hasInput():
	default:
		if !s.startPlayback(h, p) {
			s.raise(ex, "libvlc is shutting down")
		}
	}
	s.mu.Unlock()
	run(ds)
}

// startPlayback opens p's media on a new goroutine. s.mu is held.
func (s *Sim) startPlayback(h native.Player, p *player) bool {
	if s.closed {
		return false
	}
	p.gen++
	p.state = stateOpening
	p.timeMs = 0
	if inst, ok := s.instances[p.inst]; ok {
		s.logf(inst, 3, "input", "main", "creating an input for '%s'", s.medias[p.media].mrl)
	}
	s.wg.Add(1)
	go s.playback(h, p.gen)
	return true
}

// current returns the player if it is still on generation gen. s.mu is
// held.
func (s *Sim) current(h native.Player, gen int) (*player, bool) {
	p, ok := s.players[h]
	if !ok || p.gen != gen {
		return nil, false
	}
	return p, true
}

// playback is the simulated input thread: it raises every event from its
// own goroutine.
func (s *Sim) playback(h native.Player, gen int) {
	defer s.wg.Done()

	s.mu.Lock()
	p, ok := s.current(h, gen)
	if !ok {
		s.mu.Unlock()
		return
	}
	m := s.medias[p.media]
	ds := s.collect(p.em, playerOpening, nil)
	ds = append(ds, s.setMediaState(m, stateOpening)...)
	s.mu.Unlock()
	run(ds)

	select {
	case <-time.After(s.opts.StartDelay):
	case <-s.closing:
		return
	}

	s.mu.Lock()
	if p, ok = s.current(h, gen); !ok {
		s.mu.Unlock()
		return
	}
	m = s.medias[p.media]
	if !playable(m) {
		p.state = stateError
		inst := s.instances[p.inst]
		if inst != nil {
			s.logf(inst, 1, "input", "access", "cannot open '%s'", m.mrl)
		}
		ds = s.collect(p.em, playerEncounteredError, nil)
		ds = append(ds, s.setMediaState(m, stateError)...)
		s.mu.Unlock()
		run(ds)
		return
	}
	ds = s.preparse(m)
	p.lengthMs = m.duration
	p.vout = m.hasVideo()
	if m.hasAudio() {
		p.audioTrack = 1
	}
	p.state = statePlaying
	ds = append(ds, s.collect(p.em, playerBuffering, nil)...)
	ds = append(ds, s.collect(p.em, playerSeekableChanged, func(ev *native.RawEvent) { ev.SetInt32(0, 1) })...)
	ds = append(ds, s.collect(p.em, playerPausableChanged, func(ev *native.RawEvent) { ev.SetInt32(0, 1) })...)
	ds = append(ds, s.collect(p.em, playerPlaying, nil)...)
	ds = append(ds, s.setMediaState(m, statePlaying)...)
	s.mu.Unlock()
	run(ds)

	ticker := time.NewTicker(s.opts.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-s.closing:
			return
		}
		s.mu.Lock()
		if p, ok = s.current(h, gen); !ok {
			s.mu.Unlock()
			return
		}
		if p.state != statePlaying {
			s.mu.Unlock()
			continue
		}
		p.timeMs += int64(float32(s.opts.Tick.Milliseconds()) * p.rate)
		ended := p.timeMs >= p.lengthMs
		if ended {
			p.timeMs = p.lengthMs
		}
		ds = s.progress(p)
		if ended {
			p.state = stateEnded
			p.vout = false
			p.audioTrack = -1
			ds = append(ds, s.collect(p.em, playerEndReached, nil)...)
			ds = append(ds, s.setMediaState(s.medias[p.media], stateEnded)...)
			if p.listPlayer != 0 {
				ds = append(ds, s.advance(p.listPlayer)...)
			}
		}
		s.mu.Unlock()
		run(ds)
		if ended {
			return
		}
	}
}

// progress returns TimeChanged and PositionChanged for p's clock. s.mu
// is held.
func (s *Sim) progress(p *player) []delivery {
	t := p.timeMs
	pos := p.position()
	ds := s.collect(p.em, playerTimeChanged, func(ev *native.RawEvent) { ev.SetInt64(0, t) })
	return append(ds, s.collect(p.em, playerPositionChanged, func(ev *native.RawEvent) { ev.SetFloat32(0, pos) })...)
}

func (p *player) position() float32 {
	if p.lengthMs <= 0 {
		return 0
	}
	return float32(p.timeMs) / float32(p.lengthMs)
}

// stopPlayer ends the current input. s.mu is held.
func (s *Sim) stopPlayer(p *player) []delivery {
	p.gen++
	p.state = stateStopped
	p.vout = false
	p.timeMs = 0
	p.audioTrack = -1
	ds := s.collect(p.em, playerStopped, nil)
	if m, ok := s.medias[p.media]; ok {
		ds = append(ds, s.setMediaState(m, stateStopped)...)
	}
	return ds
}

func (s *Sim) playerPause(h native.Player, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_player_pause", ex) {
		s.mu.Unlock()
		return
	}
	p := s.player("libvlc_media_player_pause", h, ex)
	if p == nil {
		s.mu.Unlock()
		return
	}
	var ds []delivery
	switch p.state {
	case statePlaying:
		p.state = statePaused
		ds = s.collect(p.em, playerPaused, nil)
		ds = append(ds, s.setMediaState(s.medias[p.media], statePaused)...)
	case statePaused:
		p.state = statePlaying
		ds = s.collect(p.em, playerPlaying, nil)
		ds = append(ds, s.setMediaState(s.medias[p.media], statePlaying)...)
	}
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) playerStop(h native.Player, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_player_stop", ex) {
		s.mu.Unlock()
		return
	}
	p := s.player("libvlc_media_player_stop", h, ex)
	if p == nil {
		s.mu.Unlock()
		return
	}
	var ds []delivery
	if p.hasInput() || p.state == stateEnded || p.state == stateError {
		ds = s.stopPlayer(p)
	}
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) playerSetXWindow(h native.Player, drawable uint32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_set_xwindow", ex) {
		return
	}
	if p := s.player("libvlc_media_player_set_xwindow", h, ex); p != nil {
		p.xwindow = drawable
	}
}

func (s *Sim) playerGetXWindow(h native.Player) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_media_player_get_xwindow")
	if p, ok := s.players[h]; ok {
		return p.xwindow
	}
	s.violate("libvlc_media_player_get_xwindow: unknown player %#x", h)
	return 0
}

func (s *Sim) playerGetLength(h native.Player, ex *native.Exception) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_length", ex) {
		return 0
	}
	if p := s.input("libvlc_media_player_get_length", h, ex); p != nil {
		return p.lengthMs
	}
	return -1
}

func (s *Sim) playerGetTime(h native.Player, ex *native.Exception) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_time", ex) {
		return 0
	}
	if p := s.input("libvlc_media_player_get_time", h, ex); p != nil {
		return p.timeMs
	}
	return -1
}

func (s *Sim) playerSetTime(h native.Player, t int64, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_player_set_time", ex) {
		s.mu.Unlock()
		return
	}
	p := s.input("libvlc_media_player_set_time", h, ex)
	if p == nil {
		s.mu.Unlock()
		return
	}
	p.timeMs = min(max(t, 0), p.lengthMs)
	ds := s.progress(p)
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) playerGetPosition(h native.Player, ex *native.Exception) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_position", ex) {
		return 0
	}
	if p := s.input("libvlc_media_player_get_position", h, ex); p != nil {
		return p.position()
	}
	return -1
}

func (s *Sim) playerSetPosition(h native.Player, pos float32, ex *native.Exception) {
	s.mu.Lock()
	if !s.enter("libvlc_media_player_set_position", ex) {
		s.mu.Unlock()
		return
	}
	p := s.input("libvlc_media_player_set_position", h, ex)
	if p == nil {
		s.mu.Unlock()
		return
	}
	pos = min(max(pos, 0), 1)
	p.timeMs = int64(pos * float32(p.lengthMs))
	ds := s.progress(p)
	s.mu.Unlock()
	run(ds)
}

func (s *Sim) playerSetChapter(h native.Player, chapter int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_set_chapter", ex) {
		return
	}
	if p := s.input("libvlc_media_player_set_chapter", h, ex); p != nil && chapter != 0 {
		s.raise(ex, "Chapter %d out of range", chapter)
	}
}

func (s *Sim) playerGetChapter(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_chapter", ex) {
		return 0
	}
	if s.input("libvlc_media_player_get_chapter", h, ex) != nil {
		return 0
	}
	return -1
}

func (s *Sim) playerGetChapterCount(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_chapter_count", ex) {
		return 0
	}
	if s.input("libvlc_media_player_get_chapter_count", h, ex) != nil {
		return 1
	}
	return -1
}

func (s *Sim) playerWillPlay(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_will_play", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_will_play", h, ex); p != nil && p.hasInput() {
		return 1
	}
	return 0
}

func (s *Sim) playerGetRate(h native.Player, ex *native.Exception) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_rate", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_get_rate", h, ex); p != nil {
		return p.rate
	}
	return 0
}

func (s *Sim) playerSetRate(h native.Player, rate float32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_set_rate", ex) {
		return
	}
	p := s.player("libvlc_media_player_set_rate", h, ex)
	if p == nil {
		return
	}
	if rate <= 0 {
		s.raise(ex, "Rate value is invalid")
		return
	}
	p.rate = rate
}

func (s *Sim) playerGetState(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_state", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_get_state", h, ex); p != nil {
		return p.state
	}
	return stateError
}

func (s *Sim) playerGetFPS(h native.Player, ex *native.Exception) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_get_fps", ex) {
		return 0
	}
	p := s.input("libvlc_media_player_get_fps", h, ex)
	if p == nil || !p.vout {
		return 0
	}
	return 25
}

// playerHasVout never raises: no input simply means no video output.
func (s *Sim) playerHasVout(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_has_vout", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_has_vout", h, ex); p != nil && p.vout {
		return 1
	}
	return 0
}

func (s *Sim) playerIsSeekable(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_is_seekable", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_is_seekable", h, ex); p != nil && p.hasInput() {
		return 1
	}
	return 0
}

func (s *Sim) playerCanPause(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_player_can_pause", ex) {
		return 0
	}
	if p := s.player("libvlc_media_player_can_pause", h, ex); p != nil && p.hasInput() {
		return 1
	}
	return 0
}

func (s *Sim) audioGetTrackCount(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_get_track_count", ex) {
		return 0
	}
	p := s.input("libvlc_audio_get_track_count", h, ex)
	if p == nil || p.audioTrack < 0 {
		return 0
	}
	return 2
}

func (s *Sim) audioGetTrack(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_get_track", ex) {
		return 0
	}
	if p := s.input("libvlc_audio_get_track", h, ex); p != nil {
		return p.audioTrack
	}
	return -1
}

func (s *Sim) audioSetTrack(h native.Player, track int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_set_track", ex) {
		return
	}
	p := s.input("libvlc_audio_set_track", h, ex)
	if p == nil {
		return
	}
	if p.audioTrack < 0 || track < 0 || track > 1 {
		s.raise(ex, "Audio track out of range")
		return
	}
	p.audioTrack = track
}

func (s *Sim) videoGetFullscreen(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_get_fullscreen", ex) {
		return 0
	}
	if p := s.player("libvlc_get_fullscreen", h, ex); p != nil && p.fullscreen {
		return 1
	}
	return 0
}

func (s *Sim) videoSetFullscreen(h native.Player, on int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_set_fullscreen", ex) {
		return
	}
	if p := s.player("libvlc_set_fullscreen", h, ex); p != nil {
		p.fullscreen = on != 0
	}
}

func (s *Sim) videoToggleFullscreen(h native.Player, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_toggle_fullscreen", ex) {
		return
	}
	if p := s.player("libvlc_toggle_fullscreen", h, ex); p != nil {
		p.fullscreen = !p.fullscreen
	}
}

func (s *Sim) videoGetWidth(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_get_width", ex) {
		return 0
	}
	if s.vout("libvlc_video_get_width", h, ex) != nil {
		return videoWidth
	}
	return 0
}

func (s *Sim) videoGetHeight(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_get_height", ex) {
		return 0
	}
	if s.vout("libvlc_video_get_height", h, ex) != nil {
		return videoHeight
	}
	return 0
}

func (s *Sim) videoGetScale(h native.Player, ex *native.Exception) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_get_scale", ex) {
		return 0
	}
	if p := s.vout("libvlc_video_get_scale", h, ex); p != nil {
		return p.scale
	}
	return 0
}

func (s *Sim) videoSetScale(h native.Player, scale float32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_set_scale", ex) {
		return
	}
	p := s.vout("libvlc_video_set_scale", h, ex)
	if p == nil {
		return
	}
	if scale < 0 {
		s.raise(ex, "Scale value is invalid")
		return
	}
	p.scale = scale
}

func (s *Sim) videoGetAspectRatio(h native.Player, ex *native.Exception) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_get_aspect_ratio", ex) {
		return 0
	}
	if p := s.vout("libvlc_video_get_aspect_ratio", h, ex); p != nil {
		return s.newString(p.aspect)
	}
	return 0
}

func (s *Sim) videoSetAspectRatio(h native.Player, ratio string, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_set_aspect_ratio", ex) {
		return
	}
	if p := s.vout("libvlc_video_set_aspect_ratio", h, ex); p != nil {
		p.aspect = ratio
	}
}

func (s *Sim) videoGetSpu(h native.Player, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_get_spu", ex) {
		return 0
	}
	if p := s.vout("libvlc_video_get_spu", h, ex); p != nil {
		return p.spu
	}
	return -1
}

func (s *Sim) videoSetSpu(h native.Player, spu int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_set_spu", ex) {
		return
	}
	p := s.vout("libvlc_video_set_spu", h, ex)
	if p == nil {
		return
	}
	if spu != -1 {
		s.raise(ex, "Subtitle value out of range")
		return
	}
	p.spu = spu
}

// videoTakeSnapshot writes a flat grey PNG of the requested size.
func (s *Sim) videoTakeSnapshot(h native.Player, path string, width, height uint32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_video_take_snapshot", ex) {
		return
	}
	if s.vout("libvlc_video_take_snapshot", h, ex) == nil {
		return
	}
	if width == 0 {
		width = videoWidth
	}
	if height == 0 {
		height = videoHeight
	}
	img := image.NewGray(image.Rect(0, 0, int(width), int(height)))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.Gray{Y: 0xff})
	f, err := os.Create(path)
	if err != nil {
		s.raise(ex, "snapshot: %v", err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		s.raise(ex, "snapshot: %v", err)
	}
}
