package simvlc

import (
	"net/url"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/thesyncim/vlc/internal/native"
)

// libvlc_state_t
const (
	stateNothingSpecial int32 = iota
	stateOpening
	stateBuffering
	statePlaying
	statePaused
	stateStopped
	stateEnded
	stateError
)

const (
	metaTitle int32 = 0
	metaURL   int32 = 10
)

type media struct {
	inst      native.Instance
	refs      int
	mrl       string
	node      bool
	options   []string
	meta      map[int32]string
	state     int32
	duration  int64
	preparsed bool
	subitems  native.MediaList
	em        native.EventManager
}

var audioExts = []string{".mp3", ".ogg", ".oga", ".wav", ".flac", ".m4a", ".opus", ".aac"}

// localPath returns the filesystem path an MRL names, if it names one.
func localPath(mrl string) (string, bool) {
	if strings.HasPrefix(mrl, "file://") {
		u, err := url.Parse(mrl)
		if err != nil {
			return "", false
		}
		return u.Path, true
	}
	if !strings.Contains(mrl, "://") {
		return mrl, true
	}
	return "", false
}

// playable reports whether the simulator can open m.
func playable(m *media) bool {
	if m.node {
		return false
	}
	if p, ok := localPath(m.mrl); ok {
		fi, err := os.Stat(p)
		return err == nil && !fi.IsDir()
	}
	return !strings.HasPrefix(m.mrl, "sim://error")
}

func (m *media) hasOption(opt string) bool {
	return slices.Contains(m.options, opt)
}

func (m *media) hasVideo() bool {
	if m.hasOption(":no-video") || m.hasOption("no-video") {
		return false
	}
	ext := strings.ToLower(path.Ext(m.mrl))
	return !slices.Contains(audioExts, ext)
}

func (m *media) hasAudio() bool {
	return !m.hasOption(":no-audio") && !m.hasOption("no-audio")
}

func (s *Sim) media(op string, h native.Media, ex *native.Exception) *media {
	m, ok := s.medias[h]
	if !ok {
		s.violate("%s: unknown media %#x", op, h)
		s.raise(ex, "invalid media descriptor")
		return nil
	}
	return m
}

func (s *Sim) addMedia(inst native.Instance, mrl string) (native.Media, *media) {
	h := native.Media(s.handle())
	m := &media{
		inst:     inst,
		refs:     1,
		mrl:      mrl,
		meta:     make(map[int32]string),
		duration: -1,
	}
	m.em = s.newEventManager(uintptr(h))
	s.medias[h] = m
	return h, m
}

// preparse fills duration and metadata the first time it runs and returns
// the events that announce them. s.mu is held.
func (s *Sim) preparse(m *media) []delivery {
	if m.preparsed {
		return nil
	}
	m.preparsed = true
	m.duration = 0
	if playable(m) {
		m.duration = s.opts.Length.Milliseconds()
	}
	if _, ok := m.meta[metaTitle]; !ok {
		m.meta[metaTitle] = path.Base(m.mrl)
	}
	m.meta[metaURL] = m.mrl

	ds := s.collect(m.em, mediaPreparsedChanged, func(ev *native.RawEvent) { ev.SetInt32(0, 1) })
	ds = append(ds, s.collect(m.em, mediaDurationChanged, func(ev *native.RawEvent) { ev.SetInt64(0, m.duration) })...)
	ds = append(ds, s.collect(m.em, mediaMetaChanged, func(ev *native.RawEvent) { ev.SetInt32(0, metaTitle) })...)
	return ds
}

// setMediaState updates m and returns the MediaStateChanged events.
// s.mu is held.
func (s *Sim) setMediaState(m *media, state int32) []delivery {
	if m == nil || m.state == state {
		return nil
	}
	m.state = state
	return s.collect(m.em, mediaStateChanged, func(ev *native.RawEvent) { ev.SetInt32(0, state) })
}

func (s *Sim) mediaNew(inst native.Instance, mrl string, ex *native.Exception) native.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_new", ex) {
		return 0
	}
	if s.instance("libvlc_media_new", inst, ex) == nil {
		return 0
	}
	if mrl == "" {
		s.raise(ex, "Can't create md with empty mrl")
		return 0
	}
	h, _ := s.addMedia(inst, mrl)
	return h
}

func (s *Sim) mediaNewAsNode(inst native.Instance, name string, ex *native.Exception) native.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_new_as_node", ex) {
		return 0
	}
	if s.instance("libvlc_media_new_as_node", inst, ex) == nil {
		return 0
	}
	h, m := s.addMedia(inst, "vlc://nop")
	m.node = true
	m.meta[metaTitle] = name
	m.subitems = s.addList(inst)
	return h
}

func (s *Sim) mediaAddOption(h native.Media, option string, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_add_option", ex) {
		return
	}
	if m := s.media("libvlc_media_add_option", h, ex); m != nil {
		m.options = append(m.options, option)
	}
}

func (s *Sim) mediaRetain(h native.Media) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_media_retain")
	if m, ok := s.medias[h]; ok {
		m.refs++
	}
}

func (s *Sim) mediaRelease(h native.Media) {
	s.mu.Lock()
	s.count("libvlc_media_release")
	_, ok := s.medias[h]
	if !ok {
		s.violate("libvlc_media_release: unknown media %#x", h)
		s.mu.Unlock()
		return
	}
	s.releases["media"]++
	ds := s.unrefMedia(h)
	s.mu.Unlock()
	run(ds)
}

// unrefMedia drops one reference and frees the media on the last one.
// s.mu is held.
func (s *Sim) unrefMedia(h native.Media) []delivery {
	m, ok := s.medias[h]
	if !ok {
		return nil
	}
	m.refs--
	if m.refs > 0 {
		return nil
	}
	ds := s.collect(m.em, mediaFreed, func(ev *native.RawEvent) { ev.SetPointer(0, uintptr(h)) })
	if m.subitems != 0 {
		ds = append(ds, s.unrefList(m.subitems)...)
	}
	delete(s.managers, m.em)
	delete(s.medias, h)
	return ds
}

func (s *Sim) mediaGetMrl(h native.Media, ex *native.Exception) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_get_mrl", ex) {
		return 0
	}
	if m := s.media("libvlc_media_get_mrl", h, ex); m != nil {
		return s.newString(m.mrl)
	}
	return 0
}

func (s *Sim) mediaDuplicate(h native.Media) native.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_media_duplicate")
	m, ok := s.medias[h]
	if !ok {
		s.violate("libvlc_media_duplicate: unknown media %#x", h)
		return 0
	}
	dup, d := s.addMedia(m.inst, m.mrl)
	d.options = slices.Clone(m.options)
	return dup
}

// mediaGetMeta preparses synchronously, as libvlc 1.0 does.
func (s *Sim) mediaGetMeta(h native.Media, meta int32, ex *native.Exception) uintptr {
	s.mu.Lock()
	if !s.enter("libvlc_media_get_meta", ex) {
		s.mu.Unlock()
		return 0
	}
	m := s.media("libvlc_media_get_meta", h, ex)
	if m == nil {
		s.mu.Unlock()
		return 0
	}
	ds := s.preparse(m)
	var ptr uintptr
	if v, ok := m.meta[meta]; ok {
		ptr = s.newString(v)
	}
	s.mu.Unlock()
	run(ds)
	return ptr
}

func (s *Sim) mediaGetState(h native.Media, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_get_state", ex) {
		return 0
	}
	if m := s.media("libvlc_media_get_state", h, ex); m != nil {
		return m.state
	}
	return 0
}

func (s *Sim) mediaSubitems(h native.Media, ex *native.Exception) native.MediaList {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_subitems", ex) {
		return 0
	}
	m := s.media("libvlc_media_subitems", h, ex)
	if m == nil || m.subitems == 0 {
		return 0
	}
	s.lists[m.subitems].refs++
	return m.subitems
}

func (s *Sim) mediaEventManager(h native.Media, ex *native.Exception) native.EventManager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_event_manager", ex) {
		return 0
	}
	if m := s.media("libvlc_media_event_manager", h, ex); m != nil {
		return m.em
	}
	return 0
}

func (s *Sim) mediaGetDuration(h native.Media, ex *native.Exception) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_get_duration", ex) {
		return 0
	}
	m := s.media("libvlc_media_get_duration", h, ex)
	if m == nil {
		return 0
	}
	return m.duration
}

func (s *Sim) mediaIsPreparsed(h native.Media, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_media_is_preparsed", ex) {
		return 0
	}
	if m := s.media("libvlc_media_is_preparsed", h, ex); m != nil && m.preparsed {
		return 1
	}
	return 0
}

// AddSubItem appends a child item with mrl to every live media node
// named name and raises MediaSubItemAdded on the node.
func (s *Sim) AddSubItem(name, mrl string) int {
	s.mu.Lock()
	var ds []delivery
	n := 0
	for _, m := range s.medias {
		if !m.node || m.meta[metaTitle] != name {
			continue
		}
		child, _ := s.addMedia(m.inst, mrl)
		ds = append(ds, s.appendItem(m.subitems, child)...)
		s.medias[child].refs--
		ds = append(ds, s.collect(m.em, mediaSubItemAdded, func(ev *native.RawEvent) { ev.SetPointer(0, uintptr(child)) })...)
		n++
	}
	s.mu.Unlock()
	run(ds)
	return n
}
