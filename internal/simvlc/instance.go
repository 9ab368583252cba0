package simvlc

import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/thesyncim/vlc/internal/native"
)

type instance struct {
	refs      int
	argv      []string
	mute      bool
	volume    int32
	channel   int32
	verbosity uint32
	intfs     []string
	vlm       map[string]*vlmMedia
	log       []logEntry
}

type logEntry struct {
	severity int32
	typ      string
	name     string
	header   string
	text     string
}

// Interfaces returns the interface modules started on every live
// instance.
func (s *Sim) Interfaces() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, inst := range s.instances {
		out = append(out, inst.intfs...)
	}
	slices.Sort(out)
	return out
}

func (s *Sim) instance(op string, h native.Instance, ex *native.Exception) *instance {
	inst, ok := s.instances[h]
	if !ok {
		s.violate("%s: unknown instance %#x", op, h)
		s.raise(ex, "invalid libvlc instance")
		return nil
	}
	return inst
}

func (s *Sim) logf(inst *instance, severity int32, typ, name, format string, args ...any) {
	inst.log = append(inst.log, logEntry{
		severity: severity,
		typ:      typ,
		name:     name,
		text:     fmt.Sprintf(format, args...),
	})
}

func (s *Sim) newInstance(argc int32, argv uintptr, ex *native.Exception) native.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_new", ex) {
		return 0
	}
	args := native.Strings(argv, argc)
	s.lastArgv = args
	h := native.Instance(s.handle())
	inst := &instance{refs: 1, argv: args, volume: 100, channel: 1, vlm: make(map[string]*vlmMedia)}
	s.instances[h] = inst
	s.logf(inst, 0, "main", "main", "VLC media player - %s", Version)
	return h
}

func (s *Sim) release(h native.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_release")
	inst, ok := s.instances[h]
	if !ok {
		s.violate("libvlc_release: unknown instance %#x", h)
		return
	}
	s.releases["instance"]++
	inst.refs--
	if inst.refs > 0 {
		return
	}
	s.stopVLM(inst)
	delete(s.instances, h)
}

func (s *Sim) retain(h native.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count("libvlc_retain")
	if inst, ok := s.instances[h]; ok {
		inst.refs++
	}
}

func (s *Sim) addIntf(h native.Instance, name string, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_add_intf", ex) {
		return
	}
	inst := s.instance("libvlc_add_intf", h, ex)
	if inst == nil {
		return
	}
	switch name {
	case "dummy", "http", "rc", "telnet", "oldrc", "hotkeys":
		inst.intfs = append(inst.intfs, name)
		s.logf(inst, 0, "main", "main", "interface %q initialized", name)
	default:
		s.raise(ex, "Interface initialization failed")
	}
}

func (s *Sim) getLogVerbosity(h native.Instance, ex *native.Exception) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_get_log_verbosity", ex) {
		return 0
	}
	if inst := s.instance("libvlc_get_log_verbosity", h, ex); inst != nil {
		return inst.verbosity
	}
	return 0
}

func (s *Sim) setLogVerbosity(h native.Instance, level uint32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_set_log_verbosity", ex) {
		return
	}
	if inst := s.instance("libvlc_set_log_verbosity", h, ex); inst != nil {
		inst.verbosity = level
	}
}

func (s *Sim) audioToggleMute(h native.Instance, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_toggle_mute", ex) {
		return
	}
	if inst := s.instance("libvlc_audio_toggle_mute", h, ex); inst != nil {
		inst.mute = !inst.mute
	}
}

func (s *Sim) audioGetMute(h native.Instance, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_get_mute", ex) {
		return 0
	}
	if inst := s.instance("libvlc_audio_get_mute", h, ex); inst != nil && inst.mute {
		return 1
	}
	return 0
}

func (s *Sim) audioSetMute(h native.Instance, mute int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_set_mute", ex) {
		return
	}
	if inst := s.instance("libvlc_audio_set_mute", h, ex); inst != nil {
		inst.mute = mute != 0
	}
}

func (s *Sim) audioGetVolume(h native.Instance, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_get_volume", ex) {
		return 0
	}
	if inst := s.instance("libvlc_audio_get_volume", h, ex); inst != nil {
		return inst.volume
	}
	return 0
}

func (s *Sim) audioSetVolume(h native.Instance, volume int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_set_volume", ex) {
		return
	}
	inst := s.instance("libvlc_audio_set_volume", h, ex)
	if inst == nil {
		return
	}
	if volume < 0 || volume > 200 {
		s.raise(ex, "Volume out of range")
		return
	}
	inst.volume = volume
}

func (s *Sim) audioGetChannel(h native.Instance, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_get_channel", ex) {
		return 0
	}
	if inst := s.instance("libvlc_audio_get_channel", h, ex); inst != nil {
		return inst.channel
	}
	return 0
}

func (s *Sim) audioSetChannel(h native.Instance, channel int32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_audio_set_channel", ex) {
		return
	}
	inst := s.instance("libvlc_audio_set_channel", h, ex)
	if inst == nil {
		return
	}
	if channel < 1 || channel > 5 {
		s.raise(ex, "Audio channel out of range")
		return
	}
	inst.channel = channel
}

type logHandle struct {
	inst native.Instance
}

type logIterator struct {
	log     native.Log
	entries []logEntry
	pos     int
	// Strings of the last message returned; valid until the next call.
	held [][]byte
}

func (s *Sim) logOpen(h native.Instance, ex *native.Exception) native.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_open", ex) {
		return 0
	}
	if s.instance("libvlc_log_open", h, ex) == nil {
		return 0
	}
	l := native.Log(s.handle())
	s.logs[l] = &logHandle{inst: h}
	return l
}

func (s *Sim) logState(op string, l native.Log, ex *native.Exception) *instance {
	lh, ok := s.logs[l]
	if !ok {
		s.violate("%s: unknown log %#x", op, l)
		s.raise(ex, "invalid log")
		return nil
	}
	inst, ok := s.instances[lh.inst]
	if !ok {
		s.raise(ex, "log instance gone")
		return nil
	}
	return inst
}

func (s *Sim) logClose(l native.Log, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_close", ex) {
		return
	}
	if _, ok := s.logs[l]; !ok {
		s.violate("libvlc_log_close: unknown log %#x", l)
		s.raise(ex, "invalid log")
		return
	}
	s.releases["log"]++
	delete(s.logs, l)
}

func (s *Sim) logCount(l native.Log, ex *native.Exception) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_count", ex) {
		return 0
	}
	if inst := s.logState("libvlc_log_count", l, ex); inst != nil {
		return uint32(len(inst.log))
	}
	return 0
}

func (s *Sim) logClear(l native.Log, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_clear", ex) {
		return
	}
	if inst := s.logState("libvlc_log_clear", l, ex); inst != nil {
		inst.log = nil
	}
}

func (s *Sim) logGetIterator(l native.Log, ex *native.Exception) native.LogIterator {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_get_iterator", ex) {
		return 0
	}
	inst := s.logState("libvlc_log_get_iterator", l, ex)
	if inst == nil {
		return 0
	}
	it := native.LogIterator(s.handle())
	s.iterators[it] = &logIterator{log: l, entries: slices.Clone(inst.log)}
	return it
}

func (s *Sim) iterator(op string, it native.LogIterator, ex *native.Exception) *logIterator {
	li, ok := s.iterators[it]
	if !ok {
		s.violate("%s: unknown iterator %#x", op, it)
		s.raise(ex, "invalid log iterator")
		return nil
	}
	return li
}

func (s *Sim) logIteratorFree(it native.LogIterator, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_iterator_free", ex) {
		return
	}
	if s.iterator("libvlc_log_iterator_free", it, ex) == nil {
		return
	}
	s.releases["log iterator"]++
	delete(s.iterators, it)
}

func (s *Sim) logIteratorHasNext(it native.LogIterator, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_iterator_has_next", ex) {
		return 0
	}
	li := s.iterator("libvlc_log_iterator_has_next", it, ex)
	if li != nil && li.pos < len(li.entries) {
		return 1
	}
	return 0
}

func (s *Sim) logIteratorNext(it native.LogIterator, buf *native.LogMessage, ex *native.Exception) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_log_iterator_next", ex) {
		return 0
	}
	li := s.iterator("libvlc_log_iterator_next", it, ex)
	if li == nil {
		return 0
	}
	if buf == nil || buf.SizeofMsg != native.NewLogMessage().SizeofMsg {
		s.raise(ex, "Invalid message buffer")
		return 0
	}
	if li.pos >= len(li.entries) {
		s.raise(ex, "No more messages")
		return 0
	}
	e := li.entries[li.pos]
	li.pos++

	li.held = li.held[:0]
	hold := func(v string) uintptr {
		ptr, b := cstring(v)
		li.held = append(li.held, b)
		return ptr
	}
	buf.Severity = e.severity
	buf.Type = hold(e.typ)
	buf.Name = hold(e.name)
	buf.Header = hold(e.header)
	buf.Message = hold(e.text)
	return uintptr(unsafe.Pointer(buf))
}
