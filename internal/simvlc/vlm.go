package simvlc

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pion/rtp"

	"github.com/thesyncim/vlc/internal/native"
)

type vlmMedia struct {
	vod     bool
	inputs  []string
	output  string
	options []string
	enabled bool
	loop    bool
	mux     string

	playing bool
	paused  bool
	base    float32
	started time.Time
	gen     int
}

// position is the playback fraction of the single running instance.
func (v *vlmMedia) position(length time.Duration) float32 {
	if !v.playing {
		return 0
	}
	pos := v.base
	if !v.paused {
		pos += float32(time.Since(v.started).Seconds() / length.Seconds())
	}
	if v.loop {
		_, frac := math.Modf(float64(pos))
		return float32(frac)
	}
	return min(pos, 1)
}

func (v *vlmMedia) freeze(length time.Duration) {
	v.base = v.position(length)
	v.started = time.Now()
}

// rtpTarget extracts dst and port from the first rtp{...} module of an
// sout chain.
func rtpTarget(sout string) (string, bool) {
	i := strings.Index(sout, "rtp{")
	if i < 0 {
		return "", false
	}
	body := sout[i+len("rtp{"):]
	if j := strings.IndexByte(body, '}'); j >= 0 {
		body = body[:j]
	}
	dst, port := "127.0.0.1", ""
	for _, kv := range strings.Split(body, ",") {
		k, v, _ := strings.Cut(strings.TrimSpace(kv), "=")
		switch k {
		case "dst":
			dst = v
		case "port":
			port = v
		}
	}
	if port == "" {
		return "", false
	}
	return net.JoinHostPort(dst, port), true
}

func (s *Sim) vlmOf(op string, h native.Instance, name string, ex *native.Exception) (*instance, *vlmMedia) {
	inst := s.instance(op, h, ex)
	if inst == nil {
		return nil, nil
	}
	v, ok := inst.vlm[name]
	if !ok {
		s.raise(ex, "Unable to find media %s", name)
		return inst, nil
	}
	return inst, v
}

// stopVLM stops every VLM stream of inst and forgets its media. s.mu is
// held.
func (s *Sim) stopVLM(inst *instance) {
	for name, v := range inst.vlm {
		v.gen++
		delete(inst.vlm, name)
	}
}

func (s *Sim) vlmRelease(h native.Instance, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_vlm_release", ex) {
		return
	}
	inst := s.instance("libvlc_vlm_release", h, ex)
	if inst == nil {
		return
	}
	s.releases["vlm"]++
	s.stopVLM(inst)
}

func (s *Sim) vlmAdd(op string, h native.Instance, name string, v *vlmMedia, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(op, ex) {
		return
	}
	inst := s.instance(op, h, ex)
	if inst == nil {
		return
	}
	if name == "" {
		s.raise(ex, "VLM media needs a name")
		return
	}
	if _, ok := inst.vlm[name]; ok {
		s.raise(ex, "Media %s already exists", name)
		return
	}
	inst.vlm[name] = v
}

func (s *Sim) vlmAddBroadcast(h native.Instance, name, input, output string, nopts int32, opts uintptr, enabled, loop int32, ex *native.Exception) {
	s.vlmAdd("libvlc_vlm_add_broadcast", h, name, &vlmMedia{
		inputs:  []string{input},
		output:  output,
		options: native.Strings(opts, nopts),
		enabled: enabled != 0,
		loop:    loop != 0,
	}, ex)
}

func (s *Sim) vlmAddVod(h native.Instance, name, input string, nopts int32, opts uintptr, enabled int32, mux string, ex *native.Exception) {
	s.vlmAdd("libvlc_vlm_add_vod", h, name, &vlmMedia{
		vod:     true,
		inputs:  []string{input},
		options: native.Strings(opts, nopts),
		enabled: enabled != 0,
		mux:     mux,
	}, ex)
}

func (s *Sim) vlmDelMedia(h native.Instance, name string, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_vlm_del_media", ex) {
		return
	}
	inst, v := s.vlmOf("libvlc_vlm_del_media", h, name, ex)
	if v == nil {
		return
	}
	v.gen++
	delete(inst.vlm, name)
}

// vlmSet applies one attribute change to an existing media.
func (s *Sim) vlmSet(op string, h native.Instance, name string, ex *native.Exception, apply func(*vlmMedia)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter(op, ex) {
		return
	}
	if _, v := s.vlmOf(op, h, name, ex); v != nil {
		apply(v)
	}
}

func (s *Sim) vlmSetEnabled(h native.Instance, name string, enabled int32, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_set_enabled", h, name, ex, func(v *vlmMedia) { v.enabled = enabled != 0 })
}

func (s *Sim) vlmSetOutput(h native.Instance, name, output string, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_set_output", h, name, ex, func(v *vlmMedia) { v.output = output })
}

func (s *Sim) vlmSetInput(h native.Instance, name, input string, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_set_input", h, name, ex, func(v *vlmMedia) { v.inputs = []string{input} })
}

func (s *Sim) vlmAddInput(h native.Instance, name, input string, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_add_input", h, name, ex, func(v *vlmMedia) { v.inputs = append(v.inputs, input) })
}

func (s *Sim) vlmSetLoop(h native.Instance, name string, loop int32, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_set_loop", h, name, ex, func(v *vlmMedia) { v.loop = loop != 0 })
}

func (s *Sim) vlmSetMux(h native.Instance, name, mux string, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_set_mux", h, name, ex, func(v *vlmMedia) { v.mux = mux })
}

func (s *Sim) vlmChangeMedia(h native.Instance, name, input, output string, nopts int32, opts uintptr, enabled, loop int32, ex *native.Exception) {
	options := native.Strings(opts, nopts)
	s.vlmSet("libvlc_vlm_change_media", h, name, ex, func(v *vlmMedia) {
		v.inputs = []string{input}
		v.output = output
		v.options = options
		v.enabled = enabled != 0
		v.loop = loop != 0
	})
}

func (s *Sim) vlmPlayMedia(h native.Instance, name string, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_vlm_play_media", ex) {
		return
	}
	inst, v := s.vlmOf("libvlc_vlm_play_media", h, name, ex)
	if v == nil {
		return
	}
	if !v.enabled || s.closed {
		s.raise(ex, "Unable to play %s", name)
		return
	}
	v.gen++
	v.playing, v.paused = true, false
	v.base, v.started = 0, time.Now()
	s.logf(inst, 3, "vlm", "vlm", "media %s started", name)
	if addr, ok := rtpTarget(v.output); ok {
		s.wg.Add(1)
		go s.streamRTP(h, name, addr, v.gen)
	}
}

func (s *Sim) vlmStopMedia(h native.Instance, name string, ex *native.Exception) {
	s.vlmSet("libvlc_vlm_stop_media", h, name, ex, func(v *vlmMedia) {
		v.gen++
		v.playing, v.paused = false, false
	})
}

func (s *Sim) vlmPauseMedia(h native.Instance, name string, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_vlm_pause_media", ex) {
		return
	}
	_, v := s.vlmOf("libvlc_vlm_pause_media", h, name, ex)
	if v == nil {
		return
	}
	if !v.playing {
		s.raise(ex, "Unable to pause %s", name)
		return
	}
	v.freeze(s.opts.Length)
	v.paused = !v.paused
}

func (s *Sim) vlmSeekMedia(h native.Instance, name string, percentage float32, ex *native.Exception) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_vlm_seek_media", ex) {
		return
	}
	_, v := s.vlmOf("libvlc_vlm_seek_media", h, name, ex)
	if v == nil {
		return
	}
	if !v.playing {
		s.raise(ex, "Unable to seek %s", name)
		return
	}
	v.base = min(max(percentage, 0), 100) / 100
	v.started = time.Now()
}

type vlmShow struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Enabled   bool     `json:"enabled"`
	Loop      bool     `json:"loop,omitempty"`
	Mux       string   `json:"mux,omitempty"`
	Inputs    []string `json:"inputs"`
	Output    string   `json:"output,omitempty"`
	Options   []string `json:"options"`
	Instances []string `json:"instances"`
}

func (s *Sim) vlmShowMedia(h native.Instance, name string, ex *native.Exception) uintptr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enter("libvlc_vlm_show_media", ex) {
		return 0
	}
	inst := s.instance("libvlc_vlm_show_media", h, ex)
	if inst == nil {
		return 0
	}
	names := make([]string, 0, len(inst.vlm))
	for n := range inst.vlm {
		if name == "" || n == name {
			names = append(names, n)
		}
	}
	if name != "" && len(names) == 0 {
		s.raise(ex, "Unable to find media %s", name)
		return 0
	}
	slices.Sort(names)
	shows := make([]vlmShow, 0, len(names))
	for _, n := range names {
		v := inst.vlm[n]
		sh := vlmShow{
			Name: n, Type: "broadcast", Enabled: v.enabled, Loop: v.loop, Mux: v.mux,
			Inputs: v.inputs, Output: v.output, Options: v.options, Instances: []string{},
		}
		if v.vod {
			sh.Type = "vod"
		}
		if v.playing {
			state := "playing"
			if v.paused {
				state = "paused"
			}
			sh.Instances = append(sh.Instances, state)
		}
		shows = append(shows, sh)
	}
	var out any = map[string]any{"media": shows}
	if name != "" {
		out = shows[0]
	}
	b, err := json.Marshal(out)
	if err != nil {
		s.raise(ex, "show: %v", err)
		return 0
	}
	return s.newString(string(b))
}

// running returns the media if instance id of it is running. s.mu is
// held.
func (s *Sim) running(op, attr string, h native.Instance, name string, id int32, ex *native.Exception) *vlmMedia {
	if !s.enter(op, ex) {
		return nil
	}
	_, v := s.vlmOf(op, h, name, ex)
	if v == nil {
		return nil
	}
	if id != 0 || !v.playing {
		s.raise(ex, "Unable to get %s %s attribute", name, attr)
		return nil
	}
	return v
}

func (s *Sim) vlmInstancePosition(h native.Instance, name string, id int32, ex *native.Exception) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.running("libvlc_vlm_get_media_instance_position", "position", h, name, id, ex); v != nil {
		return v.position(s.opts.Length)
	}
	return -1
}

func (s *Sim) vlmInstanceTime(h native.Instance, name string, id int32, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.running("libvlc_vlm_get_media_instance_time", "time", h, name, id, ex); v != nil {
		return int32(float64(v.position(s.opts.Length)) * float64(s.opts.Length.Milliseconds()))
	}
	return -1
}

func (s *Sim) vlmInstanceLength(h native.Instance, name string, id int32, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.running("libvlc_vlm_get_media_instance_length", "length", h, name, id, ex); v != nil {
		return int32(s.opts.Length.Milliseconds())
	}
	return -1
}

func (s *Sim) vlmInstanceRate(h native.Instance, name string, id int32, ex *native.Exception) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.running("libvlc_vlm_get_media_instance_rate", "rate", h, name, id, ex)
	switch {
	case v == nil:
		return -1
	case v.paused:
		return 0
	default:
		return 1000
	}
}

// streamRTP sends a steady RTP stream to addr for as long as the VLM
// media keeps generation gen.
func (s *Sim) streamRTP(h native.Instance, name, addr string, gen int) {
	defer s.wg.Done()

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return
	}
	defer conn.Close()

	hash := fnv.New32a()
	hash.Write([]byte(name + "@" + strconv.Itoa(int(h))))
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:     2,
			PayloadType: 96,
			SSRC:        hash.Sum32(),
		},
		Payload: make([]byte, 160),
	}

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-s.closing:
			return
		}
		s.mu.Lock()
		inst, ok := s.instances[h]
		var v *vlmMedia
		if ok {
			v = inst.vlm[name]
		}
		live := v != nil && v.gen == gen
		paused := live && v.paused
		s.mu.Unlock()
		if !live {
			return
		}
		if paused {
			continue
		}

		pkt.Marker = pkt.SequenceNumber%30 == 29
		for i := range pkt.Payload {
			pkt.Payload[i] = byte(pkt.SequenceNumber) + byte(i)
		}
		buf, err := pkt.Marshal()
		if err != nil {
			return
		}
		if _, err := conn.Write(buf); err != nil {
			return
		}
		pkt.SequenceNumber++
		pkt.Timestamp += 1800
	}
}
