package vlc

import (
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/thesyncim/vlc/internal/native"
)

// Broadcast declares a VLM broadcast: one input streamed to an sout
// chain.
type Broadcast struct {
	Input   string
	Output  string
	Options []string
	Enabled bool
	Loop    bool
}

// VOD declares a VLM video-on-demand item served through the RTSP
// interface.
type VOD struct {
	Input   string
	Options []string
	Enabled bool
	Mux     string
}

// VLM is the session's video-layer manager. A session has at most one live
// VLM; see Session.VLM and Session.NewVLM.
type VLM struct {
	lib  *Library
	inst *handle[native.Instance]
	h    *handle[native.Instance]

	mu    sync.Mutex
	names map[string]struct{}
}

func newVLM(s *Session, inst native.Instance) *VLM {
	lib := s.lib
	return &VLM{
		lib:   lib,
		inst:  s.h,
		names: make(map[string]struct{}),
		h: newHandle("vlm", inst, func(inst native.Instance) {
			err := lib.call("libvlc_vlm_release", func(ex *native.Exception) {
				lib.api.VLMRelease(inst, ex)
			})
			if err != nil {
				Logger().Warn("vlm release failed", zap.Error(err))
			}
		}),
	}
}

// run pins the session as well as the VLM: every VLM entry point takes the
// instance handle.
func (v *VLM) run(op string, fn func(inst native.Instance, ex *native.Exception)) error {
	unpin, err := v.inst.pin()
	if err != nil {
		return err
	}
	defer unpin()
	return do(v.lib, v.h, op, fn)
}

func vlmGet[T any](v *VLM, op string, fn func(inst native.Instance, ex *native.Exception) T) (T, error) {
	unpin, err := v.inst.pin()
	if err != nil {
		var zero T
		return zero, err
	}
	defer unpin()
	return get(v.lib, v.h, op, fn)
}

func (v *VLM) track(name string, declared bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if declared {
		v.names[name] = struct{}{}
	} else {
		delete(v.names, name)
	}
}

// Names returns the media declared through this VLM, sorted.
func (v *VLM) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, 0, len(v.names))
	for name := range v.names {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (v *VLM) AddBroadcast(name string, b Broadcast) error {
	opts := native.NewCStrings(b.Options)
	defer opts.KeepAlive()
	err := v.run("libvlc_vlm_add_broadcast", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMAddBroadcast(inst, name, b.Input, b.Output, opts.Len(), opts.Pointer(), cbool(b.Enabled), cbool(b.Loop), ex)
	})
	if err == nil {
		v.track(name, true)
	}
	return err
}

func (v *VLM) AddVOD(name string, vod VOD) error {
	opts := native.NewCStrings(vod.Options)
	defer opts.KeepAlive()
	err := v.run("libvlc_vlm_add_vod", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMAddVod(inst, name, vod.Input, opts.Len(), opts.Pointer(), cbool(vod.Enabled), vod.Mux, ex)
	})
	if err == nil {
		v.track(name, true)
	}
	return err
}

// Change redefines an existing broadcast in one call.
func (v *VLM) Change(name string, b Broadcast) error {
	opts := native.NewCStrings(b.Options)
	defer opts.KeepAlive()
	return v.run("libvlc_vlm_change_media", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMChangeMedia(inst, name, b.Input, b.Output, opts.Len(), opts.Pointer(), cbool(b.Enabled), cbool(b.Loop), ex)
	})
}

func (v *VLM) Delete(name string) error {
	err := v.run("libvlc_vlm_del_media", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMDelMedia(inst, name, ex)
	})
	if err == nil {
		v.track(name, false)
	}
	return err
}

func (v *VLM) SetEnabled(name string, enabled bool) error {
	return v.run("libvlc_vlm_set_enabled", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMSetEnabled(inst, name, cbool(enabled), ex)
	})
}

func (v *VLM) SetOutput(name, output string) error {
	return v.run("libvlc_vlm_set_output", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMSetOutput(inst, name, output, ex)
	})
}

// SetInput replaces every input of name with input.
func (v *VLM) SetInput(name, input string) error {
	return v.run("libvlc_vlm_set_input", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMSetInput(inst, name, input, ex)
	})
}

// AddInput appends an input to name's playlist.
func (v *VLM) AddInput(name, input string) error {
	return v.run("libvlc_vlm_add_input", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMAddInput(inst, name, input, ex)
	})
}

func (v *VLM) SetLoop(name string, loop bool) error {
	return v.run("libvlc_vlm_set_loop", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMSetLoop(inst, name, cbool(loop), ex)
	})
}

func (v *VLM) SetMux(name, mux string) error {
	return v.run("libvlc_vlm_set_mux", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMSetMux(inst, name, mux, ex)
	})
}

func (v *VLM) Play(name string) error {
	return v.run("libvlc_vlm_play_media", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMPlayMedia(inst, name, ex)
	})
}

func (v *VLM) Stop(name string) error {
	return v.run("libvlc_vlm_stop_media", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMStopMedia(inst, name, ex)
	})
}

func (v *VLM) Pause(name string) error {
	return v.run("libvlc_vlm_pause_media", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMPauseMedia(inst, name, ex)
	})
}

// Seek moves name to percentage, in [0, 100].
func (v *VLM) Seek(name string, percentage float32) error {
	return v.run("libvlc_vlm_seek_media", func(inst native.Instance, ex *native.Exception) {
		v.lib.api.VLMSeekMedia(inst, name, percentage, ex)
	})
}

// Show returns libvlc's description of name, or of every media when name
// is empty.
func (v *VLM) Show(name string) (string, error) {
	unpin, err := v.inst.pin()
	if err != nil {
		return "", err
	}
	defer unpin()
	return getString(v.lib, v.h, "libvlc_vlm_show_media", func(inst native.Instance, ex *native.Exception) uintptr {
		return v.lib.api.VLMShowMedia(inst, name, ex)
	})
}

// InstancePosition returns the position of running instance id of name.
func (v *VLM) InstancePosition(name string, id int) (float32, error) {
	return vlmGet(v, "libvlc_vlm_get_media_instance_position", func(inst native.Instance, ex *native.Exception) float32 {
		return v.lib.api.VLMGetMediaInstancePosition(inst, name, int32(id), ex)
	})
}

func (v *VLM) InstanceTime(name string, id int) (int, error) {
	t, err := vlmGet(v, "libvlc_vlm_get_media_instance_time", func(inst native.Instance, ex *native.Exception) int32 {
		return v.lib.api.VLMGetMediaInstanceTime(inst, name, int32(id), ex)
	})
	return int(t), err
}

func (v *VLM) InstanceLength(name string, id int) (int, error) {
	n, err := vlmGet(v, "libvlc_vlm_get_media_instance_length", func(inst native.Instance, ex *native.Exception) int32 {
		return v.lib.api.VLMGetMediaInstanceLength(inst, name, int32(id), ex)
	})
	return int(n), err
}

func (v *VLM) InstanceRate(name string, id int) (int, error) {
	r, err := vlmGet(v, "libvlc_vlm_get_media_instance_rate", func(inst native.Instance, ex *native.Exception) int32 {
		return v.lib.api.VLMGetMediaInstanceRate(inst, name, int32(id), ex)
	})
	return int(r), err
}

// Released reports whether Release has run.
func (v *VLM) Released() bool { return v.h.isReleased() }

// Release stops and deletes every VLM media. Calling Release again is a
// no-op.
func (v *VLM) Release() {
	if v.h.release() {
		v.mu.Lock()
		clear(v.names)
		v.mu.Unlock()
	}
}
