package vlc

import "github.com/thesyncim/vlc/internal/native"

// Video controls the video output of a player. Most calls fail until the
// player has a video output.
type Video struct {
	lib *Library
	h   *handle[native.Player]
}

func (v *Video) Width() (int, error) {
	w, err := get(v.lib, v.h, "libvlc_video_get_width", v.lib.api.VideoGetWidth)
	return int(w), err
}

func (v *Video) Height() (int, error) {
	h, err := get(v.lib, v.h, "libvlc_video_get_height", v.lib.api.VideoGetHeight)
	return int(h), err
}

func (v *Video) Fullscreen() (bool, error) {
	return getBool(v.lib, v.h, "libvlc_get_fullscreen", v.lib.api.VideoGetFullscreen)
}

func (v *Video) SetFullscreen(on bool) error {
	return do(v.lib, v.h, "libvlc_set_fullscreen", func(pl native.Player, ex *native.Exception) {
		v.lib.api.VideoSetFullscreen(pl, cbool(on), ex)
	})
}

func (v *Video) ToggleFullscreen() error {
	return do(v.lib, v.h, "libvlc_toggle_fullscreen", v.lib.api.VideoToggleFullscreen)
}

// TakeSnapshot writes the current frame to path. Zero width or height
// keeps the source size.
func (v *Video) TakeSnapshot(path string, width, height uint32) error {
	return do(v.lib, v.h, "libvlc_video_take_snapshot", func(pl native.Player, ex *native.Exception) {
		v.lib.api.VideoTakeSnapshot(pl, path, width, height, ex)
	})
}

// AspectRatio returns the forced aspect ratio, or "" for the source's.
func (v *Video) AspectRatio() (string, error) {
	return getString(v.lib, v.h, "libvlc_video_get_aspect_ratio", v.lib.api.VideoGetAspectRatio)
}

// SetAspectRatio forces an aspect ratio such as "16:9".
func (v *Video) SetAspectRatio(ratio string) error {
	return do(v.lib, v.h, "libvlc_video_set_aspect_ratio", func(pl native.Player, ex *native.Exception) {
		v.lib.api.VideoSetAspectRatio(pl, ratio, ex)
	})
}

// Subtitle returns the current subtitle track, or -1 when none is shown.
func (v *Video) Subtitle() (int, error) {
	spu, err := get(v.lib, v.h, "libvlc_video_get_spu", v.lib.api.VideoGetSpu)
	return int(spu), err
}

func (v *Video) SetSubtitle(track int) error {
	return do(v.lib, v.h, "libvlc_video_set_spu", func(pl native.Player, ex *native.Exception) {
		v.lib.api.VideoSetSpu(pl, int32(track), ex)
	})
}

// Scale returns the zoom factor; zero means fit to window.
func (v *Video) Scale() (float32, error) {
	return get(v.lib, v.h, "libvlc_video_get_scale", v.lib.api.VideoGetScale)
}

func (v *Video) SetScale(scale float32) error {
	return do(v.lib, v.h, "libvlc_video_set_scale", func(pl native.Player, ex *native.Exception) {
		v.lib.api.VideoSetScale(pl, scale, ex)
	})
}
