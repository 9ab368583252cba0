package vlc

import "github.com/thesyncim/vlc/internal/native"

// AudioChannel is libvlc's audio output channel mode.
type AudioChannel int32

const (
	AudioChannelError   AudioChannel = -1
	AudioChannelStereo  AudioChannel = 1
	AudioChannelRStereo AudioChannel = 2
	AudioChannelLeft    AudioChannel = 3
	AudioChannelRight   AudioChannel = 4
	AudioChannelDolbys  AudioChannel = 5
)

// Audio controls the audio output of one session. Mute and volume are
// per session; two sessions never share them.
type Audio struct {
	lib *Library
	h   *handle[native.Instance]
}

func (a *Audio) Mute() (bool, error) {
	return getBool(a.lib, a.h, "libvlc_audio_get_mute", a.lib.api.AudioGetMute)
}

func (a *Audio) SetMute(mute bool) error {
	return do(a.lib, a.h, "libvlc_audio_set_mute", func(inst native.Instance, ex *native.Exception) {
		a.lib.api.AudioSetMute(inst, cbool(mute), ex)
	})
}

func (a *Audio) ToggleMute() error {
	return do(a.lib, a.h, "libvlc_audio_toggle_mute", a.lib.api.AudioToggleMute)
}

// Volume returns the volume in percent, 0 to 200.
func (a *Audio) Volume() (int, error) {
	v, err := get(a.lib, a.h, "libvlc_audio_get_volume", a.lib.api.AudioGetVolume)
	return int(v), err
}

func (a *Audio) SetVolume(volume int) error {
	return do(a.lib, a.h, "libvlc_audio_set_volume", func(inst native.Instance, ex *native.Exception) {
		a.lib.api.AudioSetVolume(inst, int32(volume), ex)
	})
}

func (a *Audio) Channel() (AudioChannel, error) {
	v, err := get(a.lib, a.h, "libvlc_audio_get_channel", a.lib.api.AudioGetChannel)
	return AudioChannel(v), err
}

func (a *Audio) SetChannel(ch AudioChannel) error {
	return do(a.lib, a.h, "libvlc_audio_set_channel", func(inst native.Instance, ex *native.Exception) {
		a.lib.api.AudioSetChannel(inst, int32(ch), ex)
	})
}
