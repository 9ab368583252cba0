// Package stream consumes what a VLM broadcast produces: it builds sout
// chains, receives RTP, relays it to WebRTC peers and accepts RTMP pushes.
package stream

import (
	"strconv"
	"strings"

	"github.com/thesyncim/vlc"
)

// Param is one key=value of an sout module. An empty Value renders the
// bare key.
type Param struct {
	Key   string
	Value string
}

// Module is one element of an sout chain, rendered as name{k=v,...}.
type Module struct {
	Name   string
	Params []Param
}

func (m Module) String() string {
	if len(m.Params) == 0 {
		return m.Name
	}
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteByte('{')
	for i, p := range m.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Key)
		if p.Value != "" {
			b.WriteByte('=')
			b.WriteString(p.Value)
		}
	}
	b.WriteByte('}')
	return b.String()
}

// With returns a copy of m with an extra parameter.
func (m Module) With(key, value string) Module {
	m.Params = append(append([]Param(nil), m.Params...), Param{key, value})
	return m
}

// Chain is an sout chain. Its String form is what VLM expects as a
// broadcast output.
type Chain []Module

func (c Chain) String() string {
	parts := make([]string, len(c))
	for i, m := range c {
		parts[i] = m.String()
	}
	return "#" + strings.Join(parts, ":")
}

// Transcoding selects the codecs of a transcode module. Zero fields are
// left out.
type Transcoding struct {
	VideoCodec   string // e.g. "h264", "VP80"
	VideoBitrate int    // kbit/s
	Scale        float64
	FPS          float64
	AudioCodec   string // e.g. "opus", "mp4a"
	AudioBitrate int    // kbit/s
	Channels     int
	SampleRate   int
}

func Transcode(t Transcoding) Module {
	m := Module{Name: "transcode"}
	if t.VideoCodec != "" {
		m = m.With("vcodec", t.VideoCodec)
	}
	if t.VideoBitrate > 0 {
		m = m.With("vb", strconv.Itoa(t.VideoBitrate))
	}
	if t.Scale > 0 {
		m = m.With("scale", strconv.FormatFloat(t.Scale, 'f', -1, 64))
	}
	if t.FPS > 0 {
		m = m.With("fps", strconv.FormatFloat(t.FPS, 'f', -1, 64))
	}
	if t.AudioCodec != "" {
		m = m.With("acodec", t.AudioCodec)
	}
	if t.AudioBitrate > 0 {
		m = m.With("ab", strconv.Itoa(t.AudioBitrate))
	}
	if t.Channels > 0 {
		m = m.With("channels", strconv.Itoa(t.Channels))
	}
	if t.SampleRate > 0 {
		m = m.With("samplerate", strconv.Itoa(t.SampleRate))
	}
	return m
}

// RTP streams to host:port over plain RTP.
func RTP(host string, port int) Module {
	return Module{Name: "rtp", Params: []Param{
		{"dst", host},
		{"port", strconv.Itoa(port)},
	}}
}

// Std writes mux over access to dst, e.g. Std("http", "ts", ":8080/live").
func Std(access, mux, dst string) Module {
	return Module{Name: "std", Params: []Param{
		{"access", access},
		{"mux", mux},
		{"dst", dst},
	}}
}

// RTMP pushes an FLV stream to url.
func RTMP(url string) Module {
	return Std("rtmp", "ffmpeg{mux=flv}", url)
}

// Display renders locally as well.
func Display() Module {
	return Module{Name: "display"}
}

// Duplicate sends the stream down every chain.
func Duplicate(dsts ...Chain) Module {
	m := Module{Name: "duplicate"}
	for _, c := range dsts {
		m = m.With("dst", strings.TrimPrefix(c.String(), "#"))
	}
	return m
}

// Broadcast declares name on v with chain as its output and starts it.
func Broadcast(v *vlc.VLM, name, input string, chain Chain, options ...string) error {
	err := v.AddBroadcast(name, vlc.Broadcast{
		Input:   input,
		Output:  chain.String(),
		Options: options,
		Enabled: true,
	})
	if err != nil {
		return err
	}
	if err := v.Play(name); err != nil {
		_ = v.Delete(name)
		return err
	}
	vlc.Logger().Debug("broadcast started")
	return nil
}
