package stream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

// AccessUnit is one H.264 picture received over RTMP.
type AccessUnit struct {
	Data      []byte // Annex-B; keyframes carry SPS and PPS
	Key       bool
	Timestamp uint32 // 90 kHz
}

// IngestStats summarizes an RTMPIngest.
type IngestStats struct {
	Publishing   bool
	Name         string
	Publishes    int
	VideoTags    uint64
	AudioTags    uint64
	Bytes        uint64
	AccessUnits  uint64
	Keyframes    uint64
	HaveParamSet bool
}

// IngestConfig configures ListenRTMP.
type IngestConfig struct {
	// Logger receives connection logs. Nothing is logged when nil.
	Logger logrus.FieldLogger
}

// RTMPIngest accepts the RTMP push of a VLM #std{access=rtmp} broadcast.
// The latest publisher wins; earlier ones are ignored from then on.
type RTMPIngest struct {
	ln  net.Listener
	srv *rtmp.Server
	log logrus.FieldLogger

	mu       sync.Mutex
	stats    IngestStats
	current  *ingestStream
	handlers []func(AccessUnit)
	closed   bool
}

type ingestStream struct {
	name     string
	sps, pps []byte
}

func ListenRTMP(addr string, cfg IngestConfig) (*RTMPIngest, error) {
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	in := &RTMPIngest{ln: ln, log: cfg.Logger}
	in.srv = rtmp.NewServer(&rtmp.ServerConfig{
		OnConnect: func(conn net.Conn) (io.ReadWriteCloser, *rtmp.ConnConfig) {
			in.log.WithField("remote", conn.RemoteAddr().String()).Info("rtmp connect")
			return conn, &rtmp.ConnConfig{
				Handler: &ingestHandler{in: in},
				ControlState: rtmp.StreamControlStateConfig{
					DefaultBandwidthWindowSize: 6 * 1024 * 1024,
				},
				Logger: in.log,
			}
		},
	})
	return in, nil
}

func (in *RTMPIngest) Addr() net.Addr {
	return in.ln.Addr()
}

// URL is where a publisher pushes app/key, e.g. for RTMP(in.URL("live", "cam")).
func (in *RTMPIngest) URL(app, key string) string {
	a := in.ln.Addr().(*net.TCPAddr)
	host := a.IP.String()
	if a.IP.IsUnspecified() {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("rtmp://%s/%s/%s", net.JoinHostPort(host, fmt.Sprint(a.Port)), app, key)
}

// OnAccessUnit registers fn for every video access unit. Handlers run on
// the connection goroutine.
func (in *RTMPIngest) OnAccessUnit(fn func(AccessUnit)) {
	in.mu.Lock()
	in.handlers = append(in.handlers, fn)
	in.mu.Unlock()
}

func (in *RTMPIngest) Stats() IngestStats {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.stats
}

// Serve accepts connections until Close, then returns nil.
func (in *RTMPIngest) Serve() error {
	in.mu.Lock()
	closed := in.closed
	in.mu.Unlock()
	if closed {
		return nil
	}
	err := in.srv.Serve(in.ln)
	if errors.Is(err, rtmp.ErrClosed) {
		return nil
	}
	in.mu.Lock()
	closed = in.closed
	in.mu.Unlock()
	if closed {
		return nil
	}
	return err
}

// Close stops accepting publishers and makes Serve return.
func (in *RTMPIngest) Close() error {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return nil
	}
	in.closed = true
	in.mu.Unlock()
	// The server only leaves its accept loop once it has been closed
	// itself; a closed listener alone is retried forever.
	err := in.srv.Close()
	if lerr := in.ln.Close(); lerr != nil && !errors.Is(lerr, net.ErrClosed) {
		err = errors.Join(err, lerr)
	}
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (in *RTMPIngest) publish(name string) *ingestStream {
	st := &ingestStream{name: name}
	in.mu.Lock()
	in.current = st
	in.stats.Publishing = true
	in.stats.Name = name
	in.stats.Publishes++
	in.stats.HaveParamSet = false
	in.mu.Unlock()
	in.log.WithField("name", name).Info("rtmp publish")
	return st
}

func (in *RTMPIngest) unpublish(st *ingestStream) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.current == st {
		in.current = nil
		in.stats.Publishing = false
	}
}

// video handles one FLV video tag body from st.
func (in *RTMPIngest) video(st *ingestStream, ms uint32, tag []byte) {
	in.mu.Lock()
	if st == nil || in.current != st {
		in.mu.Unlock()
		return
	}
	in.stats.VideoTags++
	in.stats.Bytes += uint64(len(tag))
	if len(tag) < 5 || tag[0]&0x0f != flvCodecAVC {
		in.mu.Unlock()
		return
	}
	key := tag[0]>>4 == flvFrameKey
	body := tag[5:]

	var au AccessUnit
	switch tag[1] {
	case avcSequenceHeader:
		st.sps, st.pps = parameterSets(body)
		in.stats.HaveParamSet = st.sps != nil && st.pps != nil
		in.mu.Unlock()
		return
	case avcNALU:
		if st.sps == nil {
			in.mu.Unlock()
			return
		}
		nalus := splitAVCC(body)
		if len(nalus) == 0 {
			in.mu.Unlock()
			return
		}
		au = AccessUnit{Data: annexB(nalus, st.sps, st.pps, key), Key: key, Timestamp: ms * 90}
		in.stats.AccessUnits++
		if key {
			in.stats.Keyframes++
		}
	default:
		in.mu.Unlock()
		return
	}
	handlers := in.handlers
	in.mu.Unlock()

	for _, fn := range handlers {
		fn(au)
	}
}

func (in *RTMPIngest) audio(st *ingestStream, n int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if st != nil && in.current == st {
		in.stats.AudioTags++
		in.stats.Bytes += uint64(n)
	}
}

// ingestHandler serves one RTMP connection.
type ingestHandler struct {
	rtmp.DefaultHandler
	in *RTMPIngest
	st *ingestStream
}

func (h *ingestHandler) OnPublish(_ *rtmp.StreamContext, _ uint32, cmd *rtmpmsg.NetStreamPublish) error {
	if cmd.PublishingName == "" {
		return errors.New("stream: empty publishing name")
	}
	h.st = h.in.publish(cmd.PublishingName)
	return nil
}

func (h *ingestHandler) OnVideo(timestamp uint32, payload io.Reader) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, payload); err != nil {
		return err
	}
	h.in.video(h.st, timestamp, buf.Bytes())
	return nil
}

func (h *ingestHandler) OnAudio(_ uint32, payload io.Reader) error {
	n, err := io.Copy(io.Discard, payload)
	if err != nil {
		return err
	}
	h.in.audio(h.st, int(n))
	return nil
}

func (h *ingestHandler) OnClose() {
	if h.st != nil {
		h.in.log.WithField("name", h.st.name).Info("rtmp unpublish")
		h.in.unpublish(h.st)
	}
}
