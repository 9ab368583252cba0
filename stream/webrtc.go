package stream

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"

	"github.com/thesyncim/vlc"
)

// ErrRelayClosed is returned by a WebRTCRelay after Close.
var ErrRelayClosed = errors.New("stream: relay closed")

// RelayConfig configures a WebRTCRelay. The zero value relays H.264.
type RelayConfig struct {
	MimeType  string // webrtc.MimeTypeH264 when empty
	ClockRate uint32 // 90000 when zero
	StreamID  string
	ICE       []webrtc.ICEServer
	MTU       uint16 // used by WriteAccessUnit
}

// WebRTCRelay fans RTP out to browser peers through one shared local track.
// Every answered peer gets the same packets.
type WebRTCRelay struct {
	cfg   RelayConfig
	track *webrtc.TrackLocalStaticRTP

	mu     sync.Mutex
	peers  map[*webrtc.PeerConnection]struct{}
	closed bool

	viewers  atomic.Int32
	keyframe chan struct{}

	packetizer rtp.Packetizer
	lastTS     uint32
}

func NewWebRTCRelay(cfg RelayConfig) (*WebRTCRelay, error) {
	if cfg.MimeType == "" {
		cfg.MimeType = webrtc.MimeTypeH264
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = 90000
	}
	if cfg.StreamID == "" {
		cfg.StreamID = "vlc"
	}
	if cfg.MTU == 0 {
		cfg.MTU = 1200
	}
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: cfg.MimeType, ClockRate: cfg.ClockRate},
		"video", cfg.StreamID,
	)
	if err != nil {
		return nil, err
	}
	return &WebRTCRelay{
		cfg:      cfg,
		track:    track,
		peers:    make(map[*webrtc.PeerConnection]struct{}),
		keyframe: make(chan struct{}, 1),
	}, nil
}

// Viewers is the number of connected peers.
func (r *WebRTCRelay) Viewers() int {
	return int(r.viewers.Load())
}

// KeyframeRequests signals whenever a viewer sent RTCP feedback, which is
// how browsers ask for a keyframe.
func (r *WebRTCRelay) KeyframeRequests() <-chan struct{} {
	return r.keyframe
}

// HandleOffer answers a browser offer and adds the peer to the relay. ICE
// gathering completes before the answer is returned.
func (r *WebRTCRelay) HandleOffer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRelayClosed
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: r.cfg.ICE})
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*webrtc.SessionDescription, error) {
		_ = pc.Close()
		return nil, err
	}

	sender, err := pc.AddTrack(r.track)
	if err != nil {
		return fail(err)
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
			select {
			case r.keyframe <- struct{}{}:
			default:
			}
		}
	}()

	var counted atomic.Bool
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		vlc.Logger().Debug("viewer state", zap.Stringer("state", state))
		switch state {
		case webrtc.PeerConnectionStateConnected:
			if counted.CompareAndSwap(false, true) {
				r.viewers.Add(1)
			}
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			if counted.CompareAndSwap(true, false) {
				r.viewers.Add(-1)
			}
			r.forget(pc)
		}
	})

	if err := pc.SetRemoteDescription(offer); err != nil {
		return fail(err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return fail(err)
	}
	done := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return fail(err)
	}
	<-done

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fail(ErrRelayClosed)
	}
	r.peers[pc] = struct{}{}
	r.mu.Unlock()
	return pc.LocalDescription(), nil
}

func (r *WebRTCRelay) forget(pc *webrtc.PeerConnection) {
	r.mu.Lock()
	delete(r.peers, pc)
	r.mu.Unlock()
}

// Peers is the number of answered peers that have not closed yet,
// connected or not.
func (r *WebRTCRelay) Peers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// ServeHTTP answers POSTed JSON offers.
func (r *WebRTCRelay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "POST an offer", http.StatusMethodNotAllowed)
		return
	}
	var offer webrtc.SessionDescription
	if err := json.NewDecoder(req.Body).Decode(&offer); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	answer, err := r.HandleOffer(offer)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrRelayClosed) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(answer)
}

// WriteRTP forwards pkt to every peer. The track rewrites SSRC and payload
// type per peer.
func (r *WebRTCRelay) WriteRTP(pkt *rtp.Packet) error {
	if err := r.track.WriteRTP(pkt); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return err
	}
	return nil
}

// WriteAccessUnit packetizes one Annex-B H.264 access unit. ts is in the
// relay's clock rate.
func (r *WebRTCRelay) WriteAccessUnit(au []byte, ts uint32) error {
	if r.cfg.MimeType != webrtc.MimeTypeH264 {
		return errors.New("stream: access units need an H264 relay")
	}
	r.mu.Lock()
	if r.packetizer == nil {
		r.packetizer = rtp.NewPacketizer(r.cfg.MTU, 96, 0x12345678,
			&codecs.H264Payloader{}, rtp.NewRandomSequencer(), r.cfg.ClockRate)
		r.lastTS = ts
	}
	samples := ts - r.lastTS
	r.lastTS = ts
	packets := r.packetizer.Packetize(au, samples)
	r.mu.Unlock()

	for _, pkt := range packets {
		if err := r.WriteRTP(pkt); err != nil {
			return err
		}
	}
	return nil
}

// Forward copies every packet of rx to the relay.
func (r *WebRTCRelay) Forward(rx *RTPReceiver) {
	rx.OnPacket(func(pkt *rtp.Packet) {
		if err := r.WriteRTP(pkt); err != nil {
			vlc.Logger().Debug("relay write failed", zap.Error(err))
		}
	})
}

// Close hangs up on every peer. It is safe to call more than once.
func (r *WebRTCRelay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	peers := make([]*webrtc.PeerConnection, 0, len(r.peers))
	for pc := range r.peers {
		peers = append(peers, pc)
	}
	clear(r.peers)
	r.mu.Unlock()

	var errs []error
	for _, pc := range peers {
		errs = append(errs, pc.Close())
	}
	return errors.Join(errs...)
}
