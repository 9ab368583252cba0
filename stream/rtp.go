package stream

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
	"go.uber.org/zap"

	"github.com/thesyncim/vlc"
)

// RTPStats summarizes what an RTPReceiver has seen.
type RTPStats struct {
	Packets     uint64
	Bytes       uint64 // payload bytes
	Lost        uint64 // sequence numbers skipped
	Malformed   uint64
	SSRC        uint32
	PayloadType uint8
	LastSeq     uint16
	LastPacket  time.Time
}

// RTPReceiver reads the RTP stream of a VLM #rtp{} broadcast from a UDP
// socket.
type RTPReceiver struct {
	conn *net.UDPConn

	mu       sync.Mutex
	stats    RTPStats
	seen     bool
	handlers []func(*rtp.Packet)

	closeOnce sync.Once
}

// ListenRTP binds addr, e.g. "127.0.0.1:0" for any free port.
func ListenRTP(addr string) (*RTPReceiver, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", ua)
	if err != nil {
		return nil, err
	}
	return &RTPReceiver{conn: conn}, nil
}

func (r *RTPReceiver) Addr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

func (r *RTPReceiver) Port() int {
	return r.Addr().Port
}

// Target is the rtp{} module that makes a broadcast stream to r.
func (r *RTPReceiver) Target() Module {
	a := r.Addr()
	host := a.IP.String()
	if a.IP.IsUnspecified() {
		host = "127.0.0.1"
	}
	return RTP(host, a.Port)
}

// OnPacket registers fn for every well-formed packet. Handlers run on the
// Run goroutine and must not keep the packet.
func (r *RTPReceiver) OnPacket(fn func(*rtp.Packet)) {
	r.mu.Lock()
	r.handlers = append(r.handlers, fn)
	r.mu.Unlock()
}

func (r *RTPReceiver) Stats() RTPStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Run reads packets until ctx is done or r is closed. Either of those ends
// Run with a nil error.
func (r *RTPReceiver) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = r.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, 1500)
	var pkt rtp.Packet
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			r.mu.Lock()
			r.stats.Malformed++
			r.mu.Unlock()
			vlc.Logger().Debug("dropping malformed rtp packet", zap.Int("size", n), zap.Error(err))
			continue
		}
		for _, fn := range r.account(&pkt) {
			fn(&pkt)
		}
	}
}

// account updates the stats for pkt and returns the handlers to call.
func (r *RTPReceiver) account(pkt *rtp.Packet) []func(*rtp.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &r.stats
	if !r.seen || s.SSRC != pkt.SSRC {
		// New source: start the sequence over.
		r.seen = true
		s.SSRC = pkt.SSRC
	} else if gap := pkt.SequenceNumber - s.LastSeq - 1; gap < 0x8000 {
		s.Lost += uint64(gap)
	} else {
		// Late or duplicate.
		s.Packets++
		s.Bytes += uint64(len(pkt.Payload))
		return r.handlers
	}
	s.Packets++
	s.Bytes += uint64(len(pkt.Payload))
	s.PayloadType = pkt.PayloadType
	s.LastSeq = pkt.SequenceNumber
	s.LastPacket = time.Now()
	return r.handlers
}

// Close releases the socket; a running Run returns.
func (r *RTPReceiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.conn.Close()
	})
	return err
}
