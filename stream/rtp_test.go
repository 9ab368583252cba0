package stream

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/vlc"
	"github.com/thesyncim/vlc/internal/simvlc"
)

func startReceiver(t *testing.T) (*RTPReceiver, chan error) {
	t.Helper()
	rx, err := ListenRTP("127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rx.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Run did not return")
		}
		rx.Close()
	})
	return rx, done
}

func sendRTP(t *testing.T, to *net.UDPAddr, ssrc uint32, seqs ...uint16) {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, to)
	require.NoError(t, err)
	defer conn.Close()
	for _, seq := range seqs {
		pkt := rtp.Packet{
			Header:  rtp.Header{Version: 2, PayloadType: 96, SequenceNumber: seq, SSRC: ssrc},
			Payload: []byte{1, 2, 3, 4},
		}
		buf, err := pkt.Marshal()
		require.NoError(t, err)
		_, err = conn.Write(buf)
		require.NoError(t, err)
	}
}

func waitPackets(t *testing.T, rx *RTPReceiver, n uint64) RTPStats {
	t.Helper()
	require.Eventually(t, func() bool {
		return rx.Stats().Packets >= n
	}, 2*time.Second, 5*time.Millisecond)
	return rx.Stats()
}

func TestRTPReceiverCountsLoss(t *testing.T) {
	rx, _ := startReceiver(t)

	var mu sync.Mutex
	var seqs []uint16
	rx.OnPacket(func(p *rtp.Packet) {
		mu.Lock()
		seqs = append(seqs, p.SequenceNumber)
		mu.Unlock()
	})

	// 65534 -> 65535 -> 1 wraps and skips 0; 4 and 5 are missing.
	sendRTP(t, rx.Addr(), 0xcafe, 65534, 65535, 1, 2, 3, 6)
	st := waitPackets(t, rx, 6)
	assert.Equal(t, uint64(3), st.Lost)
	assert.Equal(t, uint64(24), st.Bytes)
	assert.Equal(t, uint32(0xcafe), st.SSRC)
	assert.Equal(t, uint8(96), st.PayloadType)
	assert.Equal(t, uint16(6), st.LastSeq)
	assert.False(t, st.LastPacket.IsZero())

	mu.Lock()
	assert.Equal(t, []uint16{65534, 65535, 1, 2, 3, 6}, seqs)
	mu.Unlock()
}

func TestRTPReceiverLateAndNewSource(t *testing.T) {
	rx, _ := startReceiver(t)

	sendRTP(t, rx.Addr(), 1, 10, 11, 9)
	st := waitPackets(t, rx, 3)
	assert.Zero(t, st.Lost, "late packets are not loss")
	assert.Equal(t, uint16(11), st.LastSeq)

	sendRTP(t, rx.Addr(), 2, 500, 501)
	st = waitPackets(t, rx, 5)
	assert.Zero(t, st.Lost, "a new SSRC restarts the sequence")
	assert.Equal(t, uint32(2), st.SSRC)
}

func TestRTPReceiverMalformed(t *testing.T) {
	rx, _ := startReceiver(t)
	conn, err := net.DialUDP("udp", nil, rx.Addr())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte{0x80})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return rx.Stats().Malformed == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, rx.Stats().Packets)
}

func TestRTPReceiverClose(t *testing.T) {
	rx, err := ListenRTP("127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- rx.Run(context.Background()) }()

	require.NoError(t, rx.Close())
	require.NoError(t, rx.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestRTPReceiverTarget(t *testing.T) {
	rx, err := ListenRTP(":0")
	require.NoError(t, err)
	defer rx.Close()
	assert.Equal(t, RTP("127.0.0.1", rx.Port()), rx.Target())
}

func TestBroadcastToReceiver(t *testing.T) {
	sim := simvlc.NewWithOptions(simvlc.Options{
		StartDelay: 10 * time.Millisecond,
		Tick:       10 * time.Millisecond,
		Length:     time.Second,
	})
	defer sim.Close()
	s, err := vlc.NewLibrary(sim.API()).NewSession()
	require.NoError(t, err)
	defer s.Release()
	v, err := s.VLM()
	require.NoError(t, err)

	rx, _ := startReceiver(t)
	require.NoError(t, Broadcast(v, "cam", "sim://camera", Chain{rx.Target()}))

	st := waitPackets(t, rx, 5)
	assert.Equal(t, uint8(96), st.PayloadType)
	assert.NotZero(t, st.SSRC)
	assert.Zero(t, st.Lost)
	require.NoError(t, v.Stop("cam"))

	require.Error(t, Broadcast(v, "cam", "sim://again", Chain{rx.Target()}), "name already declared")
	assert.Empty(t, sim.Violations())
}
