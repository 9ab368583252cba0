package stream

import (
	"bytes"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

func newIngest(t *testing.T) *RTMPIngest {
	t.Helper()
	in, err := ListenRTMP("127.0.0.1:0", IngestConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { in.Close() })
	return in
}

// flvVideo builds an FLV AVC video tag body.
func flvVideo(key bool, packetType byte, body []byte) []byte {
	frame := byte(2)
	if key {
		frame = 1
	}
	return append([]byte{frame<<4 | flvCodecAVC, packetType, 0, 0, 0}, body...)
}

func TestIngestHandlerFlow(t *testing.T) {
	in := newIngest(t)
	var units []AccessUnit
	in.OnAccessUnit(func(au AccessUnit) { units = append(units, au) })

	h := &ingestHandler{in: in}
	require.NoError(t, h.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "cam"}))
	st := in.Stats()
	assert.True(t, st.Publishing)
	assert.Equal(t, "cam", st.Name)

	idr := []byte{0x65, 0x88, 0x84, 0x00}
	// NALUs before the sequence header are dropped.
	require.NoError(t, h.OnVideo(0, bytes.NewReader(flvVideo(true, avcNALU, avcc(idr)))))
	require.NoError(t, h.OnVideo(0, bytes.NewReader(flvVideo(true, avcSequenceHeader, decoderRecord(testSPS, testPPS)))))
	require.NoError(t, h.OnVideo(1000, bytes.NewReader(flvVideo(true, avcNALU, avcc(idr)))))
	require.NoError(t, h.OnVideo(1040, bytes.NewReader(flvVideo(false, avcNALU, avcc([]byte{0x41, 0x9a})))))
	require.NoError(t, h.OnAudio(1040, bytes.NewReader([]byte{0xaf, 0x01, 0x21})))

	require.Len(t, units, 2)
	assert.True(t, units[0].Key)
	assert.Equal(t, uint32(90000), units[0].Timestamp)
	assert.Equal(t, annexB([][]byte{idr}, testSPS, testPPS, true), units[0].Data)
	assert.False(t, units[1].Key)
	assert.Equal(t, []byte{0, 0, 0, 1, 0x41, 0x9a}, units[1].Data)

	st = in.Stats()
	assert.Equal(t, uint64(4), st.VideoTags)
	assert.Equal(t, uint64(1), st.AudioTags)
	assert.Equal(t, uint64(2), st.AccessUnits)
	assert.Equal(t, uint64(1), st.Keyframes)
	assert.True(t, st.HaveParamSet)

	h.OnClose()
	assert.False(t, in.Stats().Publishing)
}

func TestIngestLatestPublisherWins(t *testing.T) {
	in := newIngest(t)
	first := &ingestHandler{in: in}
	second := &ingestHandler{in: in}
	require.NoError(t, first.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "a"}))
	require.NoError(t, second.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "b"}))

	require.NoError(t, first.OnAudio(0, bytes.NewReader([]byte{1, 2})))
	assert.Zero(t, in.Stats().AudioTags)

	first.OnClose()
	st := in.Stats()
	assert.True(t, st.Publishing, "closing a stale publisher leaves the current one")
	assert.Equal(t, "b", st.Name)
	assert.Equal(t, 2, st.Publishes)

	require.Error(t, first.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{}))
}

func TestIngestIgnoresOtherCodecs(t *testing.T) {
	in := newIngest(t)
	h := &ingestHandler{in: in}
	require.NoError(t, h.OnPublish(nil, 0, &rtmpmsg.NetStreamPublish{PublishingName: "vp6"}))
	require.NoError(t, h.OnVideo(0, bytes.NewReader([]byte{0x14, 0, 0, 0, 0, 1})))
	require.NoError(t, h.OnVideo(0, bytes.NewReader([]byte{0x17})))
	st := in.Stats()
	assert.Equal(t, uint64(2), st.VideoTags)
	assert.Zero(t, st.AccessUnits)
}

func TestIngestServe(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	in, err := ListenRTMP("127.0.0.1:0", IngestConfig{Logger: logger})
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- in.Serve() }()

	url := in.URL("live", "cam")
	assert.True(t, strings.HasPrefix(url, "rtmp://127.0.0.1:"), url)
	assert.True(t, strings.HasSuffix(url, "/live/cam"), url)

	conn, err := net.DialTimeout("tcp", in.Addr().String(), time.Second)
	require.NoError(t, err)
	conn.Close()
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message == "rtmp connect" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, in.Close())
	require.NoError(t, in.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestIngestCloseBeforeServe(t *testing.T) {
	in, err := ListenRTMP("127.0.0.1:0", IngestConfig{})
	require.NoError(t, err)
	require.NoError(t, in.Close())

	done := make(chan error, 1)
	go func() { done <- in.Serve() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve ran on a closed ingest")
	}
	_, err = net.DialTimeout("tcp", in.Addr().String(), 200*time.Millisecond)
	assert.Error(t, err)
}
