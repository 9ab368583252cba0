package stream

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// browserOffer builds the offer a receive-only browser would send.
func browserOffer(t *testing.T) webrtc.SessionDescription {
	t.Helper()
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })

	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	require.NoError(t, err)

	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)
	gathered := webrtc.GatheringCompletePromise(pc)
	require.NoError(t, pc.SetLocalDescription(offer))
	<-gathered
	return *pc.LocalDescription()
}

func newRelay(t *testing.T) *WebRTCRelay {
	t.Helper()
	r, err := NewWebRTCRelay(RelayConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRelayHandleOffer(t *testing.T) {
	r := newRelay(t)
	answer, err := r.HandleOffer(browserOffer(t))
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.Contains(t, answer.SDP, "H264")
	assert.Equal(t, 1, r.Peers())
	assert.Zero(t, r.Viewers(), "not connected yet")
}

func TestRelayServeHTTP(t *testing.T) {
	r := newRelay(t)

	body, err := json.Marshal(browserOffer(t))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offer", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var answer webrtc.SessionDescription
	require.NoError(t, json.NewDecoder(w.Body).Decode(&answer))
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offer", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/offer", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRelayClosed(t *testing.T) {
	r := newRelay(t)
	_, err := r.HandleOffer(browserOffer(t))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Zero(t, r.Peers())

	_, err = r.HandleOffer(browserOffer(t))
	require.ErrorIs(t, err, ErrRelayClosed)

	body, err := json.Marshal(browserOffer(t))
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offer", bytes.NewReader(body)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRelayWritesWithoutViewers(t *testing.T) {
	r := newRelay(t)
	require.NoError(t, r.WriteRTP(&rtp.Packet{
		Header:  rtp.Header{Version: 2, PayloadType: 96, SequenceNumber: 1},
		Payload: []byte{0x65, 0x00},
	}))
	idr := annexB([][]byte{{0x65, 0x88, 0x84}}, testSPS, testPPS, true)
	require.NoError(t, r.WriteAccessUnit(idr, 0))
	require.NoError(t, r.WriteAccessUnit(idr, 3000))
}

func TestRelayAccessUnitsNeedH264(t *testing.T) {
	r, err := NewWebRTCRelay(RelayConfig{MimeType: webrtc.MimeTypeVP8})
	require.NoError(t, err)
	defer r.Close()
	require.Error(t, r.WriteAccessUnit([]byte{0, 0, 0, 1, 0x65}, 0))
}
