package native

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructLayouts(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("layout checks assume a 64-bit target")
	}

	assert.Equal(t, uintptr(16), unsafe.Sizeof(Exception{}))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(Exception{}.Message))

	assert.Equal(t, uintptr(32), unsafe.Sizeof(RawEvent{}))
	assert.Equal(t, uintptr(8), unsafe.Offsetof(RawEvent{}.Obj))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(RawEvent{}.U))

	assert.Equal(t, uintptr(40), unsafe.Sizeof(LogMessage{}))
	assert.Equal(t, uint32(40), NewLogMessage().SizeofMsg)
}

func TestRawEventUnion(t *testing.T) {
	var ev RawEvent

	ev.SetInt64(0, 123456789)
	assert.Equal(t, int64(123456789), ev.Int64(0))

	ev.SetFloat32(0, 0.25)
	assert.Equal(t, float32(0.25), ev.Float32(0))

	ev.SetPointer(0, 0xdeadbeef)
	ev.SetInt32(ListIndexOffset, 7)
	assert.Equal(t, uintptr(0xdeadbeef), ev.Pointer(0))
	assert.Equal(t, int32(7), ev.Int32(ListIndexOffset))
}

func TestCStringsRoundTrip(t *testing.T) {
	args := []string{"vlc", "--no-video-title-show", "", "--verbose=2"}
	c := NewCStrings(args)

	require.Equal(t, int32(len(args)), c.Len())
	require.NotZero(t, c.Pointer())

	got := Strings(c.Pointer(), c.Len())
	c.KeepAlive()
	assert.Equal(t, args, got)
}

func TestCStringsEmpty(t *testing.T) {
	c := NewCStrings(nil)
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Pointer())
	assert.Nil(t, Strings(c.Pointer(), c.Len()))
}

func TestGoString(t *testing.T) {
	assert.Equal(t, "", GoString(0))

	buf := []byte("file:///tmp/clip.mp4\x00trailing")
	assert.Equal(t, "file:///tmp/clip.mp4", GoString(uintptr(unsafe.Pointer(&buf[0]))))

	empty := []byte{0}
	assert.Equal(t, "", GoString(uintptr(unsafe.Pointer(&empty[0]))))
}

func TestStubMissingRaises(t *testing.T) {
	api := &API{}
	StubMissing(api)

	var ex Exception
	got := api.MediaPlayerGetTime(0, &ex)
	assert.Zero(t, got)
	assert.Equal(t, int32(1), ex.Raised)
	assert.Equal(t, int32(CodeMissingSymbol), ex.Code)
	assert.Zero(t, ex.Message)

	// No exception argument: zero return, no panic.
	assert.Zero(t, api.MediaDuplicate(0))
	assert.NotPanics(t, func() { api.MediaListLock(0) })
}

func TestStubMissingKeepsPresent(t *testing.T) {
	called := false
	api := &API{MediaPlayerPlay: func(Player, *Exception) { called = true }}
	StubMissing(api)

	var ex Exception
	api.MediaPlayerPlay(1, &ex)
	assert.True(t, called)
	assert.Zero(t, ex.Raised)
}

func TestStubMissingExceptionEntries(t *testing.T) {
	api := &API{}
	StubMissing(api)

	ex := Exception{Raised: 1, Code: 3}
	api.ExceptionInit(&ex)
	assert.Zero(t, ex)

	ex = Exception{Raised: 1, Code: 3}
	api.ExceptionClear(&ex)
	assert.Zero(t, ex)
}
