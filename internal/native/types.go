package native

import "unsafe"

// Handle kinds. Each wraps a raw pointer owned by libvlc and is never
// dereferenced on the Go side. They are distinct types so that the API
// table rejects a media handle where a player handle is expected.
type (
	Instance        uintptr // libvlc_instance_t*
	Media           uintptr // libvlc_media_t*
	Player          uintptr // libvlc_media_player_t*
	MediaList       uintptr // libvlc_media_list_t*
	MediaListPlayer uintptr // libvlc_media_list_player_t*
	EventManager    uintptr // libvlc_event_manager_t*
	Log             uintptr // libvlc_log_t*
	LogIterator     uintptr // libvlc_log_iterator_t*
)

// Exception mirrors libvlc_exception_t. The zero value is the initialized
// state; libvlc owns Message until ExceptionClear runs.
type Exception struct {
	Raised  int32   // b_raised
	Code    int32   // i_code
	Message uintptr // psz_message
}

// RawEvent mirrors libvlc_event_t: a discriminant, the emitting object and
// a union whose largest member is a pointer followed by an int.
type RawEvent struct {
	Type int32
	_    int32
	Obj  uintptr
	U    [2]uint64
}

// Union accessors. Which one is valid depends on Type; callers select by
// discriminant before reading.

func (e *RawEvent) Int32(off uintptr) int32 {
	return *(*int32)(unsafe.Add(unsafe.Pointer(&e.U), off))
}

func (e *RawEvent) Int64(off uintptr) int64 {
	return *(*int64)(unsafe.Add(unsafe.Pointer(&e.U), off))
}

func (e *RawEvent) Float32(off uintptr) float32 {
	return *(*float32)(unsafe.Add(unsafe.Pointer(&e.U), off))
}

func (e *RawEvent) Pointer(off uintptr) uintptr {
	return *(*uintptr)(unsafe.Add(unsafe.Pointer(&e.U), off))
}

// SetInt32 and friends fill the union. They exist for native stand-ins
// that build events in Go memory.

func (e *RawEvent) SetInt32(off uintptr, v int32) {
	*(*int32)(unsafe.Add(unsafe.Pointer(&e.U), off)) = v
}

func (e *RawEvent) SetInt64(off uintptr, v int64) {
	*(*int64)(unsafe.Add(unsafe.Pointer(&e.U), off)) = v
}

func (e *RawEvent) SetFloat32(off uintptr, v float32) {
	*(*float32)(unsafe.Add(unsafe.Pointer(&e.U), off)) = v
}

func (e *RawEvent) SetPointer(off uintptr, v uintptr) {
	*(*uintptr)(unsafe.Add(unsafe.Pointer(&e.U), off)) = v
}

// Offset of the int that follows the item pointer in media list events.
const ListIndexOffset = unsafe.Sizeof(uintptr(0))

// LogMessage mirrors libvlc_log_message_t. SizeofMsg must be set by the
// caller before handing the buffer to LogIteratorNext.
type LogMessage struct {
	SizeofMsg uint32
	Severity  int32 // 0=info 1=error 2=warning 3=debug
	Type      uintptr
	Name      uintptr
	Header    uintptr
	Message   uintptr
}

// NewLogMessage returns a buffer ready for LogIteratorNext.
func NewLogMessage() LogMessage {
	return LogMessage{SizeofMsg: uint32(unsafe.Sizeof(LogMessage{}))}
}
