package vlc

import (
	"errors"
	"fmt"

	"github.com/thesyncim/vlc/internal/native"
)

// Sentinels for errors.Is. The typed errors below match them through
// their Is methods.
var (
	ErrCreation         = errors.New("vlc: native object creation failed")
	ErrNativeCall       = errors.New("vlc: native call failed")
	ErrReleased         = errors.New("vlc: use after release")
	ErrUnsupportedEvent = errors.New("vlc: unsupported event")
	ErrEventQueueFull   = errors.New("vlc: event queue full")
	ErrTimeout          = errors.New("vlc: timed out")
	ErrNotLoaded        = native.ErrNotLoaded
)

// CreationError reports a factory call that raised an exception or
// returned a NULL handle.
type CreationError struct {
	Kind string // "session", "media", "player", ...
	Err  error  // *NativeCallError, or nil for a bare NULL return
}

func (e *CreationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vlc: create %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("vlc: create %s: native call returned NULL", e.Kind)
}

func (e *CreationError) Unwrap() error { return e.Err }

func (e *CreationError) Is(target error) bool { return target == ErrCreation }

// NativeCallError carries the message libvlc raised through its exception
// out-parameter.
type NativeCallError struct {
	Op      string
	Code    int
	Message string
}

func (e *NativeCallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vlc: %s failed (code %d)", e.Op, e.Code)
	}
	return fmt.Sprintf("vlc: %s: %s", e.Op, e.Message)
}

func (e *NativeCallError) Is(target error) bool { return target == ErrNativeCall }

// UseAfterReleaseError is returned by every wrapper method once the
// wrapper's handle has been released. No native call is made.
type UseAfterReleaseError struct {
	Kind string
}

func (e *UseAfterReleaseError) Error() string {
	return fmt.Sprintf("vlc: %s used after release", e.Kind)
}

func (e *UseAfterReleaseError) Is(target error) bool { return target == ErrReleased }

// UnsupportedEventError is reported when a native event carries a
// discriminant the bridge cannot decode.
type UnsupportedEventError struct {
	Kind EventKind
}

func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("vlc: unsupported event kind %d (%s)", int32(e.Kind), e.Kind)
}

func (e *UnsupportedEventError) Is(target error) bool { return target == ErrUnsupportedEvent }
