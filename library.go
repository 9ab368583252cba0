package vlc

import (
	"sync"

	"go.uber.org/zap"

	"github.com/thesyncim/vlc/internal/native"
)

// nativeMu serializes every call into libvlc across all sessions. The
// exception-era API gives no per-object thread-safety guarantees.
var nativeMu sync.Mutex

// Library is a loaded libvlc. Sessions are created from it.
type Library struct {
	api *native.API

	cbOnce sync.Once
	cb     uintptr
}

var (
	loadOnce sync.Once
	loadLib  *Library
	loadErr  error
)

// Load opens the system libvlc. It is safe to call repeatedly: every call
// returns the same Library, so the process allocates one native event
// trampoline however often Load runs.
func Load() (*Library, error) {
	loadOnce.Do(func() {
		api, err := native.Load()
		if err != nil {
			loadErr = err
			return
		}
		loadLib = NewLibrary(api)
		Logger().Debug("libvlc loaded", zap.String("path", native.LoadedPath()))
	})
	return loadLib, loadErr
}

// DefaultLibrary returns the process-wide Library opened by Load.
func DefaultLibrary() (*Library, error) {
	return Load()
}

// NewLibrary wraps an already populated entry-point table. Entries left
// nil raise a native error when called.
func NewLibrary(api *native.API) *Library {
	native.StubMissing(api)
	return &Library{api: api}
}

// Version returns the libvlc version string.
func (l *Library) Version() string {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	return l.api.GetVersion()
}

// Compiler returns the compiler libvlc was built with.
func (l *Library) Compiler() string {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	return l.api.GetCompiler()
}

// Changeset returns the libvlc source revision.
func (l *Library) Changeset() string {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	return l.api.GetChangeset()
}

// EventTypeName returns libvlc's own name for an event kind.
func (l *Library) EventTypeName(kind EventKind) string {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	return l.api.EventTypeName(int32(kind))
}

// callback returns the native trampoline shared by every registration made
// through this library. It is allocated on first attach.
func (l *Library) callback() uintptr {
	l.cbOnce.Do(func() {
		l.cb = l.api.NewEventCallback(dispatch)
	})
	return l.cb
}

// call performs one native call through a fresh exception record and
// translates a raised exception into *NativeCallError.
func (l *Library) call(op string, fn func(ex *native.Exception)) error {
	nativeMu.Lock()
	defer nativeMu.Unlock()

	ex := new(native.Exception)
	l.api.ExceptionInit(ex)
	fn(ex)
	if ex.Raised == 0 {
		return nil
	}
	err := &NativeCallError{Op: op, Code: int(ex.Code), Message: native.GoString(ex.Message)}
	if ex.Code == native.CodeMissingSymbol && ex.Message == 0 {
		err.Message = "not exported by the loaded libvlc"
	}
	l.api.ExceptionClear(ex)
	return err
}

// exec runs a native call that has no exception argument.
func (l *Library) exec(fn func()) {
	nativeMu.Lock()
	defer nativeMu.Unlock()
	fn()
}

// takeString copies and frees a heap string returned by libvlc.
// Callers hold nativeMu.
func (l *Library) takeString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	s := native.GoString(ptr)
	l.api.Free(ptr)
	return s
}

func callValue[T any](l *Library, op string, fn func(ex *native.Exception) T) (T, error) {
	var v T
	err := l.call(op, func(ex *native.Exception) { v = fn(ex) })
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func callBool(l *Library, op string, fn func(ex *native.Exception) int32) (bool, error) {
	v, err := callValue(l, op, fn)
	return v != 0, err
}

// callString runs a call that returns a heap string and takes ownership
// of it.
func callString(l *Library, op string, fn func(ex *native.Exception) uintptr) (string, error) {
	var s string
	err := l.call(op, func(ex *native.Exception) {
		ptr := fn(ex)
		if ex.Raised == 0 {
			s = l.takeString(ptr)
		}
	})
	return s, err
}

// create runs a factory call. Both a raised exception and a NULL result
// become *CreationError.
func create[H ~uintptr](l *Library, kind, op string, fn func(ex *native.Exception) H) (H, error) {
	raw, err := callValue(l, op, fn)
	if err != nil {
		return 0, &CreationError{Kind: kind, Err: err}
	}
	if raw == 0 {
		return 0, &CreationError{Kind: kind}
	}
	return raw, nil
}

func cbool(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
