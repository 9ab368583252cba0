package vlc

import (
	"sync/atomic"

	"github.com/thesyncim/vlc/internal/native"
)

// handle owns one native handle. Calls in flight are counted so that
// release never blocks: the native free runs when the last of release and
// the in-flight calls finishes.
//
// calls starts at zero. release marks the handle and subtracts one; the
// goroutine that takes the counter to -1 frees the handle.
type handle[H ~uintptr] struct {
	kind     string
	raw      H
	free     func(H)
	calls    atomic.Int64
	released atomic.Bool
}

func newHandle[H ~uintptr](kind string, raw H, free func(H)) *handle[H] {
	return &handle[H]{kind: kind, raw: raw, free: free}
}

// acquire pins the handle for one call. It fails without touching native
// code once release has run.
func (h *handle[H]) acquire() (H, error) {
	for {
		if h.released.Load() {
			return 0, &UseAfterReleaseError{Kind: h.kind}
		}
		n := h.calls.Load()
		if n < 0 {
			return 0, &UseAfterReleaseError{Kind: h.kind}
		}
		if h.calls.CompareAndSwap(n, n+1) {
			return h.raw, nil
		}
	}
}

func (h *handle[H]) done() {
	if h.calls.Add(-1) == -1 {
		h.free(h.raw)
	}
}

// release reports whether this call was the one that released the handle.
func (h *handle[H]) release() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}
	if h.calls.Add(-1) == -1 {
		h.free(h.raw)
	}
	return true
}

func (h *handle[H]) isReleased() bool {
	return h.released.Load()
}

// pin adapts acquire for callers that only need the handle kept alive.
func (h *handle[H]) pin() (func(), error) {
	if _, err := h.acquire(); err != nil {
		return nil, err
	}
	return h.done, nil
}

// do runs one exception-checked native call against a live handle.
func do[H ~uintptr](l *Library, h *handle[H], op string, fn func(raw H, ex *native.Exception)) error {
	raw, err := h.acquire()
	if err != nil {
		return err
	}
	defer h.done()
	return l.call(op, func(ex *native.Exception) { fn(raw, ex) })
}

func get[H ~uintptr, T any](l *Library, h *handle[H], op string, fn func(raw H, ex *native.Exception) T) (T, error) {
	raw, err := h.acquire()
	if err != nil {
		var zero T
		return zero, err
	}
	defer h.done()
	return callValue(l, op, func(ex *native.Exception) T { return fn(raw, ex) })
}

func getBool[H ~uintptr](l *Library, h *handle[H], op string, fn func(raw H, ex *native.Exception) int32) (bool, error) {
	v, err := get(l, h, op, fn)
	return v != 0, err
}

func getString[H ~uintptr](l *Library, h *handle[H], op string, fn func(raw H, ex *native.Exception) uintptr) (string, error) {
	raw, err := h.acquire()
	if err != nil {
		return "", err
	}
	defer h.done()
	return callString(l, op, func(ex *native.Exception) uintptr { return fn(raw, ex) })
}
