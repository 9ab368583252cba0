package vlc

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"

	"github.com/thesyncim/vlc/internal/native"
)

// Native threads call into Go through one process-wide trampoline. The
// userData pointer libvlc hands back is an id into this registry, so Go
// memory is never passed to C. Handlers reach their owner through weak
// pointers so that a registration never keeps a leaked wrapper alive.
var registry = struct {
	sync.RWMutex
	next uintptr
	regs map[uintptr]*Registration
}{regs: make(map[uintptr]*Registration)}

func register(r *Registration) uintptr {
	registry.Lock()
	defer registry.Unlock()
	registry.next++
	r.id = registry.next
	registry.regs[r.id] = r
	return r.id
}

func unregister(id uintptr) {
	registry.Lock()
	delete(registry.regs, id)
	registry.Unlock()
}

func lookup(id uintptr) *Registration {
	registry.RLock()
	defer registry.RUnlock()
	return registry.regs[id]
}

// dispatch runs on whatever thread libvlc raises the event on. It never
// takes nativeMu and never calls back into libvlc.
func dispatch(event, userData uintptr) {
	r := lookup(userData)
	if r == nil || !r.Active() {
		return
	}
	raw := (*native.RawEvent)(unsafe.Pointer(event))
	ev, err := decodeEvent(raw)
	if err != nil {
		reportDispatchError(err)
		return
	}
	r.deliver(ev)
}

var dispatchErrHandler atomic.Pointer[func(error)]

// SetDispatchErrorHandler installs fn to receive errors raised while
// delivering native events: undecodable kinds, listener panics and full
// async queues. Passing nil restores the default, which logs.
func SetDispatchErrorHandler(fn func(error)) {
	if fn == nil {
		dispatchErrHandler.Store(nil)
		return
	}
	dispatchErrHandler.Store(&fn)
}

func reportDispatchError(err error) {
	if fn := dispatchErrHandler.Load(); fn != nil {
		(*fn)(err)
		return
	}
	Logger().Error("event dispatch failed", zap.Error(err))
}

// ListenerPanicError wraps a value recovered from a panicking handler.
type ListenerPanicError struct {
	Kind  EventKind
	Value any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("vlc: %s handler panicked: %v", e.Kind, e.Value)
}

type attachConfig struct {
	buffer int
}

// AttachOption configures a registration.
type AttachOption func(*attachConfig)

// Async delivers events on a dedicated goroutine instead of the native
// thread. Order is preserved. When more than buffer events are pending,
// further events are dropped and reported as ErrEventQueueFull.
// Handlers that call back into this package must be attached with Async.
func Async(buffer int) AttachOption {
	return func(c *attachConfig) {
		if buffer < 1 {
			buffer = 1
		}
		c.buffer = buffer
	}
}

// Registration is one attached handler.
type Registration struct {
	em      *EventManager
	kind    EventKind
	id      uintptr
	handler func(Event)
	active  atomic.Bool

	queue chan Event
	stop  chan struct{}
}

// Kind returns the event kind the handler is attached to.
func (r *Registration) Kind() EventKind { return r.kind }

// Active reports whether the handler still receives events.
func (r *Registration) Active() bool { return r.active.Load() }

// Detach stops delivery. Detaching twice is a no-op.
func (r *Registration) Detach() error {
	return r.em.Detach(r)
}

func (r *Registration) deliver(ev Event) {
	if r.queue == nil {
		r.invoke(ev)
		return
	}
	select {
	case r.queue <- ev:
	default:
		reportDispatchError(fmt.Errorf("%w: %s", ErrEventQueueFull, ev.Kind()))
	}
}

func (r *Registration) invoke(ev Event) {
	defer func() {
		if v := recover(); v != nil {
			reportDispatchError(&ListenerPanicError{Kind: r.kind, Value: v})
		}
	}()
	r.handler(ev)
}

func (r *Registration) run() {
	for {
		select {
		case ev := <-r.queue:
			if r.Active() {
				r.invoke(ev)
			}
		case <-r.stop:
			return
		}
	}
}

// EventManager attaches handlers to the events of one native object.
type EventManager struct {
	lib   *Library
	raw   native.EventManager
	owner string
	pin   func() (func(), error)

	mu     sync.Mutex
	regs   map[uintptr]*Registration
	closed bool
}

func newEventManager(lib *Library, owner string, raw native.EventManager, pin func() (func(), error)) *EventManager {
	return &EventManager{
		lib:   lib,
		raw:   raw,
		owner: owner,
		pin:   pin,
		regs:  make(map[uintptr]*Registration),
	}
}

// Attach registers handler for kind. Synchronous handlers run on the
// native thread that raised the event and must not call into libvlc.
func (m *EventManager) Attach(kind EventKind, handler func(Event), opts ...AttachOption) (*Registration, error) {
	if !kind.Supported() {
		return nil, &UnsupportedEventError{Kind: kind}
	}
	if handler == nil {
		return nil, fmt.Errorf("vlc: nil handler for %s", kind)
	}
	var cfg attachConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, &UseAfterReleaseError{Kind: m.owner}
	}
	unpin, err := m.pin()
	if err != nil {
		return nil, err
	}
	defer unpin()

	r := &Registration{em: m, kind: kind, handler: handler}
	if cfg.buffer > 0 {
		r.queue = make(chan Event, cfg.buffer)
		r.stop = make(chan struct{})
	}
	id := register(r)
	r.active.Store(true)

	cb := m.lib.callback()
	err = m.lib.call("libvlc_event_attach", func(ex *native.Exception) {
		m.lib.api.EventAttach(m.raw, int32(kind), cb, id, ex)
	})
	if err != nil {
		r.active.Store(false)
		unregister(id)
		return nil, err
	}
	m.regs[id] = r
	if r.queue != nil {
		go r.run()
	}
	Logger().Debug("event handler attached",
		zap.String("owner", m.owner), zap.Stringer("kind", kind), zap.Uint64("id", uint64(id)))
	return r, nil
}

// Detach removes r. Unknown or already detached registrations are a no-op.
func (m *EventManager) Detach(r *Registration) error {
	if r == nil || r.em != m {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regs[r.id]; !ok {
		return nil
	}
	delete(m.regs, r.id)
	unpin, err := m.pin()
	if err != nil {
		m.stopLocked(r)
		return nil
	}
	defer unpin()
	return m.detachLocked(r)
}

// Len returns the number of live registrations.
func (m *EventManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.regs)
}

// close detaches every registration and refuses new ones. The owner calls
// it while its handle is still live.
func (m *EventManager) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for id, r := range m.regs {
		delete(m.regs, id)
		if err := m.detachLocked(r); err != nil {
			Logger().Warn("event handler detach failed",
				zap.String("owner", m.owner), zap.Stringer("kind", r.kind), zap.Error(err))
		}
	}
}

func (m *EventManager) detachLocked(r *Registration) error {
	err := m.lib.call("libvlc_event_detach", func(ex *native.Exception) {
		m.lib.api.EventDetach(m.raw, int32(r.kind), m.lib.callback(), r.id, ex)
	})
	m.stopLocked(r)
	return err
}

func (m *EventManager) stopLocked(r *Registration) {
	if r.active.CompareAndSwap(true, false) {
		unregister(r.id)
		if r.stop != nil {
			close(r.stop)
		}
	}
}
