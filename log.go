package vlc

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thesyncim/vlc/internal/native"
)

// Severity is the level of a native log message.
type Severity int32

const (
	SeverityInfo Severity = iota
	SeverityError
	SeverityWarning
	SeverityDebug
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Level maps the severity onto a zap level.
func (s Severity) Level() zapcore.Level {
	switch s {
	case SeverityError:
		return zapcore.ErrorLevel
	case SeverityWarning:
		return zapcore.WarnLevel
	case SeverityDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogMessage is one message copied out of the native log.
type LogMessage struct {
	Severity Severity
	Type     string // object type, e.g. "input"
	Name     string // module name
	Header   string
	Message  string
}

// Log is the instance's message log. Messages accumulate until Clear.
type Log struct {
	s *Session
	h *handle[native.Log]
}

func newLog(s *Session, raw native.Log) *Log {
	lib := s.lib
	l := &Log{s: s}
	l.h = newHandle("log", raw, func(raw native.Log) {
		err := lib.call("libvlc_log_close", func(ex *native.Exception) {
			lib.api.LogClose(raw, ex)
		})
		if err != nil {
			Logger().Warn("log close failed", zap.Error(err))
		}
	})
	runtime.SetFinalizer(l, (*Log).finalize)
	return l
}

func (l *Log) Count() (int, error) {
	n, err := get(l.s.lib, l.h, "libvlc_log_count", l.s.lib.api.LogCount)
	return int(n), err
}

func (l *Log) Clear() error {
	return do(l.s.lib, l.h, "libvlc_log_clear", l.s.lib.api.LogClear)
}

// Iterator returns an iterator over the messages currently in the log.
func (l *Log) Iterator() (*LogIterator, error) {
	log, err := l.h.acquire()
	if err != nil {
		return nil, err
	}
	defer l.h.done()
	raw, err := create(l.s.lib, "log iterator", "libvlc_log_get_iterator", func(ex *native.Exception) native.LogIterator {
		return l.s.lib.api.LogGetIterator(log, ex)
	})
	if err != nil {
		return nil, err
	}
	return newLogIterator(l, raw), nil
}

// Messages copies every message currently in the log.
func (l *Log) Messages() ([]LogMessage, error) {
	it, err := l.Iterator()
	if err != nil {
		return nil, err
	}
	defer it.Release()
	var msgs []LogMessage
	for {
		more, err := it.HasNext()
		if err != nil {
			return msgs, err
		}
		if !more {
			return msgs, nil
		}
		msg, err := it.Next()
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
	}
}

// Forward writes every pending message to z at its mapped level, then
// clears the log. It returns the number of messages forwarded.
func (l *Log) Forward(z *zap.Logger) (int, error) {
	msgs, err := l.Messages()
	for _, m := range msgs {
		if ce := z.Check(m.Severity.Level(), m.Message); ce != nil {
			ce.Write(
				zap.String("module", m.Name),
				zap.String("object", m.Type),
				zap.String("header", m.Header),
			)
		}
	}
	if err != nil {
		return len(msgs), err
	}
	return len(msgs), l.Clear()
}

// Follow forwards messages to z every interval until ctx is done or the
// log is released.
func (l *Log) Follow(ctx context.Context, z *zap.Logger, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := l.Forward(z); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Released reports whether Release has run.
func (l *Log) Released() bool { return l.h.isReleased() }

// Release closes the log. Calling Release again is a no-op.
func (l *Log) Release() {
	if l.h.release() {
		runtime.SetFinalizer(l, nil)
	}
}

func (l *Log) finalize() {
	leaked("log")
	l.Release()
}

// LogIterator walks the messages of a Log.
type LogIterator struct {
	log *Log
	h   *handle[native.LogIterator]
}

func newLogIterator(log *Log, raw native.LogIterator) *LogIterator {
	lib := log.s.lib
	it := &LogIterator{log: log}
	it.h = newHandle("log iterator", raw, func(raw native.LogIterator) {
		err := lib.call("libvlc_log_iterator_free", func(ex *native.Exception) {
			lib.api.LogIteratorFree(raw, ex)
		})
		if err != nil {
			Logger().Warn("log iterator free failed", zap.Error(err))
		}
	})
	runtime.SetFinalizer(it, (*LogIterator).finalize)
	return it
}

func (it *LogIterator) HasNext() (bool, error) {
	unpin, err := it.log.h.pin()
	if err != nil {
		return false, err
	}
	defer unpin()
	return getBool(it.log.s.lib, it.h, "libvlc_log_iterator_has_next", it.log.s.lib.api.LogIteratorHasNext)
}

// Next copies the next message. The native strings are only valid until
// the following call, so they are copied here.
func (it *LogIterator) Next() (LogMessage, error) {
	unpin, err := it.log.h.pin()
	if err != nil {
		return LogMessage{}, err
	}
	defer unpin()
	raw, err := it.h.acquire()
	if err != nil {
		return LogMessage{}, err
	}
	defer it.h.done()
	lib := it.log.s.lib
	var msg LogMessage
	err = lib.call("libvlc_log_iterator_next", func(ex *native.Exception) {
		buf := native.NewLogMessage()
		lib.api.LogIteratorNext(raw, &buf, ex)
		if ex.Raised != 0 {
			return
		}
		msg = LogMessage{
			Severity: Severity(buf.Severity),
			Type:     native.GoString(buf.Type),
			Name:     native.GoString(buf.Name),
			Header:   native.GoString(buf.Header),
			Message:  native.GoString(buf.Message),
		}
	})
	return msg, err
}

// Release frees the iterator. Calling Release again is a no-op.
func (it *LogIterator) Release() {
	if it.h.release() {
		runtime.SetFinalizer(it, nil)
	}
}

func (it *LogIterator) finalize() {
	leaked("log iterator")
	it.Release()
}
