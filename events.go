package vlc

import (
	"time"

	"github.com/thesyncim/vlc/internal/native"
)

// EventKind is libvlc_event_type_t.
type EventKind int32

const (
	EventMediaMetaChanged EventKind = iota
	EventMediaSubItemAdded
	EventMediaDurationChanged
	EventMediaPreparsedChanged
	EventMediaFreed
	EventMediaStateChanged

	EventPlayerNothingSpecial
	EventPlayerOpening
	EventPlayerBuffering
	EventPlayerPlaying
	EventPlayerPaused
	EventPlayerStopped
	EventPlayerForward
	EventPlayerBackward
	EventPlayerEndReached
	EventPlayerEncounteredError
	EventPlayerTimeChanged
	EventPlayerPositionChanged
	EventPlayerSeekableChanged
	EventPlayerPausableChanged

	EventListItemAdded
	EventListWillAddItem
	EventListItemDeleted
	EventListWillDeleteItem

	eventKindCount
)

var eventKindNames = [eventKindCount]string{
	EventMediaMetaChanged:       "MediaMetaChanged",
	EventMediaSubItemAdded:      "MediaSubItemAdded",
	EventMediaDurationChanged:   "MediaDurationChanged",
	EventMediaPreparsedChanged:  "MediaPreparsedChanged",
	EventMediaFreed:             "MediaFreed",
	EventMediaStateChanged:      "MediaStateChanged",
	EventPlayerNothingSpecial:   "MediaPlayerNothingSpecial",
	EventPlayerOpening:          "MediaPlayerOpening",
	EventPlayerBuffering:        "MediaPlayerBuffering",
	EventPlayerPlaying:          "MediaPlayerPlaying",
	EventPlayerPaused:           "MediaPlayerPaused",
	EventPlayerStopped:          "MediaPlayerStopped",
	EventPlayerForward:          "MediaPlayerForward",
	EventPlayerBackward:         "MediaPlayerBackward",
	EventPlayerEndReached:       "MediaPlayerEndReached",
	EventPlayerEncounteredError: "MediaPlayerEncounteredError",
	EventPlayerTimeChanged:      "MediaPlayerTimeChanged",
	EventPlayerPositionChanged:  "MediaPlayerPositionChanged",
	EventPlayerSeekableChanged:  "MediaPlayerSeekableChanged",
	EventPlayerPausableChanged:  "MediaPlayerPausableChanged",
	EventListItemAdded:          "MediaListItemAdded",
	EventListWillAddItem:        "MediaListWillAddItem",
	EventListItemDeleted:        "MediaListItemDeleted",
	EventListWillDeleteItem:     "MediaListWillDeleteItem",
}

func (k EventKind) String() string {
	if k < 0 || k >= eventKindCount {
		return "unknown"
	}
	return eventKindNames[k]
}

// Supported reports whether the bridge can decode events of this kind.
func (k EventKind) Supported() bool { return k >= 0 && k < eventKindCount }

// Kinds emitted by each event source.
var (
	mediaEventKinds = []EventKind{
		EventMediaMetaChanged, EventMediaSubItemAdded, EventMediaDurationChanged,
		EventMediaPreparsedChanged, EventMediaFreed, EventMediaStateChanged,
	}
	playerEventKinds = []EventKind{
		EventPlayerNothingSpecial, EventPlayerOpening, EventPlayerBuffering,
		EventPlayerPlaying, EventPlayerPaused, EventPlayerStopped,
		EventPlayerForward, EventPlayerBackward, EventPlayerEndReached,
		EventPlayerEncounteredError, EventPlayerTimeChanged,
		EventPlayerPositionChanged, EventPlayerSeekableChanged,
		EventPlayerPausableChanged,
	}
	listEventKinds = []EventKind{
		EventListItemAdded, EventListWillAddItem, EventListItemDeleted, EventListWillDeleteItem,
	}
)

// State is libvlc_state_t.
type State int32

const (
	StateNothingSpecial State = iota
	StateOpening
	StateBuffering
	StatePlaying
	StatePaused
	StateStopped
	StateEnded
	StateError
)

func (s State) String() string {
	switch s {
	case StateNothingSpecial:
		return "idle"
	case StateOpening:
		return "opening"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MetaType is libvlc_meta_t.
type MetaType int32

const (
	MetaTitle MetaType = iota
	MetaArtist
	MetaGenre
	MetaCopyright
	MetaAlbum
	MetaTrackNumber
	MetaDescription
	MetaRating
	MetaDate
	MetaSetting
	MetaURL
	MetaLanguage
	MetaNowPlaying
	MetaPublisher
	MetaEncodedBy
	MetaArtworkURL
	MetaTrackID
)

// Event is a decoded native event. The concrete type is selected by Kind.
type Event interface {
	Kind() EventKind
	event()
}

type (
	MediaMetaChanged      struct{ Meta MetaType }
	MediaSubItemAdded     struct{}
	MediaDurationChanged  struct{ Duration time.Duration }
	MediaPreparsedChanged struct{ Preparsed bool }
	MediaFreed            struct{}
	MediaStateChanged     struct{ State State }

	PlayerNothingSpecial   struct{}
	PlayerOpening          struct{}
	PlayerBuffering        struct{}
	PlayerPlaying          struct{}
	PlayerPaused           struct{}
	PlayerStopped          struct{}
	PlayerForward          struct{}
	PlayerBackward         struct{}
	PlayerEndReached       struct{}
	PlayerEncounteredError struct{}
	PlayerTimeChanged      struct{ Time time.Duration }
	PlayerPositionChanged  struct{ Position float32 }
	PlayerSeekableChanged  struct{ Seekable bool }
	PlayerPausableChanged  struct{ Pausable bool }

	ListItemAdded      struct{ Index int }
	ListWillAddItem    struct{ Index int }
	ListItemDeleted    struct{ Index int }
	ListWillDeleteItem struct{ Index int }
)

func (MediaMetaChanged) Kind() EventKind       { return EventMediaMetaChanged }
func (MediaSubItemAdded) Kind() EventKind      { return EventMediaSubItemAdded }
func (MediaDurationChanged) Kind() EventKind   { return EventMediaDurationChanged }
func (MediaPreparsedChanged) Kind() EventKind  { return EventMediaPreparsedChanged }
func (MediaFreed) Kind() EventKind             { return EventMediaFreed }
func (MediaStateChanged) Kind() EventKind      { return EventMediaStateChanged }
func (PlayerNothingSpecial) Kind() EventKind   { return EventPlayerNothingSpecial }
func (PlayerOpening) Kind() EventKind          { return EventPlayerOpening }
func (PlayerBuffering) Kind() EventKind        { return EventPlayerBuffering }
func (PlayerPlaying) Kind() EventKind          { return EventPlayerPlaying }
func (PlayerPaused) Kind() EventKind           { return EventPlayerPaused }
func (PlayerStopped) Kind() EventKind          { return EventPlayerStopped }
func (PlayerForward) Kind() EventKind          { return EventPlayerForward }
func (PlayerBackward) Kind() EventKind         { return EventPlayerBackward }
func (PlayerEndReached) Kind() EventKind       { return EventPlayerEndReached }
func (PlayerEncounteredError) Kind() EventKind { return EventPlayerEncounteredError }
func (PlayerTimeChanged) Kind() EventKind      { return EventPlayerTimeChanged }
func (PlayerPositionChanged) Kind() EventKind  { return EventPlayerPositionChanged }
func (PlayerSeekableChanged) Kind() EventKind  { return EventPlayerSeekableChanged }
func (PlayerPausableChanged) Kind() EventKind  { return EventPlayerPausableChanged }
func (ListItemAdded) Kind() EventKind          { return EventListItemAdded }
func (ListWillAddItem) Kind() EventKind        { return EventListWillAddItem }
func (ListItemDeleted) Kind() EventKind        { return EventListItemDeleted }
func (ListWillDeleteItem) Kind() EventKind     { return EventListWillDeleteItem }

func (MediaMetaChanged) event()       {}
func (MediaSubItemAdded) event()      {}
func (MediaDurationChanged) event()   {}
func (MediaPreparsedChanged) event()  {}
func (MediaFreed) event()             {}
func (MediaStateChanged) event()      {}
func (PlayerNothingSpecial) event()   {}
func (PlayerOpening) event()          {}
func (PlayerBuffering) event()        {}
func (PlayerPlaying) event()          {}
func (PlayerPaused) event()           {}
func (PlayerStopped) event()          {}
func (PlayerForward) event()          {}
func (PlayerBackward) event()         {}
func (PlayerEndReached) event()       {}
func (PlayerEncounteredError) event() {}
func (PlayerTimeChanged) event()      {}
func (PlayerPositionChanged) event()  {}
func (PlayerSeekableChanged) event()  {}
func (PlayerPausableChanged) event()  {}
func (ListItemAdded) event()          {}
func (ListWillAddItem) event()        {}
func (ListItemDeleted) event()        {}
func (ListWillDeleteItem) event()     {}

// decodeEvent reads exactly the union member selected by the
// discriminant. Item pointers carried by media and list events are not
// surfaced: they are borrowed for the duration of the callback only.
func decodeEvent(raw *native.RawEvent) (Event, error) {
	switch kind := EventKind(raw.Type); kind {
	case EventMediaMetaChanged:
		return MediaMetaChanged{Meta: MetaType(raw.Int32(0))}, nil
	case EventMediaSubItemAdded:
		return MediaSubItemAdded{}, nil
	case EventMediaDurationChanged:
		return MediaDurationChanged{Duration: time.Duration(raw.Int64(0)) * time.Millisecond}, nil
	case EventMediaPreparsedChanged:
		return MediaPreparsedChanged{Preparsed: raw.Int32(0) != 0}, nil
	case EventMediaFreed:
		return MediaFreed{}, nil
	case EventMediaStateChanged:
		return MediaStateChanged{State: State(raw.Int32(0))}, nil

	case EventPlayerNothingSpecial:
		return PlayerNothingSpecial{}, nil
	case EventPlayerOpening:
		return PlayerOpening{}, nil
	case EventPlayerBuffering:
		return PlayerBuffering{}, nil
	case EventPlayerPlaying:
		return PlayerPlaying{}, nil
	case EventPlayerPaused:
		return PlayerPaused{}, nil
	case EventPlayerStopped:
		return PlayerStopped{}, nil
	case EventPlayerForward:
		return PlayerForward{}, nil
	case EventPlayerBackward:
		return PlayerBackward{}, nil
	case EventPlayerEndReached:
		return PlayerEndReached{}, nil
	case EventPlayerEncounteredError:
		return PlayerEncounteredError{}, nil
	case EventPlayerTimeChanged:
		return PlayerTimeChanged{Time: time.Duration(raw.Int64(0)) * time.Millisecond}, nil
	case EventPlayerPositionChanged:
		return PlayerPositionChanged{Position: raw.Float32(0)}, nil
	case EventPlayerSeekableChanged:
		return PlayerSeekableChanged{Seekable: raw.Int32(0) != 0}, nil
	case EventPlayerPausableChanged:
		return PlayerPausableChanged{Pausable: raw.Int32(0) != 0}, nil

	case EventListItemAdded:
		return ListItemAdded{Index: int(raw.Int32(native.ListIndexOffset))}, nil
	case EventListWillAddItem:
		return ListWillAddItem{Index: int(raw.Int32(native.ListIndexOffset))}, nil
	case EventListItemDeleted:
		return ListItemDeleted{Index: int(raw.Int32(native.ListIndexOffset))}, nil
	case EventListWillDeleteItem:
		return ListWillDeleteItem{Index: int(raw.Int32(native.ListIndexOffset))}, nil

	default:
		return nil, &UnsupportedEventError{Kind: kind}
	}
}
