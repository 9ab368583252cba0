package vlc

import "testing"

func TestEventKindNamesMatchLibrary(t *testing.T) {
	lib, _ := newTestLibrary(t)
	for k := EventKind(0); k < eventKindCount; k++ {
		if got, want := k.String(), lib.EventTypeName(k); got != want {
			t.Errorf("kind %d: String() = %q, libvlc says %q", int32(k), got, want)
		}
		if !k.Supported() {
			t.Errorf("kind %s not supported", k)
		}
	}
	if EventKind(-1).Supported() || eventKindCount.Supported() {
		t.Error("out of range kind reported as supported")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateNothingSpecial: "idle",
		StatePlaying:        "playing",
		StateEnded:          "ended",
		StateError:          "error",
		State(42):           "unknown",
	}
	for st, want := range cases {
		if got := st.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(st), got, want)
		}
	}
}

func TestEventKindsPerSource(t *testing.T) {
	seen := make(map[EventKind]bool)
	for _, kinds := range [][]EventKind{mediaEventKinds, playerEventKinds, listEventKinds} {
		for _, k := range kinds {
			if seen[k] {
				t.Errorf("%s listed twice", k)
			}
			seen[k] = true
		}
	}
	if len(seen) != int(eventKindCount) {
		t.Errorf("sources cover %d kinds, want %d", len(seen), eventKindCount)
	}
}
