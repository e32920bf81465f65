package track

import (
	"reflect"
	"testing"
)

// drainChanges empties the Changes buffer and returns its contents.
func drainChanges(r *Registry) []string {
	var got []string
	for {
		select {
		case channel := <-r.Changes():
			got = append(got, channel)
		default:
			return got
		}
	}
}

func TestNewRegistry_Pinned(t *testing.T) {
	r := NewRegistry("global", "fischklatscher")

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if !r.Tracked("global") {
		t.Error("global should be tracked")
	}
	if !r.Tracked("fischklatscher") {
		t.Error("fischklatscher should be tracked")
	}
	if r.Tracked("forsen") {
		t.Error("forsen should not be tracked")
	}

	got := drainChanges(r)
	want := []string{"global", "fischklatscher"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changes = %v, want %v", got, want)
	}
}

func TestRegistry_Pin(t *testing.T) {
	r := NewRegistry("global")
	drainChanges(r)

	r.Pin("forsen")
	if !r.Tracked("forsen") {
		t.Error("forsen should be tracked after Pin")
	}
	if got := drainChanges(r); !reflect.DeepEqual(got, []string{"forsen"}) {
		t.Errorf("changes = %v, want [forsen]", got)
	}

	// Pinning again is a no-op.
	r.Pin("forsen")
	r.Pin("")
	if got := drainChanges(r); len(got) != 0 {
		t.Errorf("changes = %v, want none", got)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_ReplaceTop(t *testing.T) {
	r := NewRegistry("global")
	drainChanges(r)

	r.ReplaceTop([]string{"forsen", "sodapoppin", "xqc"}, 2)

	want := []string{"forsen", "global", "sodapoppin"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if r.Tracked("xqc") {
		t.Error("xqc is beyond the top limit and should not be tracked")
	}
	if got := drainChanges(r); !reflect.DeepEqual(got, []string{"forsen", "sodapoppin"}) {
		t.Errorf("changes = %v, want [forsen sodapoppin]", got)
	}

	// The next cycle replaces the dynamic part: sodapoppin drops out
	// silently, xqc is announced.
	r.ReplaceTop([]string{"forsen", "xqc"}, 2)

	want = []string{"forsen", "global", "xqc"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
	if r.Tracked("sodapoppin") {
		t.Error("sodapoppin should no longer be tracked")
	}
	if got := drainChanges(r); !reflect.DeepEqual(got, []string{"xqc"}) {
		t.Errorf("changes = %v, want [xqc]", got)
	}
}

func TestRegistry_ReplaceTop_KeepsPinned(t *testing.T) {
	r := NewRegistry("global", "fischklatscher")
	drainChanges(r)

	// A pinned channel showing up in the top list is not re-announced
	// and stays when it drops out again.
	r.ReplaceTop([]string{"fischklatscher", "forsen"}, 2)
	if got := drainChanges(r); !reflect.DeepEqual(got, []string{"forsen"}) {
		t.Errorf("changes = %v, want [forsen]", got)
	}

	r.ReplaceTop(nil, 5)
	if !r.Tracked("fischklatscher") {
		t.Error("pinned fischklatscher should survive ReplaceTop")
	}
	if r.Tracked("forsen") {
		t.Error("forsen should be dropped")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistry_ReplaceTop_ZeroDisablesTracking(t *testing.T) {
	r := NewRegistry("global")
	drainChanges(r)

	r.ReplaceTop([]string{"forsen", "sodapoppin"}, 0)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	if got := drainChanges(r); len(got) != 0 {
		t.Errorf("changes = %v, want none", got)
	}
}

func TestRegistry_List_Sorted(t *testing.T) {
	r := NewRegistry("zeta", "alpha")
	r.ReplaceTop([]string{"mid"}, 1)

	want := []string{"alpha", "mid", "zeta"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRegistry_ChangesBufferDropsOldest(t *testing.T) {
	r := NewRegistry()

	channels := make([]string, ChangeBufferSize+2)
	for i := range channels {
		channels[i] = string(rune('a'+i%26)) + "-" + string(rune('0'+i/26))
	}
	r.ReplaceTop(channels, len(channels))

	got := drainChanges(r)
	if len(got) != ChangeBufferSize {
		t.Fatalf("len(changes) = %d, want %d", len(got), ChangeBufferSize)
	}
	// The two oldest announcements were dropped.
	if got[0] != channels[2] {
		t.Errorf("changes[0] = %q, want %q", got[0], channels[2])
	}
	if got[len(got)-1] != channels[len(channels)-1] {
		t.Errorf("changes[last] = %q, want %q", got[len(got)-1], channels[len(channels)-1])
	}
}
