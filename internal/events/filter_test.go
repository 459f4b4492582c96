package events

import (
	"testing"

	"github.com/mrd0ll4r/kaleidoscope/internal/values"
)

func TestFilterAnyMatchesUpdate(t *testing.T) {
	f := NewFilter(FilterAny, []FilterEntry{KindEntry(UpdateFilterKind())})
	update := Ok(UpdateKind(values.NewContinuous(0.5)))
	if !f.Matches(update) {
		t.Error("update filter should match an update event")
	}

	button := Ok(ButtonKind(ButtonEvent{Kind: ButtonDown}))
	if f.Matches(button) {
		t.Error("update filter should not match a button event")
	}
}

func TestFilterButtonMatchesByVariant(t *testing.T) {
	f := NewFilter(FilterAny, []FilterEntry{KindEntry(ButtonFilterKind(ButtonClicked))})

	clicked := Ok(ButtonKind(ButtonEvent{Kind: ButtonClicked, DurationSeconds: 0.3}))
	if !f.Matches(clicked) {
		t.Error("button_clicked filter should match a clicked event")
	}

	down := Ok(ButtonKind(ButtonEvent{Kind: ButtonDown}))
	if f.Matches(down) {
		t.Error("button_clicked filter should not match a down event")
	}
}

func TestFilterErrorNeverMatchesKind(t *testing.T) {
	f := NewFilter(FilterAny, []FilterEntry{AnyEntry(), KindEntry(UpdateFilterKind())})
	// AnyEntry matches everything including errors, so build a filter with
	// only the kind entry to exercise the error-never-matches-kind rule.
	f = NewFilter(FilterAny, []FilterEntry{KindEntry(UpdateFilterKind())})
	if f.Matches(Error("sensor fault")) {
		t.Error("an error-payload event should never match a kind filter")
	}
}

func TestFilterAllRequiresEveryEntry(t *testing.T) {
	f := NewFilter(FilterAll, []FilterEntry{AnyEntry(), KindEntry(UpdateFilterKind())})
	update := Ok(UpdateKind(values.NewContinuous(1.0)))
	if !f.Matches(update) {
		t.Error("all-strategy filter should match when every entry matches")
	}

	button := Ok(ButtonKind(ButtonEvent{Kind: ButtonUp}))
	if f.Matches(button) {
		t.Error("all-strategy filter should not match when one entry fails")
	}
}

func TestFilterEntriesAreDeduplicated(t *testing.T) {
	f := NewFilter(FilterAny, []FilterEntry{
		KindEntry(UpdateFilterKind()),
		KindEntry(UpdateFilterKind()),
		KindEntry(ButtonFilterKind(ButtonDown)),
	})
	if len(f.Entries) != 2 {
		t.Errorf("expected duplicate entries to be collapsed, got %d entries", len(f.Entries))
	}
}
