package events

import "sort"

// FilterStrategy selects how an EventFilter's entries are combined.
type FilterStrategy int

const (
	FilterAny FilterStrategy = iota
	FilterAll
)

// FilterEntryKind distinguishes a wildcard entry from a kind-matching one.
type FilterEntryKind int

const (
	EntryAny FilterEntryKind = iota
	EntryKind
)

// FilterKind is the thing a Kind-entry matches against: either any Update,
// or a Button event of a specific gesture.
type FilterKind struct {
	IsButton     bool
	ButtonFilter ButtonEventKind // meaningful iff IsButton
}

func UpdateFilterKind() FilterKind { return FilterKind{IsButton: false} }
func ButtonFilterKind(k ButtonEventKind) FilterKind {
	return FilterKind{IsButton: true, ButtonFilter: k}
}

// FilterEntry is one clause of an EventFilter.
type FilterEntry struct {
	EntryKind FilterEntryKind
	Kind      FilterKind // meaningful iff EntryKind == EntryKind
}

func AnyEntry() FilterEntry { return FilterEntry{EntryKind: EntryAny} }
func KindEntry(k FilterKind) FilterEntry {
	return FilterEntry{EntryKind: EntryKind, Kind: k}
}

// sortKey orders entries deterministically so filter sets can be
// deduplicated and compared; the exact ordering is arbitrary but stable.
func (e FilterEntry) sortKey() int {
	if e.EntryKind == EntryAny {
		return -1
	}
	if !e.Kind.IsButton {
		return 0
	}
	return 1 + int(e.Kind.ButtonFilter)
}

// Filter matches events against an ordered, deduplicated set of entries
// combined by Strategy.
type Filter struct {
	Strategy FilterStrategy
	Entries  []FilterEntry
}

// NewFilter builds a Filter from entries, sorting and deduplicating them as
// spec §4.2 requires ("Filter sets are maintained sorted and deduplicated
// before use").
func NewFilter(strategy FilterStrategy, entries []FilterEntry) Filter {
	sorted := append([]FilterEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].sortKey() < sorted[j].sortKey() })

	deduped := sorted[:0]
	for i, e := range sorted {
		if i == 0 || e.sortKey() != sorted[i-1].sortKey() {
			deduped = append(deduped, e)
		}
	}
	return Filter{Strategy: strategy, Entries: deduped}
}

// Matches reports whether ev satisfies f, per spec §4.2.
func (f Filter) Matches(ev Event) bool {
	switch f.Strategy {
	case FilterAny:
		for _, e := range f.Entries {
			if e.matches(ev) {
				return true
			}
		}
		return false
	case FilterAll:
		for _, e := range f.Entries {
			if !e.matches(ev) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (e FilterEntry) matches(ev Event) bool {
	if e.EntryKind == EntryAny {
		return true
	}
	if ev.IsError() {
		return false
	}
	if !e.Kind.IsButton {
		return !ev.Kind.IsButton
	}
	return ev.Kind.IsButton && ev.Kind.Button.Kind == e.Kind.ButtonFilter
}
