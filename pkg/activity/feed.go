package activity

import (
	"slices"

	"vaultswap/pkg/events"
)

// Feed accumulates pages into one newest-first list.
type Feed struct {
	Events  []events.Event
	Cursor  uint64
	HasMore bool
}

// Reset replaces the feed with a first page.
func (f *Feed) Reset(p Page) {
	f.Events = slices.Clone(p.Events)
	f.Cursor = p.Cursor
	f.HasMore = p.HasMore
}

// Append adds a later page and re-sorts.
func (f *Feed) Append(p Page) {
	f.Events = append(f.Events, p.Events...)
	SortNewestFirst(f.Events)
	f.Cursor = p.Cursor
	f.HasMore = p.HasMore
}
