package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"vaultswap/pkg/events"
	"vaultswap/pkg/logging"
	"vaultswap/pkg/metrics"
)

// DefaultCutoff is the earliest event time shown (2025-01-01 00:00 JST).
var DefaultCutoff = time.Date(2024, time.December, 31, 15, 0, 0, 0, time.UTC)

// DefaultPageSize is the page size used by the activity views.
const DefaultPageSize = 20

var errPageSize = errors.New("page size must be positive")

// EventSource lists raw activity records, oldest first.
type EventSource interface {
	ListEvents(ctx context.Context, cursor, limit uint64) ([]json.RawMessage, error)
	ListLatestEvents(ctx context.Context, limit uint64) ([]json.RawMessage, error)
}

// Page is one page of normalized events, newest first. Cursor counts raw
// records consumed, so it advances past records that were dropped.
type Page struct {
	Events  []events.Event
	Cursor  uint64
	HasMore bool
}

// Pager reads activity a page at a time.
type Pager struct {
	src    EventSource
	cutoff time.Time
	m      *metrics.Metrics
	logger *slog.Logger
}

// New creates a pager. A zero cutoff means DefaultCutoff.
func New(src EventSource, cutoff time.Time, m *metrics.Metrics, logger *slog.Logger) *Pager {
	if cutoff.IsZero() {
		cutoff = DefaultCutoff
	}
	return &Pager{src: src, cutoff: cutoff, m: m, logger: logging.OrDiscard(logger)}
}

// LoadFirst loads the page at cursor 0.
func (p *Pager) LoadFirst(ctx context.Context, pageSize int) (Page, error) {
	return p.LoadMore(ctx, 0, pageSize)
}

// LoadMore loads the page starting at cursor. HasMore is set when the
// service returned a full page.
func (p *Pager) LoadMore(ctx context.Context, cursor uint64, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, errPageSize
	}
	raw, err := p.src.ListEvents(ctx, cursor, uint64(pageSize))
	if err != nil {
		return Page{}, fmt.Errorf("list events at %d: %w", cursor, err)
	}

	return Page{
		Events:  p.normalize(raw),
		Cursor:  cursor + uint64(len(raw)),
		HasMore: len(raw) == pageSize,
	}, nil
}

// LoadLatest loads the most recent limit records, newest first.
func (p *Pager) LoadLatest(ctx context.Context, limit int) ([]events.Event, error) {
	if limit <= 0 {
		return nil, errPageSize
	}
	raw, err := p.src.ListLatestEvents(ctx, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("list latest events: %w", err)
	}
	return p.normalize(raw), nil
}

// normalize parses, filters by cutoff and sorts newest first. Ties keep
// their fetch order.
func (p *Pager) normalize(raw []json.RawMessage) []events.Event {
	cutoffMs := p.cutoff.UnixMilli()
	out := make([]events.Event, 0, len(raw))
	skipped, filtered := 0, 0

	for _, r := range raw {
		ev, ok := events.Normalize(r)
		if !ok {
			skipped++
			continue
		}
		if ev.TimestampMs < cutoffMs {
			filtered++
			continue
		}
		out = append(out, ev)
	}

	SortNewestFirst(out)

	p.m.RecordEventsSkipped(skipped)
	p.m.RecordEventsFiltered(filtered)
	if skipped > 0 {
		p.logger.Debug("activity records skipped", "count", skipped)
	}
	return out
}

// SortNewestFirst sorts events by descending timestamp, keeping the
// relative order of equal timestamps.
func SortNewestFirst(evs []events.Event) {
	slices.SortStableFunc(evs, func(a, b events.Event) int {
		switch {
		case a.TimestampMs > b.TimestampMs:
			return -1
		case a.TimestampMs < b.TimestampMs:
			return 1
		}
		return 0
	})
}
