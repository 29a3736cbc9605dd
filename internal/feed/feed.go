package feed

import (
	"context"

	"github.com/sentrycore/site"
	"github.com/sentrycore/site/internal/domain"
)

// EventFunc receives change events that matched a channel's filter.
type EventFunc func(ev site.ChangeEvent)

// StatusFunc receives connection status updates of a channel.
type StatusFunc func(status site.SubscribeStatus, err error)

// Channel is an open subscription to a change feed.
type Channel interface {
	Close() error
}

// Feed is the push channel for database changes.
type Feed interface {
	Subscribe(ctx context.Context, filter Filter, onEvent EventFunc, onStatus StatusFunc) (Channel, error)
}

// Publisher emits change events onto a feed.
type Publisher interface {
	Publish(ctx context.Context, ev site.ChangeEvent) error
}

// Fetcher loads a full collection, newest first.
type Fetcher interface {
	FetchAll(ctx context.Context, table string) ([]domain.Record, error)
}

// Filter selects the events a channel delivers. An empty Events list means
// every event type; an empty RecordID means every record of the table.
type Filter struct {
	Table    string
	Events   []site.EventType
	RecordID string
}

func (f Filter) Match(ev site.ChangeEvent) bool {
	if ev.Table != f.Table {
		return false
	}
	if f.RecordID != "" && ev.RecordID != f.RecordID {
		return false
	}
	return site.MatchesEvent(f.Events, ev.Type)
}
