package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sentrycore/site"
	"github.com/sentrycore/site/internal/domain"
)

var tracer = otel.Tracer("feed")

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateSubscribed
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateSubscribed:
		return "Subscribed"
	case StateDetached:
		return "Detached"
	default:
		return "Unknown"
	}
}

// SnapshotFunc receives a freshly fetched collection.
type SnapshotFunc func(fresh []domain.Record)

// RecordFunc receives the new state of a single watched record.
type RecordFunc func(rec domain.Record)

type Option func(*Subscriber)

// WithSequencedRefresh drops refresh results that complete after a newer
// refresh has already been applied. Without it the last fetch to complete
// wins, whatever event triggered it.
func WithSequencedRefresh() Option {
	return func(s *Subscriber) {
		s.sequenced = true
	}
}

type AttachOption func(*Subscription)

// WithStateChange registers a hook called on every state transition except
// the final one to Detached.
func WithStateChange(fn func(State)) AttachOption {
	return func(sub *Subscription) {
		sub.onState = fn
	}
}

// Subscriber keeps list views in sync with a table through a change feed.
type Subscriber struct {
	feed      Feed
	fetcher   Fetcher
	sequenced bool
}

func NewSubscriber(feed Feed, fetcher Fetcher, opts ...Option) *Subscriber {
	s := &Subscriber{
		feed:    feed,
		fetcher: fetcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscription is one attached view. It must be detached by its owner.
type Subscription struct {
	filter  Filter
	onState func(State)

	mu      sync.Mutex
	state   State
	channel Channel
	applied uint64

	alive    atomic.Bool
	issued   atomic.Uint64
	cancel   context.CancelFunc
	inflight sync.WaitGroup
}

// Attach subscribes to every change of table. Each event triggers one full
// reload of the collection which is handed to onFresh.
func (s *Subscriber) Attach(ctx context.Context, table string, onFresh SnapshotFunc, opts ...AttachOption) (*Subscription, error) {
	filter := Filter{
		Table:  table,
		Events: []site.EventType{site.EventAll},
	}

	handle := func(subCtx context.Context, sub *Subscription, ev site.ChangeEvent) {
		seq := sub.issued.Add(1)
		sub.inflight.Add(1)
		go func() {
			defer sub.inflight.Done()
			s.refresh(subCtx, sub, seq, onFresh)
		}()
	}

	return s.attach(ctx, filter, handle, opts...)
}

// Watch subscribes to updates of a single record and hands the new state
// carried by each event to onRecord.
func (s *Subscriber) Watch(ctx context.Context, table, id string, onRecord RecordFunc, opts ...AttachOption) (*Subscription, error) {
	filter := Filter{
		Table:    table,
		Events:   []site.EventType{site.EventUpdate},
		RecordID: id,
	}

	handle := func(subCtx context.Context, sub *Subscription, ev site.ChangeEvent) {
		var rec domain.Record
		err := json.Unmarshal(ev.New, &rec)
		if err != nil {
			slog.ErrorContext(
				subCtx, "Failed to decode updated record",
				slog.String("error", err.Error()),
				slog.String("table", table),
				slog.String("id", id),
				slog.String("module", "feed"),
			)
			return
		}

		sub.mu.Lock()
		defer sub.mu.Unlock()
		if !sub.alive.Load() {
			return
		}
		onRecord(rec)
	}

	return s.attach(ctx, filter, handle, opts...)
}

func (s *Subscriber) attach(
	ctx context.Context,
	filter Filter,
	handle func(context.Context, *Subscription, site.ChangeEvent),
	opts ...AttachOption,
) (*Subscription, error) {
	_, span := tracer.Start(ctx, "Feed.Subscriber.Attach")
	defer span.End()
	span.SetAttributes(
		attribute.String("table", filter.Table),
		attribute.String("recordID", filter.RecordID),
	)

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		filter: filter,
		state:  StateIdle,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(sub)
	}
	sub.alive.Store(true)
	sub.transition(StateConnecting)

	onEvent := func(ev site.ChangeEvent) {
		if !sub.alive.Load() {
			return
		}
		slog.DebugContext(
			subCtx, "Change received",
			slog.String("event", string(ev.Type)),
			slog.String("table", ev.Table),
			slog.String("id", ev.RecordID),
			slog.String("module", "feed"),
		)
		handle(subCtx, sub, ev)
	}

	onStatus := func(status site.SubscribeStatus, err error) {
		if !sub.alive.Load() {
			return
		}
		switch status {
		case site.StatusSubscribed:
			sub.transition(StateSubscribed)
		case site.StatusChannelError, site.StatusTimedOut:
			attrs := []any{
				slog.String("status", string(status)),
				slog.String("table", filter.Table),
				slog.String("module", "feed"),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			slog.ErrorContext(subCtx, "Subscription degraded", attrs...)
			sub.transition(StateConnecting)
		default:
			slog.DebugContext(
				subCtx, "Subscription status",
				slog.String("status", string(status)),
				slog.String("table", filter.Table),
				slog.String("module", "feed"),
			)
		}
	}

	channel, err := s.feed.Subscribe(subCtx, filter, onEvent, onStatus)
	if err != nil {
		sub.alive.Store(false)
		cancel()
		sub.mu.Lock()
		sub.state = StateDetached
		sub.mu.Unlock()
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to subscribe to "+filter.Table)
	}

	sub.mu.Lock()
	sub.channel = channel
	sub.mu.Unlock()

	return sub, nil
}

func (s *Subscriber) refresh(ctx context.Context, sub *Subscription, seq uint64, onFresh SnapshotFunc) {
	ctx, span := tracer.Start(ctx, "Feed.Subscriber.Refresh")
	defer span.End()

	fresh, err := s.fetcher.FetchAll(ctx, sub.filter.Table)
	if err != nil {
		if sub.alive.Load() {
			span.RecordError(err)
			slog.ErrorContext(
				ctx, "Error fetching fresh snapshot",
				slog.String("error", err.Error()),
				slog.String("table", sub.filter.Table),
				slog.String("module", "feed"),
			)
		}
		return
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()

	if !sub.alive.Load() {
		return
	}
	if s.sequenced && seq < sub.applied {
		return
	}
	if seq > sub.applied {
		sub.applied = seq
	}
	onFresh(fresh)
}

func (sub *Subscription) transition(next State) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.state == StateDetached || sub.state == next {
		return
	}
	sub.state = next
	if sub.onState != nil {
		sub.onState(next)
	}
}

func (sub *Subscription) State() State {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.state
}

// Detach closes the feed channel. Refreshes still in flight are discarded
// when they complete; once Detach returns no callback of this subscription
// runs again.
func (sub *Subscription) Detach() {
	sub.mu.Lock()
	if sub.state == StateDetached {
		sub.mu.Unlock()
		return
	}
	sub.alive.Store(false)
	sub.state = StateDetached
	channel := sub.channel
	sub.mu.Unlock()

	sub.cancel()
	if channel != nil {
		err := channel.Close()
		if err != nil {
			slog.Error(
				"Failed to close feed channel",
				slog.String("error", err.Error()),
				slog.String("table", sub.filter.Table),
				slog.String("module", "feed"),
			)
		}
	}
}

// Wait blocks until every refresh started so far has completed.
func (sub *Subscription) Wait() {
	sub.inflight.Wait()
}
