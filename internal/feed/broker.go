package feed

import (
	"context"
	"sync"

	"github.com/sentrycore/site"
)

// Broker is an in-process Feed and Publisher. It is used when no Redis
// server is configured and in tests.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*localChannel
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[uint64]*localChannel),
	}
}

type localChannel struct {
	id       uint64
	broker   *Broker
	filter   Filter
	onEvent  EventFunc
	onStatus StatusFunc
	once     sync.Once
}

func (b *Broker) Subscribe(ctx context.Context, filter Filter, onEvent EventFunc, onStatus StatusFunc) (Channel, error) {
	b.mu.Lock()
	b.nextID++
	ch := &localChannel{
		id:       b.nextID,
		broker:   b,
		filter:   filter,
		onEvent:  onEvent,
		onStatus: onStatus,
	}
	b.subs[ch.id] = ch
	b.mu.Unlock()

	if onStatus != nil {
		onStatus(site.StatusSubscribed, nil)
	}
	return ch, nil
}

func (b *Broker) Publish(ctx context.Context, ev site.ChangeEvent) error {
	b.mu.RLock()
	targets := make([]*localChannel, 0, len(b.subs))
	for _, ch := range b.subs {
		if ch.filter.Match(ev) {
			targets = append(targets, ch)
		}
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		ch.onEvent(ev)
	}
	return nil
}

// Len reports the number of open channels.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (c *localChannel) Close() error {
	c.once.Do(func() {
		c.broker.mu.Lock()
		delete(c.broker.subs, c.id)
		c.broker.mu.Unlock()
		if c.onStatus != nil {
			c.onStatus(site.StatusClosed, nil)
		}
	})
	return nil
}

var _ Feed = (*Broker)(nil)
var _ Publisher = (*Broker)(nil)
