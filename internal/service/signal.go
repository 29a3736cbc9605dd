package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/sentrycore/site"
	"github.com/sentrycore/site/internal/feed"
)

var (
	_ feed.Feed      = (*SignalService)(nil)
	_ feed.Publisher = (*SignalService)(nil)
)

// SignalService carries change events over redis pub/sub, one channel per table.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event site.ChangeEvent) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal change event")
	}

	err = s.rdb.Publish(ctx, site.ChannelName(event.Table), jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to publish change event")
	}

	return nil
}

type redisChannel struct {
	pubsub *redis.PubSub
	once   sync.Once
	err    error
}

func (c *redisChannel) Close() error {
	c.once.Do(func() {
		c.err = c.pubsub.Close()
	})
	return c.err
}

func (s *SignalService) Subscribe(
	ctx context.Context,
	filter feed.Filter,
	onEvent feed.EventFunc,
	onStatus feed.StatusFunc,
) (feed.Channel, error) {
	if filter.Table == "" {
		return nil, errors.New("table is required")
	}

	pubsub := s.rdb.Subscribe(ctx, site.ChannelName(filter.Table))
	channel := &redisChannel{pubsub: pubsub}

	go func() {
		// Receive waits for the subscription confirmation.
		_, err := pubsub.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				onStatus(site.StatusChannelError, err)
			}
			onStatus(site.StatusClosed, nil)
			return
		}
		onStatus(site.StatusSubscribed, nil)

		for msg := range pubsub.Channel() {
			var event site.ChangeEvent
			err := json.Unmarshal([]byte(msg.Payload), &event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Failed to decode change event",
					slog.String("error", err.Error()),
					slog.String("channel", msg.Channel),
					slog.String("module", "signal"),
				)
				continue
			}
			if !filter.Match(event) {
				continue
			}
			onEvent(event)
		}
		onStatus(site.StatusClosed, nil)
	}()

	return channel, nil
}
