package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iudanet/bookmarks/internal/models"
)

// channelPrefix namespaces pub/sub channels; the owner ID is appended.
const channelPrefix = "bookmarks:changes:"

// RedisOptions describes how to reach Redis and how long to keep retrying.
type RedisOptions struct {
	Addr           string
	Password       string
	DB             int
	ConnectTimeout time.Duration // общее время на попытки подключения
	RetryInterval  time.Duration // начальная пауза, растёт экспоненциально
	MaxWait        time.Duration
}

// ConnectRedis opens a client and pings it with exponential backoff until
// ConnectTimeout elapses.
func ConnectRedis(ctx context.Context, logger *slog.Logger, opts RedisOptions) (*redis.Client, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	logger.InfoContext(ctx, "connecting to redis", slog.String("addr", opts.Addr))

	wait := opts.RetryInterval
	for attempt := 1; ; attempt++ {
		err := client.Ping(ctx).Err()
		if err == nil {
			logger.InfoContext(ctx, "connected to redis",
				slog.String("addr", opts.Addr),
				slog.Int("attempts", attempt))
			return client, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = client.Close()
			return nil, fmt.Errorf("redis unavailable at %s after %d attempts: %w", opts.Addr, attempt, err)
		case <-timer.C:
			logger.WarnContext(ctx, "redis connection failed, retrying",
				slog.String("addr", opts.Addr),
				slog.Int("attempt", attempt),
				slog.Duration("next_retry_in", wait),
				slog.Any("error", err))
			wait = min(wait*2, opts.MaxWait)
		}
	}
}

// RedisBroker is a Broker backed by Redis pub/sub, so every server
// instance sees the changes made through any other one.
type RedisBroker struct {
	logger *slog.Logger
	client *redis.Client
}

// NewRedisBroker wraps a connected client
func NewRedisBroker(logger *slog.Logger, client *redis.Client) *RedisBroker {
	return &RedisBroker{logger: logger, client: client}
}

func ownerChannel(owner string) string {
	return channelPrefix + owner
}

// Publish sends the event to the owner's channel as JSON
func (b *RedisBroker) Publish(ctx context.Context, event models.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	if err := b.client.Publish(ctx, ownerChannel(event.Owner), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}

	return nil
}

// Subscribe subscribes to the owner's channel. It returns once Redis has
// confirmed the subscription, so events published afterwards are not lost.
func (b *RedisBroker) Subscribe(ctx context.Context, owner string) (<-chan models.ChangeEvent, func(), error) {
	pubsub := b.client.Subscribe(ctx, ownerChannel(owner))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to %s: %w", ownerChannel(owner), err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan models.ChangeEvent, subscriberBuffer)
	messages := pubsub.Channel()

	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var event models.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.WarnContext(subCtx, "malformed change event",
						slog.String("channel", msg.Channel),
						slog.Any("error", err))
					continue
				}

				select {
				case out <- event:
				default:
					// у клиента уже есть необработанное событие
				}
			}
		}
	}()

	return out, cancel, nil
}

// Close closes the underlying client
func (b *RedisBroker) Close() error {
	return b.client.Close()
}
