package redis

import (
	"context"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/gameday/repository"
)

// changeFeed broadcasts "collection changed" signals over Redis pub/sub, one
// channel per identity. Every client holding a live view re-reads on a signal.
type changeFeed struct {
	client redislib.UniversalClient
	prefix string
	logger *zap.Logger
}

// NewChangeFeed returns a Redis pub/sub ChangeFeed.
func NewChangeFeed(client redislib.UniversalClient, logger *zap.Logger) repository.ChangeFeed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &changeFeed{
		client: client,
		prefix: "gameday:reminders:",
		logger: logger,
	}
}

func (f *changeFeed) Publish(ctx context.Context, userID string) error {
	return f.client.Publish(ctx, f.channel(userID), "changed").Err()
}

func (f *changeFeed) Subscribe(ctx context.Context, userID string) (<-chan struct{}, error) {
	pubsub := f.client.Subscribe(ctx, f.channel(userID))
	// Receive blocks until the subscription is confirmed so no publish is missed afterwards.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					f.logger.Warn("change feed closed", zap.String("user_id", userID))
					return
				}
				// Signals coalesce: one pending reload covers any number of changes.
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (f *changeFeed) channel(userID string) string {
	return fmt.Sprintf("%s%s", f.prefix, userID)
}
