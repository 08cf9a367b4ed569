package redis

import (
	"context"
	"encoding/json"
	"fmt"

	redislib "github.com/redis/go-redis/v9"
)

// AlertPublisher pushes deadline alerts onto a per-identity pub/sub channel
// for whatever notifier (push service, desktop agent) listens there.
type AlertPublisher struct {
	client redislib.UniversalClient
	prefix string
}

func NewAlertPublisher(client redislib.UniversalClient) *AlertPublisher {
	return &AlertPublisher{client: client, prefix: "gameday:alerts:"}
}

// Publish encodes payload as JSON and sends it to the identity's alert channel.
func (p *AlertPublisher) Publish(ctx context.Context, userID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.Channel(userID), body).Err()
}

// Channel names the alert channel of an identity.
func (p *AlertPublisher) Channel(userID string) string {
	return fmt.Sprintf("%s%s", p.prefix, userID)
}
