package source

import (
	"context"
	"encoding/json"
	"fmt"

	"login-monitor/internal/logger"
	"login-monitor/internal/store"
)

// Push delivers commands from the store's change feed. It only sees
// rows inserted after the subscription was established; the startup
// reconciliation sweep covers anything older.
type Push struct {
	feed     *store.Feed
	deviceID string
}

func NewPush(feed *store.Feed, deviceID string) *Push {
	return &Push{feed: feed, deviceID: deviceID}
}

func (p *Push) Mode() string { return "push" }

func (p *Push) Run(ctx context.Context, sink Sink) error {
	sub, err := p.feed.Subscribe(ctx, p.deviceID)
	if err != nil {
		return fmt.Errorf("establish push subscription: %w", err)
	}
	defer sub.Close()

	logger.Infof("Push transport active for device %s", p.deviceID)
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("change feed stream closed")
			}
			var rec store.CommandRecord
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				logger.Errorf("Invalid change-feed payload: %v", err)
				continue
			}
			if rec.DeviceID != p.deviceID || rec.Status != store.StatusPending {
				continue
			}
			sink(rec)
		}
	}
}
