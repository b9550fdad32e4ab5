package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Feed is the store's change feed. Every command insert is published
// on a per-device channel; subscribers see only rows inserted after
// the subscription was established.
type Feed struct {
	rdb *redis.Client
}

func NewFeed(addr, password string) *Feed {
	return &Feed{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})}
}

func NewFeedWithClient(rdb *redis.Client) *Feed { return &Feed{rdb: rdb} }

func channelFor(deviceID string) string { return "commands:" + deviceID }

func (f *Feed) Publish(ctx context.Context, rec CommandRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal command record: %w", err)
	}
	if err := f.rdb.Publish(ctx, channelFor(rec.DeviceID), data).Err(); err != nil {
		return fmt.Errorf("publish command insert: %w", err)
	}
	return nil
}

// Subscribe opens the insert channel for one device. The first Receive
// confirms the subscription so setup failures surface to the caller
// instead of silently stalling.
func (f *Feed) Subscribe(ctx context.Context, deviceID string) (*redis.PubSub, error) {
	ps := f.rdb.Subscribe(ctx, channelFor(deviceID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe change feed: %w", err)
	}
	return ps, nil
}

func (f *Feed) Close() error { return f.rdb.Close() }
