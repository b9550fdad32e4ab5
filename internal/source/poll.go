package source

import (
	"context"
	"time"

	"login-monitor/internal/logger"
	"login-monitor/internal/store"
)

// PollStore is the slice of the store the poller reads and writes.
type PollStore interface {
	PendingCommands(ctx context.Context, deviceID string) ([]store.CommandRecord, error)
	UpdateDeviceLiveness(ctx context.Context, deviceID string) error
}

// Poll scans for pending commands on a fixed period. Each cycle also
// refreshes device liveness, independent of (and in addition to) the
// heartbeat publisher.
type Poll struct {
	store    PollStore
	deviceID string
	interval time.Duration
}

func NewPoll(st PollStore, deviceID string, interval time.Duration) *Poll {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poll{store: st, deviceID: deviceID, interval: interval}
}

func (p *Poll) Mode() string { return "poll" }

func (p *Poll) Run(ctx context.Context, sink Sink) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cmds, err := p.store.PendingCommands(ctx, p.deviceID)
			if err != nil {
				logger.Errorf("Poll cycle failed: %v", err)
				continue
			}
			for _, rec := range cmds {
				sink(rec)
			}
			if err := p.store.UpdateDeviceLiveness(ctx, p.deviceID); err != nil {
				logger.Errorf("Poll liveness update failed: %v", err)
			}
		}
	}
}
