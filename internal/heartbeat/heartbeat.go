package heartbeat

import (
	"context"
	"time"

	"login-monitor/internal/logger"
	"login-monitor/internal/metrics"
)

// LivenessWriter is the slice of the result reporter the publisher
// needs.
type LivenessWriter interface {
	UpdateDeviceLiveness(ctx context.Context, deviceID string) error
}

// Publisher writes device liveness on a fixed period for the process
// lifetime, fully decoupled from command traffic. Write failures are
// logged and never stop the loop.
type Publisher struct {
	reporter LivenessWriter
	deviceID string
	interval time.Duration
}

func NewPublisher(reporter LivenessWriter, deviceID string, interval time.Duration) *Publisher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Publisher{reporter: reporter, deviceID: deviceID, interval: interval}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.beat(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.beat(ctx)
		}
	}
}

func (p *Publisher) beat(ctx context.Context) {
	if err := p.reporter.UpdateDeviceLiveness(ctx, p.deviceID); err != nil {
		logger.Errorf("Heartbeat error: %v", err)
		return
	}
	metrics.HeartbeatsSent.Inc()
}
