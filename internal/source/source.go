package source

import (
	"context"

	"login-monitor/internal/logger"
	"login-monitor/internal/metrics"
	"login-monitor/internal/store"
)

// Sink receives delivered command records in order.
type Sink func(store.CommandRecord)

// Source is one delivery transport. Run blocks until the context is
// cancelled or the transport fails irrecoverably.
type Source interface {
	Mode() string
	Run(ctx context.Context, sink Sink) error
}

// Run drives command delivery for the process lifetime. The push
// transport is tried first; if it cannot be established, or drops
// after connecting, delivery switches permanently to polling. There is
// no upgrade back to push within one process run.
func Run(ctx context.Context, push, poll Source, sink Sink) error {
	if push != nil {
		err := push.Run(ctx, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		metrics.TransportFallbacks.Inc()
		logger.Warnf("Push transport failed (%v), falling back to polling for the rest of this run", err)
	}
	return poll.Run(ctx, sink)
}
