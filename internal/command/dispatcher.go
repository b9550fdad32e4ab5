package command

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"login-monitor/internal/logger"
	"login-monitor/internal/metrics"
	"login-monitor/internal/store"
)

// CompletionWriter is the slice of the result reporter the dispatcher
// needs.
type CompletionWriter interface {
	CompleteCommand(ctx context.Context, id string, resultJSON string) error
}

// Dispatcher consumes delivered command records sequentially: resolve,
// normalize, invoke, then exactly one completion write per record.
// Handler failures of any shape become completed-with-failure results;
// nothing a handler does can crash the process.
type Dispatcher struct {
	registry *Registry
	reporter CompletionWriter
}

func NewDispatcher(registry *Registry, reporter CompletionWriter) *Dispatcher {
	return &Dispatcher{registry: registry, reporter: reporter}
}

func (d *Dispatcher) Dispatch(ctx context.Context, rec store.CommandRecord) {
	metrics.CommandsDispatched.Inc()
	timer := prometheus.NewTimer(metrics.DispatchDuration)
	defer timer.ObserveDuration()

	name := strings.ToLower(rec.Command)
	args := NormalizeArgs(rec.Args)

	logger.Infof("Processing command: %s", name)
	res := d.invoke(ctx, name, args)
	if !res.Success() {
		metrics.CommandFailures.Inc()
	}

	// completion is best-effort: the record stays pending on store
	// failure and a later delivery will redundantly overwrite the
	// same final result
	if err := d.reporter.CompleteCommand(ctx, rec.ID, res.JSON()); err != nil {
		logger.Errorf("Failed to write completion for %s: %v", rec.ID, err)
		return
	}
	logger.Infof("Command %s completed: success=%v", name, res.Success())
}

func (d *Dispatcher) invoke(ctx context.Context, name string, args map[string]any) (res Result) {
	handler, ok := d.registry.Resolve(name)
	if !ok {
		return Fail("Unknown command: %s", name)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Handler %s panicked: %v", name, r)
			res = Fail("%v", r)
		}
	}()
	return handler(ctx, args)
}
