package metrics

import "github.com/prometheus/client_golang/prometheus"

// metrics variables
var (
	CommandsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_commands_dispatched_total",
			Help: "Total number of commands handed to the dispatcher",
		},
	)

	CommandFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_command_failures_total",
			Help: "Total number of commands completed with success=false",
		},
	)

	DispatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_command_dispatch_duration_seconds",
			Help:    "Duration of a single command dispatch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
	)

	HeartbeatsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_heartbeats_total",
			Help: "Total number of device liveness writes",
		},
	)

	TransportFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_transport_fallbacks_total",
			Help: "Times the agent fell back from push to polling",
		},
	)
)

func init() {
	prometheus.MustRegister(CommandsDispatched)
	prometheus.MustRegister(CommandFailures)
	prometheus.MustRegister(DispatchDuration)
	prometheus.MustRegister(HeartbeatsSent)
	prometheus.MustRegister(TransportFallbacks)
}
