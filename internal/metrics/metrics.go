package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay metrics
var (
	// RelayActiveStreams tracks currently open push streams by role
	RelayActiveStreams = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_active_streams",
			Help: "Currently open push streams by device role",
		},
		[]string{"role"},
	)

	// RelayActiveUsers tracks number of users with at least one open stream
	RelayActiveUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_active_users",
			Help: "Number of users with at least one open push stream",
		},
	)

	// RelayEventsTotal tracks broadcast events accepted by payload kind
	RelayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Broadcast events accepted by payload kind",
		},
		[]string{"kind"},
	)

	// RelayDeliveriesTotal tracks per-stream delivery attempts by outcome
	RelayDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_deliveries_total",
			Help: "Per-stream delivery attempts by outcome (enqueued/evicted)",
		},
		[]string{"outcome"},
	)

	// RelayDeadStreamsPruned tracks streams removed after a failed write
	RelayDeadStreamsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_dead_streams_pruned_total",
			Help: "Streams removed from the registry after a failed write or ping",
		},
	)

	// RelayStreamsThrottledTotal tracks stream opens rejected by the per-IP rate limit
	RelayStreamsThrottledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_streams_throttled_total",
			Help: "Stream opens rejected by the per-IP rate limit",
		},
	)

	// RelayStopTimeoutsTotal tracks hub stop timeouts
	RelayStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_stop_timeouts_total",
			Help: "Total hub stop operations that exceeded the shutdown timeout",
		},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks Redis operations by command and status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_ops_total",
			Help: "Redis operations by command and status (success/error)",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency by command
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_op_duration_seconds",
			Help:    "Redis operation latency by command",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed Redis connection attempts
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Failed Redis connection attempts",
		},
	)

	// CircuitBreakerState reports the current breaker state per component
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"component"},
	)

	// CircuitBreakerStateChanges tracks breaker transitions
	CircuitBreakerStateChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Circuit breaker transitions by component and new state",
		},
		[]string{"component", "state"},
	)
)

// Auth metrics
var (
	// AuthLoginsTotal tracks login attempts by status
	AuthLoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by status (success/failure)",
		},
		[]string{"status"},
	)

	// AuthSignupsTotal tracks completed signups
	AuthSignupsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_signups_total",
			Help: "Total completed signups",
		},
	)
)
