package redis

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/pscheid92/paircast/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// metricsHook records per-command counters and latency for every Redis
// operation the session store performs.
type metricsHook struct{}

var _ goredis.Hook = metricsHook{}

func (metricsHook) DialHook(next goredis.DialHook) goredis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			metrics.RedisConnectionErrors.Inc()
		}
		return conn, err
	}
}

func (metricsHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		return observe(cmd.Name(), func() error { return next(ctx, cmd) })
	}
}

// A pipeline counts as one operation; its commands land on the wire
// together and cannot be timed individually.
func (metricsHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		return observe("pipeline", func() error { return next(ctx, cmds) })
	}
}

func observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RedisOpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil && !errors.Is(err, goredis.Nil) {
		status = "error"
	}
	metrics.RedisOpsTotal.WithLabelValues(operation, status).Inc()

	return err
}
