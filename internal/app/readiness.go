package app

import (
	"context"
	"fmt"
)

// Pinger is the minimal interface shared by the database pool and the queue
// producer for readiness probes.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db and queue readiness checks.
func BuildReadinessChecks(pool, queue Pinger) (func(ctx context.Context) error, func(ctx context.Context) error) {
	dbCheck := func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db not configured")
		}
		return pool.Ping(ctx)
	}
	queueCheck := func(ctx context.Context) error {
		if queue == nil {
			return fmt.Errorf("queue not configured")
		}
		return queue.Ping(ctx)
	}
	return dbCheck, queueCheck
}
