package health

import "context"

// Checker probes one dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts a DBPinger to Checker.
type PingChecker struct{ DB DBPinger }

// HealthCheck implements Checker.
func (p PingChecker) HealthCheck(ctx context.Context) error { return p.DB.Ping(ctx) }
