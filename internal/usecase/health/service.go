package health

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every component failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	checkers map[string]Checker
}

// New creates a Service. Nil checkers are skipped.
func New(checkers map[string]Checker) *Service {
	clean := make(map[string]Checker, len(checkers))
	for name, c := range checkers {
		if c != nil {
			clean[name] = c
		}
	}
	return &Service{checkers: clean}
}

// Names returns the registered component names, sorted.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		checks = make(map[string]CheckResult, len(s.checkers))
		g, gctx = errgroup.WithContext(ctx)
	)
	for name, c := range s.checkers {
		g.Go(func() error {
			res := CheckOK
			if err := c.HealthCheck(gctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, v := range checks {
		if v == CheckError {
			failed++
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
