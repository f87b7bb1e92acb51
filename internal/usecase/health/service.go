package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks over optional components.
type Service struct {
	checks  []check
	timeout time.Duration
}

// New creates a Service. Both components are optional; with none the
// report is always healthy.
func New(cache CachePinger, embedding EmbeddingChecker) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	if cache != nil {
		s.checks = append(s.checks, check{name: "cache", fn: cache.Ping})
	}
	if embedding != nil {
		s.checks = append(s.checks, check{name: "embedding", fn: embedding.HealthCheck})
	}
	return s
}

// Check runs all component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.checks))

	var wg sync.WaitGroup
	for i, c := range s.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			if err := c.fn(cctx); err != nil {
				results[i] = CheckError
				return
			}
			results[i] = CheckOK
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.checks))
	status := Healthy
	for i, c := range s.checks {
		checks[c.name] = results[i]
		if results[i] == CheckError {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
