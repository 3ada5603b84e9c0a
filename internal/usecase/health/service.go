package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 3 * time.Second

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that some, but not all, components fail.
	Degraded Status = "degraded"
	// Unhealthy indicates that every component fails.
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

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks of the key-value store and the embedding provider.
type Service struct {
	checks  []check
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. Either check can be nil: embedded callers have no
// store, and some providers have no health endpoint.
func New(db DBPinger, embedding EmbeddingChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{timeout: DefaultCheckTimeout, logger: logger}
	if db != nil {
		s.checks = append(s.checks, check{name: "database", fn: db.Ping})
	}
	if embedding != nil {
		s.checks = append(s.checks, check{name: "embedding", fn: embedding.HealthCheck})
	}
	return s
}

// WithTimeout overrides the per-check timeout.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs all component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(s.checks))
		failed int
	)

	for _, c := range s.checks {
		wg.Add(1)
		go func(c check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			err := c.fn(cctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("health check failed", zap.String("check", c.name), zap.Error(err))
				checks[c.name] = CheckError
				failed++
				return
			}
			checks[c.name] = CheckOK
		}(c)
	}
	wg.Wait()

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.checks):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}
