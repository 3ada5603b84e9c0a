package keypoints

import (
	"context"

	healthuc "github.com/kailas-cloud/keypoints/internal/usecase/health"
)

// HealthStatus represents the aggregated embedder health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the embedding provider when it exposes a health endpoint.
// With no checkable provider the status is "ok" and Checks is empty.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
