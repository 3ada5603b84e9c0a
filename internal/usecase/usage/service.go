package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/keypoints/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	br       BudgetReader
	provider string
	now      func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(provider string, br BudgetReader) *Service {
	return &Service{br: br, provider: provider, now: time.Now}
}

// GetReport builds today's usage report. Days are UTC, matching the quota rollover.
func (s *Service) GetReport(_ context.Context) domusage.Report {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	var limit, used, remaining int64
	if s.br != nil {
		limit = s.br.Limit()
		used = s.br.Used()
		remaining = s.br.Remaining()
	}

	return domusage.NewReport(s.provider, dayStart.UnixMilli(), dayEnd.UnixMilli(), used, limit, remaining)
}
