package keypoints

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/keypoints/internal/domain/usage"
)

// UsageReport contains today's embedding token usage.
type UsageReport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	TokensUsed  int64
	// TokensLimit is 0 when unlimited.
	TokensLimit int64
	// TokensRemaining is -1 when unlimited.
	TokensRemaining int64
	IsExhausted     bool
}

// Usage returns the embedding token usage of the current UTC day.
// Counters are tracked only when WithDailyTokenLimit is set.
func (c *Client) Usage(ctx context.Context) UsageReport {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, nil) }()

	report := c.usageSvc.GetReport(ctx)
	return UsageReport{
		PeriodStart:     time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:       time.UnixMilli(report.PeriodEnd()).UTC(),
		TokensUsed:      report.TokensUsed(),
		TokensLimit:     report.TokensLimit(),
		TokensRemaining: report.TokensRemaining(),
		IsExhausted:     report.IsExhausted(),
	}
}

// usageUseCase is the internal interface for usage reports.
type usageUseCase interface {
	GetReport(ctx context.Context) domusage.Report
}
