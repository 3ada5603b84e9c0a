// Package usage holds the embedding token usage report.
package usage

// Report is a snapshot of today's embedding token usage for one provider.
type Report struct {
	provider    string
	periodStart int64
	periodEnd   int64
	tokensUsed  int64
	tokensLimit int64
	remaining   int64
}

// NewReport creates a Report. Period bounds are unix milliseconds.
// A zero limit means unlimited; remaining is then reported as -1.
func NewReport(provider string, periodStart, periodEnd, used, limit, remaining int64) Report {
	if limit == 0 {
		remaining = -1
	}
	return Report{
		provider:    provider,
		periodStart: periodStart,
		periodEnd:   periodEnd,
		tokensUsed:  used,
		tokensLimit: limit,
		remaining:   remaining,
	}
}

// Provider returns the embedding provider name.
func (r Report) Provider() string { return r.provider }

// PeriodStart returns the start of the reporting day.
func (r Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the end of the reporting day. The counter resets then.
func (r Report) PeriodEnd() int64 { return r.periodEnd }

// TokensUsed returns tokens consumed in the period.
func (r Report) TokensUsed() int64 { return r.tokensUsed }

// TokensLimit returns the daily cap, 0 when unlimited.
func (r Report) TokensLimit() int64 { return r.tokensLimit }

// TokensRemaining returns tokens left, -1 when unlimited.
func (r Report) TokensRemaining() int64 { return r.remaining }

// Unlimited reports whether no daily cap is configured.
func (r Report) Unlimited() bool { return r.tokensLimit == 0 }

// IsExhausted reports whether the daily cap has been reached.
func (r Report) IsExhausted() bool { return r.tokensLimit > 0 && r.remaining <= 0 }
