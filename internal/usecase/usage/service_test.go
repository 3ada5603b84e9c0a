package usage

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	embeddinguc "github.com/kailas-cloud/keypoints/internal/usecase/embedding"
)

// --- Mock ---

type mockBudgetReader struct {
	limit     int64
	used      int64
	remaining int64
}

func (m *mockBudgetReader) Limit() int64     { return m.limit }
func (m *mockBudgetReader) Used() int64      { return m.used }
func (m *mockBudgetReader) Remaining() int64 { return m.remaining }

func fixedClock(svc *Service) {
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC) }
}

// --- Tests ---

func TestGetReport_Limited(t *testing.T) {
	svc := New("ollama", &mockBudgetReader{limit: 10000, used: 3000, remaining: 7000})
	fixedClock(svc)

	r := svc.GetReport(context.Background())

	if r.Provider() != "ollama" {
		t.Errorf("expected provider ollama, got %q", r.Provider())
	}
	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if r.PeriodStart() != dayStart.UnixMilli() {
		t.Errorf("expected period start %d, got %d", dayStart.UnixMilli(), r.PeriodStart())
	}
	if r.PeriodEnd() != dayStart.Add(24*time.Hour).UnixMilli() {
		t.Errorf("unexpected period end %d", r.PeriodEnd())
	}
	if r.TokensLimit() != 10000 {
		t.Errorf("expected limit 10000, got %d", r.TokensLimit())
	}
	if r.TokensRemaining() != 7000 {
		t.Errorf("expected remaining 7000, got %d", r.TokensRemaining())
	}
	if r.TokensUsed() != 3000 {
		t.Errorf("expected used 3000, got %d", r.TokensUsed())
	}
	if r.IsExhausted() {
		t.Error("budget should not be exhausted")
	}
}

func TestGetReport_Exhausted(t *testing.T) {
	svc := New("openai", &mockBudgetReader{limit: 100, used: 120, remaining: 0})

	r := svc.GetReport(context.Background())

	if !r.IsExhausted() {
		t.Error("expected exhausted budget")
	}
}

func TestGetReport_NilReader(t *testing.T) {
	svc := New("ollama", nil)

	r := svc.GetReport(context.Background())

	if !r.Unlimited() {
		t.Error("expected unlimited report")
	}
	if r.TokensRemaining() != -1 {
		t.Errorf("expected remaining -1, got %d", r.TokensRemaining())
	}
	if r.IsExhausted() {
		t.Error("unlimited budget is never exhausted")
	}
}

func TestGetReport_FromQuota(t *testing.T) {
	q := embeddinguc.NewQuota("ollama", 500, embeddinguc.QuotaActionReject, zap.NewNop())
	q.Record(200)

	r := New("ollama", q).GetReport(context.Background())

	if r.TokensUsed() != 200 || r.TokensRemaining() != 300 || r.TokensLimit() != 500 {
		t.Errorf("unexpected report: used=%d remaining=%d limit=%d",
			r.TokensUsed(), r.TokensRemaining(), r.TokensLimit())
	}
}
