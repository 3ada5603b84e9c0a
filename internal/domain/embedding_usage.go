package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding token usage for a single request.
// The handler puts a pointer into the context, the instrumented embedder adds to it,
// and the handler reports it back in response headers.
type EmbeddingUsage struct {
	Calls       int
	TotalTokens int
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Add records one embedding call. Safe on a nil receiver.
func (u *EmbeddingUsage) Add(tokens int) {
	if u == nil {
		return
	}
	u.Calls++
	u.TotalTokens += tokens
}
