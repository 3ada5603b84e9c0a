package usage

// BudgetReader provides read-only access to the daily token quota.
type BudgetReader interface {
	Limit() int64
	Used() int64
	Remaining() int64
}
