package generic

// =============================================================================
// ACCRUAL SCHEDULE - Interface for how leave accumulates
// =============================================================================

// AccrualSchedule generates accrual events for a time range.
// Implementations define the business logic (statutory annual leave, etc.)
type AccrualSchedule interface {
	// GenerateAccruals returns accrual events in [from, to].
	GenerateAccruals(from, to TimePoint) []AccrualEvent

	// IsDeterministic returns true if future accruals can be predicted
	// from dates alone.
	IsDeterministic() bool
}

// AccrualEvent represents a single accrual occurrence.
type AccrualEvent struct {
	At     TimePoint
	Amount Amount
	Reason string
}
