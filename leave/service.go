/*
service.go - Ledger-backed leave operations

PURPOSE:
  Joins the pure calculators with the two pieces of state they never own:
  the employee's hire date and the usage ledger. Handlers, the CLI and the
  scheduler call this instead of reading the ledger themselves.

USAGE WINDOW:
  Usage counts against the entitlement period it falls into (see
  EntitlementPeriod). Balance(asOf) sums usage in UsageWindow(hire, asOf).
  Recording usage checks against the whole period, so leave booked later
  in the same period is already accounted for.

CONCURRENCY:
  Writes for one employee are serialized by a per-employee lock held
  across the usage read, the balance check and the append. The lock is
  per process: every writer must share one Service.

TIME:
  The service reads "today" only through the injected Clock, and only
  when a caller passes a zero as-of date.

SEE ALSO:
  - entitlement.go: ComputeLeaveBalance / CanUseLeave
  - generic/ledger.go: UsedIn
  - store/sqlite: Concrete HireDates and Store
*/
package leave

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
)

// Clock supplies the current calendar date.
type Clock func() generic.TimePoint

// SystemClock reads the wall clock.
func SystemClock() generic.TimePoint { return generic.Today() }

// FixedClock always returns tp.
func FixedClock(tp generic.TimePoint) Clock {
	return func() generic.TimePoint { return tp }
}

// HireDates resolves an employee's hire date. Implementations return
// generic.ErrEmployeeNotFound for unknown IDs.
type HireDates interface {
	HireDate(ctx context.Context, id generic.EntityID) (generic.TimePoint, error)
}

// Service evaluates the policy for stored employees.
type Service struct {
	Employees HireDates
	Ledger    generic.Ledger
	Clock     Clock

	// NewID generates transaction IDs. Defaults to random UUIDs.
	NewID func() string

	locks sync.Map // generic.EntityID -> *sync.Mutex
}

func NewService(employees HireDates, ledger generic.Ledger, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		Employees: employees,
		Ledger:    ledger,
		Clock:     clock,
		NewID:     uuid.NewString,
	}
}

// UsageRequest records days of leave taken on a date.
type UsageRequest struct {
	EntityID       generic.EntityID
	Days           generic.Amount
	At             generic.TimePoint
	Reason         string
	IdempotencyKey string
}

// =============================================================================
// READS
// =============================================================================

// Balance returns entitlement minus recorded usage on asOf.
func (s *Service) Balance(ctx context.Context, id generic.EntityID, asOf generic.TimePoint) (LeaveBalance, error) {
	hire, asOf, err := s.resolve(ctx, id, asOf)
	if err != nil {
		return LeaveBalance{}, err
	}

	used, err := s.Ledger.UsedIn(ctx, id, UsageWindow(hire, asOf), generic.UnitDays)
	if err != nil {
		return LeaveBalance{}, fmt.Errorf("load usage for %s: %w", id, err)
	}
	return ComputeLeaveBalance(hire, used, asOf), nil
}

// History rebuilds the grant events up to asOf.
func (s *Service) History(ctx context.Context, id generic.EntityID, asOf generic.TimePoint) ([]GrantEvent, error) {
	hire, asOf, err := s.resolve(ctx, id, asOf)
	if err != nil {
		return nil, err
	}
	return GenerateLeaveGrantHistory(hire, asOf), nil
}

// NextGrant projects the next entitlement change after asOf.
func (s *Service) NextGrant(ctx context.Context, id generic.EntityID, asOf generic.TimePoint) (generic.TimePoint, bool, error) {
	hire, asOf, err := s.resolve(ctx, id, asOf)
	if err != nil {
		return generic.TimePoint{}, false, err
	}
	next, ok := NextLeaveGrantDate(hire, asOf)
	return next, ok, nil
}

// Usage lists every ledger entry for the employee.
func (s *Service) Usage(ctx context.Context, id generic.EntityID) ([]generic.Transaction, error) {
	if _, err := s.Employees.HireDate(ctx, id); err != nil {
		return nil, err
	}
	return s.Ledger.Transactions(ctx, id)
}

// =============================================================================
// WRITES
// =============================================================================

// RecordUsage appends a consumption entry if the balance allows it.
func (s *Service) RecordUsage(ctx context.Context, req UsageRequest) (generic.Transaction, error) {
	if !req.Days.IsPositive() {
		return generic.Transaction{}, fmt.Errorf("%w: days must be positive, got %v", generic.ErrInvalidAmount, req.Days.Value)
	}
	hire, at, err := s.resolve(ctx, req.EntityID, req.At)
	if err != nil {
		return generic.Transaction{}, err
	}

	unlock := s.lock(req.EntityID)
	defer unlock()

	used, err := s.Ledger.UsedIn(ctx, req.EntityID, EntitlementPeriod(hire, at), generic.UnitDays)
	if err != nil {
		return generic.Transaction{}, fmt.Errorf("load usage for %s: %w", req.EntityID, err)
	}
	if !CanUseLeave(hire, used, req.Days, at) {
		remaining := ComputeLeaveBalance(hire, used, at).RemainingAnnualLeave
		return generic.Transaction{}, &generic.InsufficientLeaveError{
			EntityID:  req.EntityID,
			Remaining: remaining,
			Requested: req.Days,
			Shortfall: req.Days.Sub(remaining),
		}
	}

	tx := generic.Transaction{
		ID:             generic.TransactionID(s.NewID()),
		EntityID:       req.EntityID,
		EffectiveAt:    at,
		Delta:          generic.Amount{Value: req.Days.Value, Unit: generic.UnitDays}.Neg(),
		Type:           generic.TxConsumption,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      s.Clock(),
	}
	if err := s.Ledger.Append(ctx, tx); err != nil {
		return generic.Transaction{}, err
	}
	return tx, nil
}

// ReverseUsage appends the opposite of an earlier entry.
func (s *Service) ReverseUsage(ctx context.Context, id generic.TransactionID, reason string) (generic.Transaction, error) {
	orig, err := s.Ledger.Transaction(ctx, id)
	if err != nil {
		return generic.Transaction{}, err
	}
	if orig.Type == generic.TxReversal {
		return generic.Transaction{}, generic.ErrNotReversible
	}

	unlock := s.lock(orig.EntityID)
	defer unlock()

	reversed, err := s.Ledger.IsReversed(ctx, id)
	if err != nil {
		return generic.Transaction{}, err
	}
	if reversed {
		return generic.Transaction{}, generic.ErrAlreadyReversed
	}

	tx := generic.Transaction{
		ID:             generic.TransactionID(s.NewID()),
		EntityID:       orig.EntityID,
		EffectiveAt:    orig.EffectiveAt,
		Delta:          orig.Delta.Neg(),
		Type:           generic.TxReversal,
		ReferenceID:    string(orig.ID),
		Reason:         reason,
		IdempotencyKey: "reversal-" + string(orig.ID),
		CreatedAt:      s.Clock(),
	}
	if err := s.Ledger.Append(ctx, tx); err != nil {
		return generic.Transaction{}, err
	}
	return tx, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Service) resolve(ctx context.Context, id generic.EntityID, asOf generic.TimePoint) (generic.TimePoint, generic.TimePoint, error) {
	hire, err := s.Employees.HireDate(ctx, id)
	if err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, err
	}
	if asOf.IsZero() {
		asOf = s.Clock()
	}
	if err := ValidateRange(hire, asOf); err != nil {
		return generic.TimePoint{}, generic.TimePoint{}, fmt.Errorf("%w: hired %s, as of %s", err, hire, asOf)
	}
	return hire, asOf, nil
}

func (s *Service) lock(id generic.EntityID) (unlock func()) {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
