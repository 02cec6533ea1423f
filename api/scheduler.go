/*
scheduler.go - Grant notice scheduler

PURPOSE:
  Periodically looks ahead for every employee's next entitlement change
  (monthly accrual, first-anniversary grant, January 1st grant) and
  records a grant notice when it falls inside the lookahead window.
  Delivering notices is someone else's job; this only records them.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each sweep fans out over employees with an errgroup, bounded by
    Concurrency
  - Notices are unique per (employee, grant date), so repeated sweeps
    never duplicate them
  - "Today" comes from the injected Clock

CONFIGURATION:
  - Interval: How often to sweep (default: 1 hour)
  - LookaheadDays: How far ahead a grant counts as upcoming (default: 30)
  - Concurrency: Employees evaluated in parallel (default: 4)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewGrantNoticeScheduler(store, leave.SystemClock, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - leave/nextgrant.go: NextLeaveGrantDate
  - store/sqlite: SaveGrantNotice
*/
package api

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GrantNoticeScheduler records upcoming grants on a timer.
type GrantNoticeScheduler struct {
	Store         *sqlite.Store
	Clock         leave.Clock
	Logger        *zap.Logger
	Interval      time.Duration
	LookaheadDays int
	Concurrency   int
	Enabled       bool

	// NewID generates notice IDs. Defaults to random UUIDs.
	NewID func() string

	ticker *time.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// SweepResult summarises one pass over all employees.
type SweepResult struct {
	Employees int
	Created   int
	Skipped   int
}

// NewGrantNoticeScheduler creates a scheduler with default settings.
func NewGrantNoticeScheduler(store *sqlite.Store, clock leave.Clock, logger *zap.Logger) *GrantNoticeScheduler {
	if clock == nil {
		clock = leave.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GrantNoticeScheduler{
		Store:         store,
		Clock:         clock,
		Logger:        logger.Named("scheduler"),
		Interval:      time.Hour,
		LookaheadDays: 30,
		Concurrency:   4,
		Enabled:       true,
		NewID:         uuid.NewString,
	}
}

// Start begins the scheduler. Calling Start on a running scheduler is a no-op.
func (s *GrantNoticeScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Logger.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.ticker = time.NewTicker(s.Interval)
	s.wg.Add(1)

	go s.run(ctx, s.ticker)

	s.Logger.Info("started",
		zap.Duration("interval", s.Interval),
		zap.Int("lookahead_days", s.LookaheadDays),
		zap.Int("concurrency", s.Concurrency),
	)
}

// Stop stops the scheduler and waits for an in-flight sweep to finish.
func (s *GrantNoticeScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.cancel()
	s.wg.Wait()
	s.ticker = nil
	s.cancel = nil
	s.Logger.Info("stopped")
}

func (s *GrantNoticeScheduler) run(ctx context.Context, ticker *time.Ticker) {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *GrantNoticeScheduler) sweep(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.Logger.Error("sweep failed", zap.Error(err))
		}
		return
	}
	if res.Created > 0 {
		s.Logger.Info("sweep completed",
			zap.Int("employees", res.Employees),
			zap.Int("created", res.Created),
			zap.Int("skipped", res.Skipped),
		)
	}
}

// RunOnce evaluates every employee once against today's date.
func (s *GrantNoticeScheduler) RunOnce(ctx context.Context) (SweepResult, error) {
	today := s.Clock()
	horizon := today.AddDays(s.LookaheadDays)

	employees, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list employees: %w", err)
	}

	var created, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Concurrency, 1))

	for _, emp := range employees {
		emp := emp
		g.Go(func() error {
			ok, err := s.noticeFor(gctx, emp, today, horizon)
			if err != nil {
				return fmt.Errorf("employee %s: %w", emp.ID, err)
			}
			if ok {
				created.Add(1)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}

	res := SweepResult{Employees: len(employees)}
	err = g.Wait()
	res.Created = int(created.Load())
	res.Skipped = int(skipped.Load())
	return res, err
}

// noticeFor records a notice when the employee's next grant falls within
// (today, horizon]. Reports whether a new notice was written.
func (s *GrantNoticeScheduler) noticeFor(ctx context.Context, emp sqlite.Employee, today, horizon generic.TimePoint) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// Not hired yet
	if leave.ValidateRange(emp.HireDate, today) != nil {
		return false, nil
	}

	next, ok := leave.NextLeaveGrantDate(emp.HireDate, today)
	if !ok || next.After(horizon) {
		return false, nil
	}

	regime := leave.ClassifyRegime(emp.HireDate, next)
	created, err := s.Store.SaveGrantNotice(ctx, sqlite.GrantNotice{
		ID:          s.NewID(),
		EmployeeID:  emp.ID,
		GrantDate:   next,
		Entitlement: regime.Entitlement(),
		Regime:      regime.Kind(),
	})
	if err != nil {
		return false, err
	}
	if created {
		s.Logger.Debug("grant notice recorded",
			zap.String("employee_id", emp.ID),
			zap.Stringer("grant_date", next),
			zap.String("regime", string(regime.Kind())),
		)
	}
	return created, nil
}
