/*
ledger.go - Append-only leave usage log

PURPOSE:
  The Ledger is the source of truth for leave TAKEN. Entitlement is never
  stored: it is recomputed from the hire date on every call (see leave/).
  Used leave is always computed by summing transactions, so there is no
  separate "used" counter that can drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. AUDITABLE: Every usage change is traceable with reason and reference
  3. IDEMPOTENT: Same idempotency key = same transaction (no duplicates)

CORRECTIONS:
  A mistaken usage entry is never edited. A Reversal transaction with the
  opposite sign is appended and references the original.

  Ledger: [-3 consumption, +3 reversal] = 0 days used

SEE ALSO:
  - store.go: Low-level persistence interface
  - leave/service.go: Feeds UsedIn into the balance calculation
*/
package generic

import "context"

// =============================================================================
// LEDGER - Append-only transaction log
// =============================================================================

// Ledger records leave usage.
type Ledger interface {
	// Append adds a transaction. Fails if idempotency key exists.
	Append(ctx context.Context, tx Transaction) error

	// Transactions returns all transactions for an entity, chronologically.
	Transactions(ctx context.Context, entityID EntityID) ([]Transaction, error)

	// Transaction returns a single transaction by ID.
	Transaction(ctx context.Context, id TransactionID) (Transaction, error)

	// IsReversed reports whether the transaction has been reversed.
	IsReversed(ctx context.Context, id TransactionID) (bool, error)

	// UsedIn returns net leave used within the period, as a non-negative
	// quantity when usage outweighs corrections.
	UsedIn(ctx context.Context, entityID EntityID, period Period, unit Unit) (Amount, error)
}

// =============================================================================
// DEFAULT LEDGER - Implementation using Store
// =============================================================================

type DefaultLedger struct {
	Store Store
}

func NewLedger(store Store) *DefaultLedger {
	return &DefaultLedger{Store: store}
}

func (l *DefaultLedger) Append(ctx context.Context, tx Transaction) error {
	if tx.IdempotencyKey != "" {
		exists, err := l.Store.Exists(ctx, tx.IdempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateIdempotencyKey
		}
	}
	return l.Store.Append(ctx, tx)
}

func (l *DefaultLedger) Transactions(ctx context.Context, entityID EntityID) ([]Transaction, error) {
	return l.Store.Load(ctx, entityID)
}

func (l *DefaultLedger) Transaction(ctx context.Context, id TransactionID) (Transaction, error) {
	return l.Store.Get(ctx, id)
}

func (l *DefaultLedger) IsReversed(ctx context.Context, id TransactionID) (bool, error) {
	return l.Store.IsReversed(ctx, id)
}

func (l *DefaultLedger) UsedIn(ctx context.Context, entityID EntityID, period Period, unit Unit) (Amount, error) {
	txs, err := l.Store.LoadRange(ctx, entityID, period.Start, period.End)
	if err != nil {
		return Amount{}, err
	}
	return NetUsage(txs, unit), nil
}

// NetUsage sums usage deltas. Consumption is recorded negative, so the sum
// is negated to yield days used.
func NetUsage(txs []Transaction, unit Unit) Amount {
	net := NewAmount(0, unit)
	for _, tx := range txs {
		net = net.Add(tx.Delta)
	}
	return net.Neg()
}
