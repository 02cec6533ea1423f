/*
Package generic provides the primitives shared by the leave engine.

PURPOSE:
  Calendar dates, exact day quantities and the append-only usage ledger.
  The leave package computes entitlement from these; the store and api
  packages persist and expose them.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity of leave with a unit (always days today)
  - Transaction: An immutable ledger entry recording leave usage
  - EntityID / TransactionID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never modified, only reversed
  2. Precision: Uses decimal.Decimal so 15.5 days stays 15.5 days
  3. Auditability: Every usage entry has reason, reference and idempotency key

USAGE:
  tx := generic.Transaction{
      EntityID: "emp-123",
      Delta:    generic.NewAmount(-2, generic.UnitDays),
      Type:     generic.TxConsumption,
  }

SEE ALSO:
  - ledger.go: Usage totals from transactions
  - store.go: Transaction persistence interface
  - leave/: Entitlement rules
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

// Days is shorthand for NewAmount(n, UnitDays).
func Days(n float64) Amount { return NewAmount(n, UnitDays) }

// ParseAmount parses a decimal string such as "15.5".
func ParseAmount(s string, unit Unit) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d, Unit: unit}, nil
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Min(b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}
func (a Amount) Max(b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Float64 is for JSON output only; arithmetic stays in decimal.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
type TransactionID string

// =============================================================================
// TRANSACTION - Atomic change to recorded leave usage
// =============================================================================

type TransactionType string

const (
	TxConsumption TransactionType = "consumption" // Leave taken (negative delta)
	TxReversal    TransactionType = "reversal"    // Undo a previous transaction
)

type Transaction struct {
	ID             TransactionID
	EntityID       EntityID
	EffectiveAt    TimePoint
	Delta          Amount
	Type           TransactionType
	ReferenceID    string
	Reason         string
	IdempotencyKey string
	CreatedAt      TimePoint
}
