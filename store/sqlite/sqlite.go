/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists the three pieces of state the leave engine does not compute:
  employees (for their hire dates), the append-only usage ledger and the
  grant notices recorded by the scheduler.

INTERFACES IMPLEMENTED:
  generic.Store:    Usage ledger persistence
  leave.HireDates:  Hire date lookup for the leave service

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on transactions table
  - No DELETE statements on transactions table
  - Corrections via reversal transactions only

KEY TABLES:
  employees:      Entity records with hire_date
  transactions:   Immutable ledger of leave usage
  grant_notices:  Upcoming grants detected by the scheduler

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; the scheduler sweeps employees
  concurrently through the same Store.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      return err
  }
  defer store.Close()

  svc := leave.NewService(store, generic.NewLedger(store), leave.SystemClock)

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (entities)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Transactions (append-only usage ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL,
		effective_at TEXT NOT NULL,
		delta_value TEXT NOT NULL,
		delta_unit TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	-- Usage window queries (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_entity_date
		ON transactions(entity_id, effective_at);

	-- Reversal lookups
	CREATE INDEX IF NOT EXISTS idx_transactions_reference
		ON transactions(reference_id) WHERE reference_id IS NOT NULL;

	-- Grant notices (one per employee per grant date)
	CREATE TABLE IF NOT EXISTS grant_notices (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		grant_date TEXT NOT NULL,
		entitlement_value TEXT NOT NULL,
		regime TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, grant_date)
	);

	CREATE INDEX IF NOT EXISTS idx_grant_notices_date
		ON grant_notices(grant_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION STORE (generic.Store interface)
// =============================================================================

const txColumns = `id, entity_id, effective_at, delta_value, delta_unit,
		       tx_type, reference_id, reason, idempotency_key, created_at`

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendTx(ctx, s.db, tx)
}

func (s *Store) appendTx(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, tx generic.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, entity_id, effective_at, delta_value, delta_unit,
		 tx_type, reference_id, reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		tx.ID,
		tx.EntityID,
		formatDate(tx.EffectiveAt),
		tx.Delta.Value.String(),
		tx.Delta.Unit,
		tx.Type,
		nullString(tx.ReferenceID),
		tx.Reason,
		nullString(tx.IdempotencyKey),
		time.Now().UTC().Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// AppendBatch adds multiple transactions atomically.
func (s *Store) AppendBatch(ctx context.Context, txs []generic.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Duplicate keys within the batch are rejected before touching the DB.
	idempotencyKeys := make(map[string]bool)
	for _, tx := range txs {
		if tx.IdempotencyKey != "" {
			if idempotencyKeys[tx.IdempotencyKey] {
				return generic.ErrDuplicateIdempotencyKey
			}
			idempotencyKeys[tx.IdempotencyKey] = true
		}
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, tx := range txs {
		if err := s.appendTx(ctx, sqlTx, tx); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

// Load returns all transactions for an entity.
func (s *Store) Load(ctx context.Context, entityID generic.EntityID) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + txColumns + `
		FROM transactions
		WHERE entity_id = ?
		ORDER BY effective_at ASC, created_at ASC, rowid ASC
	`
	return s.queryTransactions(ctx, query, entityID)
}

// LoadRange returns transactions effective in [from, to].
func (s *Store) LoadRange(ctx context.Context, entityID generic.EntityID, from, to generic.TimePoint) ([]generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + txColumns + `
		FROM transactions
		WHERE entity_id = ?
		  AND effective_at >= ? AND effective_at <= ?
		ORDER BY effective_at ASC, created_at ASC, rowid ASC
	`
	return s.queryTransactions(ctx, query, entityID, formatDate(from), formatDate(to))
}

// Exists checks if an idempotency key exists.
func (s *Store) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?",
		idempotencyKey,
	).Scan(&count)

	return count > 0, err
}

// Get retrieves a single transaction by ID.
func (s *Store) Get(ctx context.Context, id generic.TransactionID) (generic.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs, err := s.queryTransactions(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	if err != nil {
		return generic.Transaction{}, err
	}
	if len(txs) == 0 {
		return generic.Transaction{}, fmt.Errorf("%w: %s", generic.ErrTransactionNotFound, id)
	}
	return txs[0], nil
}

// IsReversed checks if a reversal transaction references the given ID.
func (s *Store) IsReversed(ctx context.Context, id generic.TransactionID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE reference_id = ? AND tx_type = ?",
		id, generic.TxReversal,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check reversal: %w", err)
	}
	return count > 0, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]generic.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []generic.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (generic.Transaction, error) {
	var (
		tx             generic.Transaction
		effectiveAt    string
		deltaValue     string
		deltaUnit      string
		referenceID    sql.NullString
		reason         sql.NullString
		idempotencyKey sql.NullString
		createdAt      string
	)

	err := rows.Scan(
		&tx.ID, &tx.EntityID, &effectiveAt, &deltaValue, &deltaUnit, &tx.Type,
		&referenceID, &reason, &idempotencyKey, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	if tx.EffectiveAt, err = generic.ParseDate(effectiveAt); err != nil {
		return tx, fmt.Errorf("transaction %s: %w", tx.ID, err)
	}
	if tx.Delta, err = generic.ParseAmount(deltaValue, generic.Unit(deltaUnit)); err != nil {
		return tx, fmt.Errorf("transaction %s: bad delta %q: %w", tx.ID, deltaValue, err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		tx.CreatedAt = generic.FromTime(t)
	}
	tx.ReferenceID = referenceID.String
	tx.Reason = reason.String
	tx.IdempotencyKey = idempotencyKey.String

	return tx, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// Employee represents an employee record.
type Employee struct {
	ID        string
	Name      string
	Email     string
	HireDate  generic.TimePoint
	CreatedAt time.Time
}

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, email, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			hire_date = excluded.hire_date
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, emp.Email,
		formatDate(emp.HireDate),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID or generic.ErrEmployeeNotFound.
func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, hire_date, created_at FROM employees WHERE id = ?",
		id,
	)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Employee{}, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	return emp, err
}

// ListEmployees returns all employees ordered by name.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, hire_date, created_at FROM employees ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee. Ledger entries are kept for audit.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	return err
}

// HireDate implements leave.HireDates.
func (s *Store) HireDate(ctx context.Context, id generic.EntityID) (generic.TimePoint, error) {
	emp, err := s.GetEmployee(ctx, string(id))
	if err != nil {
		return generic.TimePoint{}, err
	}
	return emp.HireDate, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (Employee, error) {
	var (
		emp       Employee
		email     sql.NullString
		hireDate  string
		createdAt string
	)
	if err := row.Scan(&emp.ID, &emp.Name, &email, &hireDate, &createdAt); err != nil {
		return Employee{}, err
	}
	hd, err := generic.ParseDate(hireDate)
	if err != nil {
		return Employee{}, fmt.Errorf("employee %s: %w", emp.ID, err)
	}
	emp.Email = email.String
	emp.HireDate = hd
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return emp, nil
}

// =============================================================================
// GRANT NOTICES
// =============================================================================

// GrantNotice records an upcoming entitlement change for one employee.
type GrantNotice struct {
	ID          string
	EmployeeID  string
	GrantDate   generic.TimePoint
	Entitlement generic.Amount
	Regime      leave.RegimeKind
	CreatedAt   time.Time
}

// SaveGrantNotice stores a notice unless one exists for the same employee
// and grant date. Reports whether a row was written.
func (s *Store) SaveGrantNotice(ctx context.Context, n GrantNotice) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO grant_notices (id, employee_id, grant_date, entitlement_value, regime, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, grant_date) DO NOTHING
	`,
		n.ID, n.EmployeeID, formatDate(n.GrantDate), n.Entitlement.Value.String(), n.Regime,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("failed to save grant notice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListGrantNotices returns notices with grant dates in [from, to].
func (s *Store) ListGrantNotices(ctx context.Context, from, to generic.TimePoint) ([]GrantNotice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, grant_date, entitlement_value, regime, created_at
		FROM grant_notices
		WHERE grant_date >= ? AND grant_date <= ?
		ORDER BY grant_date ASC, employee_id ASC
	`, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list grant notices: %w", err)
	}
	defer rows.Close()

	var notices []GrantNotice
	for rows.Next() {
		var (
			n                    GrantNotice
			grantDate, value, at string
			regime               string
		)
		if err := rows.Scan(&n.ID, &n.EmployeeID, &grantDate, &value, &regime, &at); err != nil {
			return nil, fmt.Errorf("failed to scan grant notice: %w", err)
		}
		if n.GrantDate, err = generic.ParseDate(grantDate); err != nil {
			return nil, err
		}
		if n.Entitlement, err = generic.ParseAmount(value, generic.UnitDays); err != nil {
			return nil, err
		}
		n.Regime = leave.RegimeKind(regime)
		n.CreatedAt, _ = time.Parse(time.RFC3339, at)
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

// Helper functions

func formatDate(tp generic.TimePoint) string {
	return tp.String()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ generic.Store   = (*Store)(nil)
	_ leave.HireDates = (*Store)(nil)
)
