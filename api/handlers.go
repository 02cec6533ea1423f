/*
handlers.go - HTTP API handlers for the annual leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to leave.Service and the pure
  calculators in package leave.

ENDPOINTS:
  Employees:
    GET    /api/employees                        List all employees
    POST   /api/employees                        Create employee
    GET    /api/employees/{id}                   Get employee details

  Leave:
    GET    /api/employees/{id}/leave/balance     Balance (?as_of=YYYY-MM-DD)
    GET    /api/employees/{id}/leave/history     Grant history (?as_of=)
    GET    /api/employees/{id}/leave/next-grant  Next grant date (?as_of=)

  Usage:
    POST   /api/employees/{id}/leave/usage       Record leave taken
    GET    /api/employees/{id}/leave/usage       Usage ledger
    DELETE /api/leave/usage/{txID}               Reverse a usage entry

  Stateless:
    POST   /api/leave/calculate                  Evaluate without storage

  Scheduler:
    GET    /api/notices                          Upcoming grant notices

AS-OF DATES:
  Every read takes an optional as_of. When omitted the handler's Clock
  supplies today. A date before the hire date is a 400.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, as_of before hire
  - 404: Employee or transaction not found
  - 409: Insufficient leave, duplicate idempotency key, already reversed
  - 500: Internal errors (logged)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/service.go: Ledger-backed operations
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Leave  *leave.Service
	Logger *zap.Logger
	Clock  leave.Clock
}

// NewHandler wires a leave service over the store. A nil clock reads the
// wall clock; a nil logger discards output.
func NewHandler(store *sqlite.Store, clock leave.Clock, logger *zap.Logger) *Handler {
	if clock == nil {
		clock = leave.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:  store,
		Leave:  leave.NewService(store, generic.NewLedger(store), clock),
		Logger: logger,
		Clock:  clock,
	}
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, emp := range employees {
		dtos = append(dtos, toEmployeeDTO(emp))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeleteEmployee removes an employee. Their ledger entries stay for audit.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.Store.GetEmployee(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Store.DeleteEmployee(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	hire, err := generic.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hire_date", err)
		return
	}

	emp := sqlite.Employee{
		ID:       req.ID,
		Name:     req.Name,
		Email:    req.Email,
		HireDate: hire,
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.Logger.Info("employee saved",
		zap.String("employee_id", emp.ID),
		zap.Stringer("hire_date", emp.HireDate),
	)
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// LEAVE ENDPOINTS
// =============================================================================

// GetBalance returns the leave balance on as_of.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}

	balance, err := h.Leave.Balance(r.Context(), employeeID(r), asOf)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewBalanceDTO(balance))
}

// GetHistory returns every grant event up to as_of.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}

	events, err := h.Leave.History(r.Context(), employeeID(r), asOf)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewGrantEventDTOs(events))
}

// GetNextGrant returns the first entitlement change after as_of.
func (h *Handler) GetNextGrant(w http.ResponseWriter, r *http.Request) {
	asOf, ok := parseAsOf(w, r)
	if !ok {
		return
	}
	if asOf.IsZero() {
		asOf = h.Clock()
	}

	next, found, err := h.Leave.NextGrant(r.Context(), employeeID(r), asOf)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewNextGrantDTO(asOf, next, found))
}

// =============================================================================
// USAGE ENDPOINTS
// =============================================================================

// RecordUsage books leave taken against the employee's balance.
func (h *Handler) RecordUsage(w http.ResponseWriter, r *http.Request) {
	var req RecordUsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var at generic.TimePoint
	if req.Date != "" {
		var err error
		if at, err = generic.ParseDate(req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date", err)
			return
		}
	}

	tx, err := h.Leave.RecordUsage(r.Context(), leave.UsageRequest{
		EntityID:       employeeID(r),
		Days:           generic.Days(req.Days),
		At:             at,
		Reason:         req.Reason,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.Logger.Info("leave usage recorded",
		zap.String("employee_id", string(tx.EntityID)),
		zap.String("tx_id", string(tx.ID)),
		zap.Stringer("date", tx.EffectiveAt),
		zap.Float64("days", req.Days),
	)
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// ListUsage returns the employee's usage ledger.
func (h *Handler) ListUsage(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Leave.Usage(r.Context(), employeeID(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]TransactionDTO, 0, len(txs))
	for _, tx := range txs {
		dtos = append(dtos, toTransactionDTO(tx))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReverseUsage appends a reversal for a usage entry.
func (h *Handler) ReverseUsage(w http.ResponseWriter, r *http.Request) {
	var req ReverseUsageRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}
	if req.Reason == "" {
		req.Reason = "usage cancelled"
	}

	txID := generic.TransactionID(chi.URLParam(r, "txID"))
	rev, err := h.Leave.ReverseUsage(r.Context(), txID, req.Reason)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.Logger.Info("leave usage reversed",
		zap.String("tx_id", string(txID)),
		zap.String("reversal_id", string(rev.ID)),
	)
	writeJSON(w, http.StatusOK, toTransactionDTO(rev))
}

// =============================================================================
// STATELESS CALCULATION
// =============================================================================

// Calculate evaluates the leave policy for an arbitrary hire date.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	hire, err := generic.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hire_date", err)
		return
	}
	asOf := h.Clock()
	if req.AsOf != "" {
		if asOf, err = generic.ParseDate(req.AsOf); err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of", err)
			return
		}
	}
	if err := leave.ValidateRange(hire, asOf); err != nil {
		h.handleError(w, r, err)
		return
	}
	if req.Requested < 0 {
		h.handleError(w, r, fmt.Errorf("%w: requested must not be negative", generic.ErrInvalidAmount))
		return
	}

	used := generic.Days(req.Used)
	next, ok := leave.NextLeaveGrantDate(hire, asOf)
	resp := CalculateResponse{
		Balance: NewBalanceDTO(leave.ComputeLeaveBalance(hire, used, asOf)),
		CanUse:  leave.CanUseLeave(hire, used, generic.Days(req.Requested), asOf),
		History: NewGrantEventDTOs(leave.GenerateLeaveGrantHistory(hire, asOf)),
	}
	if ok {
		resp.NextGrantDate = strPtr(next.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// GRANT NOTICES
// =============================================================================

// ListNotices returns notices with grant dates in [from, to]. Both default
// to a window starting today and spanning one year.
func (h *Handler) ListNotices(w http.ResponseWriter, r *http.Request) {
	from := h.Clock()
	to := from.AddYears(1)

	if s := r.URL.Query().Get("from"); s != "" {
		var err error
		if from, err = generic.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from", err)
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		var err error
		if to, err = generic.ParseDate(s); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to", err)
			return
		}
	}

	if !(generic.Period{Start: from, End: to}).Valid() {
		writeError(w, http.StatusBadRequest, "from must not be after to", nil)
		return
	}

	notices, err := h.Store.ListGrantNotices(r.Context(), from, to)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	dtos := make([]GrantNoticeDTO, 0, len(notices))
	for _, n := range notices {
		dtos = append(dtos, toGrantNoticeDTO(n))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Health reports whether the database answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeID(r *http.Request) generic.EntityID {
	return generic.EntityID(chi.URLParam(r, "id"))
}

// parseAsOf reads ?as_of=. A missing value yields the zero TimePoint, which
// the service replaces with today.
func parseAsOf(w http.ResponseWriter, r *http.Request) (generic.TimePoint, bool) {
	s := r.URL.Query().Get("as_of")
	if s == "" {
		return generic.TimePoint{}, true
	}
	asOf, err := generic.ParseDate(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of", err)
		return generic.TimePoint{}, false
	}
	return asOf, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps domain errors onto status codes. Anything unclassified
// is logged and reported as a 500.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var short *generic.InsufficientLeaveError
	switch {
	case errors.As(err, &short):
		writeJSON(w, http.StatusConflict, InsufficientLeaveResponse{
			ErrorResponse: ErrorResponse{Error: generic.ErrInsufficientLeave.Error(), Details: err.Error()},
			Remaining:     short.Remaining.Float64(),
			Requested:     short.Requested.Float64(),
			Shortfall:     short.Shortfall.Float64(),
		})
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func strPtr(s string) *string {
	return &s
}
