/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the leave domain model from the external API contract:
  - Dates travel as YYYY-MM-DD strings
  - Day quantities travel as JSON numbers (15.5, 25.75)

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Leave:
    BalanceDTO, GrantEventDTO, NextGrantDTO

  Usage:
    RecordUsageRequest, TransactionDTO

  Calculation:
    CalculateRequest, CalculateResponse

  Scheduler:
    GrantNoticeDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	HireDate string `json:"hire_date"`
}

// CreateEmployeeRequest is the request body for creating an employee.
type CreateEmployeeRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	HireDate string `json:"hire_date"`
}

func toEmployeeDTO(emp sqlite.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       emp.ID,
		Name:     emp.Name,
		Email:    emp.Email,
		HireDate: emp.HireDate.String(),
	}
}

// =============================================================================
// LEAVE
// =============================================================================

// BalanceDTO is a LeaveBalance on the wire.
type BalanceDTO struct {
	TotalAnnualLeave     float64 `json:"total_annual_leave"`
	UsedAnnualLeave      float64 `json:"used_annual_leave"`
	RemainingAnnualLeave float64 `json:"remaining_annual_leave"`
	CalculationDate      string  `json:"calculation_date"`
	WorkYears            int     `json:"work_years"`
	WorkMonths           int     `json:"work_months"`
	Regime               string  `json:"regime"`
}

// NewBalanceDTO converts a computed balance for the wire.
func NewBalanceDTO(b leave.LeaveBalance) BalanceDTO {
	return BalanceDTO{
		TotalAnnualLeave:     b.TotalAnnualLeave.Float64(),
		UsedAnnualLeave:      b.UsedAnnualLeave.Float64(),
		RemainingAnnualLeave: b.RemainingAnnualLeave.Float64(),
		CalculationDate:      b.CalculationDate.String(),
		WorkYears:            b.WorkYears,
		WorkMonths:           b.WorkMonths,
		Regime:               string(b.Regime),
	}
}

// GrantEventDTO is one entry of the grant history.
type GrantEventDTO struct {
	Date         string  `json:"date"`
	GrantedLeave float64 `json:"granted_leave"`
	Reason       string  `json:"reason"`
	Regime       string  `json:"regime"`
}

// NewGrantEventDTOs converts a grant history, never returning nil.
func NewGrantEventDTOs(events []leave.GrantEvent) []GrantEventDTO {
	dtos := make([]GrantEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, GrantEventDTO{
			Date:         e.Date.String(),
			GrantedLeave: e.GrantedLeave.Float64(),
			Reason:       e.Reason,
			Regime:       string(e.Regime),
		})
	}
	return dtos
}

// NextGrantDTO reports the next entitlement change. NextGrantDate and
// DaysUntil are null when no further grant exists.
type NextGrantDTO struct {
	AsOf          string  `json:"as_of"`
	NextGrantDate *string `json:"next_grant_date"`
	DaysUntil     *int    `json:"days_until"`
}

// NewNextGrantDTO converts NextLeaveGrantDate's result.
func NewNextGrantDTO(asOf, next generic.TimePoint, ok bool) NextGrantDTO {
	dto := NextGrantDTO{AsOf: asOf.String()}
	if ok {
		dto.NextGrantDate = strPtr(next.String())
		daysUntil := generic.DaysBetween(asOf, next)
		dto.DaysUntil = &daysUntil
	}
	return dto
}

// =============================================================================
// USAGE
// =============================================================================

// RecordUsageRequest is the request body for recording leave taken.
type RecordUsageRequest struct {
	Days           float64 `json:"days"`
	Date           string  `json:"date"` // YYYY-MM-DD, defaults to today
	Reason         string  `json:"reason"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// ReverseUsageRequest is the optional body for reversing a usage entry.
type ReverseUsageRequest struct {
	Reason string `json:"reason"`
}

// TransactionDTO represents a usage ledger entry in API responses.
type TransactionDTO struct {
	ID             string  `json:"id"`
	EntityID       string  `json:"entity_id"`
	EffectiveAt    string  `json:"effective_at"`
	Delta          float64 `json:"delta"`
	Unit           string  `json:"unit"`
	Type           string  `json:"type"`
	ReferenceID    string  `json:"reference_id,omitempty"`
	Reason         string  `json:"reason"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

func toTransactionDTO(tx generic.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:             string(tx.ID),
		EntityID:       string(tx.EntityID),
		EffectiveAt:    tx.EffectiveAt.String(),
		Delta:          tx.Delta.Float64(),
		Unit:           string(tx.Delta.Unit),
		Type:           string(tx.Type),
		ReferenceID:    tx.ReferenceID,
		Reason:         tx.Reason,
		IdempotencyKey: tx.IdempotencyKey,
	}
}

// =============================================================================
// STATELESS CALCULATION
// =============================================================================

// CalculateRequest evaluates the policy without touching storage.
type CalculateRequest struct {
	HireDate  string  `json:"hire_date"`
	AsOf      string  `json:"as_of,omitempty"` // defaults to today
	Used      float64 `json:"used"`
	Requested float64 `json:"requested"`
}

// CalculateResponse bundles every derived value for one (hire, asOf) pair.
type CalculateResponse struct {
	Balance       BalanceDTO      `json:"balance"`
	CanUse        bool            `json:"can_use"`
	NextGrantDate *string         `json:"next_grant_date"`
	History       []GrantEventDTO `json:"history"`
}

// =============================================================================
// GRANT NOTICES
// =============================================================================

// GrantNoticeDTO is an upcoming grant detected by the scheduler.
type GrantNoticeDTO struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employee_id"`
	GrantDate   string    `json:"grant_date"`
	Entitlement float64   `json:"entitlement"`
	Regime      string    `json:"regime"`
	CreatedAt   time.Time `json:"created_at"`
}

func toGrantNoticeDTO(n sqlite.GrantNotice) GrantNoticeDTO {
	return GrantNoticeDTO{
		ID:          n.ID,
		EmployeeID:  n.EmployeeID,
		GrantDate:   n.GrantDate.String(),
		Entitlement: n.Entitlement.Float64(),
		Regime:      string(n.Regime),
		CreatedAt:   n.CreatedAt,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// InsufficientLeaveResponse adds the numbers behind a rejected booking.
type InsufficientLeaveResponse struct {
	ErrorResponse
	Remaining float64 `json:"remaining"`
	Requested float64 `json:"requested"`
	Shortfall float64 `json:"shortfall"`
}
