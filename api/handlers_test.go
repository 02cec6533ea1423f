package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	store  *sqlite.Store
	router *chi.Mux
}

func date(y int, m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(y, m, d)
}

// newTestServer returns a router over an in-memory store whose clock is
// pinned to today. emp-1 was hired 2019-05-01.
func newTestServer(t *testing.T, today generic.TimePoint) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveEmployee(context.Background(), sqlite.Employee{
		ID: "emp-1", Name: "Ana", Email: "ana@example.com", HireDate: date(2019, 5, 1),
	}))

	h := api.NewHandler(store, leave.FixedClock(today), zap.NewNop())
	return &testServer{
		store:  store,
		router: api.NewRouter(h, api.RouterOptions{AllowedOrigins: []string{"*"}}),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateGetList(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{
		ID: "emp-2", Name: "Bea", HireDate: "2020-11-20",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/employees/emp-2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	emp := decode[api.EmployeeDTO](t, rec)
	assert.Equal(t, "Bea", emp.Name)
	assert.Equal(t, "2020-11-20", emp.HireDate)

	rec = s.do(t, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.EmployeeDTO](t, rec), 2)
}

func TestEmployees_GeneratesID(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{Name: "Cy", HireDate: "2021-01-04"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, decode[api.EmployeeDTO](t, rec).ID)
}

func TestEmployees_Validation(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{Name: "Bea", HireDate: "20-11-2020"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees", api.CreateEmployeeRequest{HireDate: "2020-11-20"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/employees/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmployees_Delete(t *testing.T) {
	// GIVEN: emp-1 with one booking
	// WHEN: Deleting emp-1
	// THEN: The employee is gone, their ledger entries are not

	s := newTestServer(t, date(2022, 3, 1))
	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", api.RecordUsageRequest{Days: 2, Date: "2022-02-14"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodDelete, "/api/employees/emp-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	txs, err := s.store.Load(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	rec = s.do(t, http.MethodDelete, "/api/employees/emp-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// LEAVE READS
// =============================================================================

func TestGetBalance(t *testing.T) {
	// GIVEN: emp-1 hired 2019-05-01, no usage
	// WHEN: Asking for the balance on 2022-03-01
	// THEN: 16 days, steady state, 2 years 10 months of service

	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1/leave/balance?as_of=2022-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	b := decode[api.BalanceDTO](t, rec)
	assert.Equal(t, 16.0, b.TotalAnnualLeave)
	assert.Equal(t, 16.0, b.RemainingAnnualLeave)
	assert.Equal(t, 2, b.WorkYears)
	assert.Equal(t, 10, b.WorkMonths)
	assert.Equal(t, string(leave.KindSteadyState), b.Regime)
}

func TestGetBalance_DefaultsToToday(t *testing.T) {
	s := newTestServer(t, date(2020, 6, 1))

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1/leave/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	b := decode[api.BalanceDTO](t, rec)
	assert.Equal(t, "2020-06-01", b.CalculationDate)
	assert.Equal(t, 22.0, b.TotalAnnualLeave)
}

func TestGetBalance_Errors(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"as_of before hire", "/api/employees/emp-1/leave/balance?as_of=2019-04-30", http.StatusBadRequest},
		{"malformed as_of", "/api/employees/emp-1/leave/balance?as_of=yesterday", http.StatusBadRequest},
		{"unknown employee", "/api/employees/nobody/leave/balance", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[api.ErrorResponse](t, rec).Error)
		})
	}
}

func TestGetHistory(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1/leave/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	events := decode[[]api.GrantEventDTO](t, rec)
	require.Len(t, events, 3)
	assert.Equal(t, api.GrantEventDTO{
		Date: "2020-05-01", GrantedLeave: 22, Reason: "first anniversary grant", Regime: "anniversary_year",
	}, events[0])
	assert.Equal(t, "2022-01-01", events[2].Date)
	assert.Equal(t, 16.0, events[2].GrantedLeave)
}

func TestGetNextGrant(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodGet, "/api/employees/emp-1/leave/next-grant", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	next := decode[api.NextGrantDTO](t, rec)
	assert.Equal(t, "2022-03-01", next.AsOf)
	require.NotNil(t, next.NextGrantDate)
	assert.Equal(t, "2022-05-01", *next.NextGrantDate)
	require.NotNil(t, next.DaysUntil)
	assert.Equal(t, 61, *next.DaysUntil)
}

// =============================================================================
// USAGE
// =============================================================================

func TestUsage_RecordRejectReverse(t *testing.T) {
	// GIVEN: 16 days for 2022
	// WHEN: 10 days are booked, then 7 more
	// THEN: The second booking is a 409 with a 1 day shortfall,
	//       and reversing the first frees the days again

	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", api.RecordUsageRequest{
		Days: 10, Date: "2022-12-20", Reason: "winter break",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booked := decode[api.TransactionDTO](t, rec)
	assert.Equal(t, -10.0, booked.Delta)
	assert.Equal(t, "consumption", booked.Type)

	rec = s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", api.RecordUsageRequest{
		Days: 7, Date: "2022-03-07",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	short := decode[api.InsufficientLeaveResponse](t, rec)
	assert.Equal(t, 6.0, short.Remaining)
	assert.Equal(t, 1.0, short.Shortfall)

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/leave/balance?as_of=2022-12-31", nil)
	assert.Equal(t, 6.0, decode[api.BalanceDTO](t, rec).RemainingAnnualLeave)

	rec = s.do(t, http.MethodDelete, "/api/leave/usage/"+booked.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rev := decode[api.TransactionDTO](t, rec)
	assert.Equal(t, "reversal", rev.Type)
	assert.Equal(t, booked.ID, rev.ReferenceID)
	assert.Equal(t, "usage cancelled", rev.Reason)

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/leave/balance?as_of=2022-12-31", nil)
	assert.Equal(t, 16.0, decode[api.BalanceDTO](t, rec).RemainingAnnualLeave)

	rec = s.do(t, http.MethodDelete, "/api/leave/usage/"+booked.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/leave/usage/"+rev.ID, api.ReverseUsageRequest{Reason: "undo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/leave/usage/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/employees/emp-1/leave/usage", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]api.TransactionDTO](t, rec), 2)
}

func TestUsage_DuplicateIdempotencyKey(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))
	body := api.RecordUsageRequest{Days: 1, Date: "2022-03-02", IdempotencyKey: "req-1"}

	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUsage_Validation(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", api.RecordUsageRequest{Days: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", api.RecordUsageRequest{Days: 1, Date: "03/02/2022"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees/emp-1/leave/usage", api.RecordUsageRequest{Days: 1, Date: "2019-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/employees/nobody/leave/usage", api.RecordUsageRequest{Days: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// STATELESS CALCULATION
// =============================================================================

func TestCalculate(t *testing.T) {
	// GIVEN: Hired 2019-05-01, evaluated on 2020-06-01 with 5 days used
	// THEN: 22 days prorated first-anniversary grant, 17 remaining

	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/leave/calculate", api.CalculateRequest{
		HireDate: "2019-05-01", AsOf: "2020-06-01", Used: 5, Requested: 17,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[api.CalculateResponse](t, rec)
	assert.Equal(t, 22.0, resp.Balance.TotalAnnualLeave)
	assert.Equal(t, 17.0, resp.Balance.RemainingAnnualLeave)
	assert.True(t, resp.CanUse)
	require.NotNil(t, resp.NextGrantDate)
	assert.Equal(t, "2021-01-01", *resp.NextGrantDate)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "2020-05-01", resp.History[0].Date)
}

func TestCalculate_Errors(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))

	rec := s.do(t, http.MethodPost, "/api/leave/calculate", api.CalculateRequest{HireDate: "2019-05-01", AsOf: "2019-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/leave/calculate", api.CalculateRequest{HireDate: "May 2019"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/leave/calculate", api.CalculateRequest{HireDate: "2019-05-01", Requested: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// NOTICES & HEALTH
// =============================================================================

func TestListNotices(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 10))
	_, err := s.store.SaveGrantNotice(context.Background(), sqlite.GrantNotice{
		ID: "n-1", EmployeeID: "emp-1", GrantDate: date(2022, 5, 1),
		Entitlement: generic.Days(16), Regime: leave.KindSteadyState,
	})
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/notices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	notices := decode[[]api.GrantNoticeDTO](t, rec)
	require.Len(t, notices, 1)
	assert.Equal(t, "2022-05-01", notices[0].GrantDate)
	assert.Equal(t, 16.0, notices[0].Entitlement)

	rec = s.do(t, http.MethodGet, "/api/notices?from=2022-06-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]api.GrantNoticeDTO](t, rec))

	rec = s.do(t, http.MethodGet, "/api/notices?to=soon", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/notices?from=2022-06-01&to=2022-05-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, date(2022, 3, 1))
	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
