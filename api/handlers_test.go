/*
handlers_test.go - HTTP tests for the API

Tests for:
- Journal posting and balance validation over HTTP
- Error mapping (400, 404, 409) and error body shape
- Month-end closing via /api/closing
- Payroll calculate / close and time-off credit via scenarios
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/app"
	"github.com/warp/clinic-ledger/config"
	"github.com/warp/clinic-ledger/store/sqlstore"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:               "test",
		DBDriver:             sqlstore.DriverSQLite,
		DBDSN:                ":memory:",
		SeedDefaults:         true,
		CashAccountCode:      "101",
		RetainedEarningsCode: "310",
		PayablesAccountCode:  "201",
		PayrollSuspenseCode:  "290",
		InsuranceMin:         decimal.NewFromInt(2000),
		InsuranceMax:         decimal.NewFromInt(12600),
	}
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	store, err := sqlstore.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := testConfig()
	a, err := app.Build(context.Background(), cfg, store, zerolog.Nop())
	require.NoError(t, err)
	return NewRouter(NewHandler(a, zerolog.Nop()), cfg)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func entryBody(date, debitCode, creditCode, amount string) map[string]any {
	return map[string]any{
		"date":        date,
		"description": "test entry",
		"lines": []map[string]any{
			{"account_code": debitCode, "debit": amount},
			{"account_code": creditCode, "credit": amount},
		},
	}
}

// =============================================================================
// JOURNAL
// =============================================================================

func TestPostEntry_BalancedEntryIsPosted(t *testing.T) {
	// GIVEN: A seeded ledger
	router := newTestRouter(t)

	// WHEN: Posting a balanced cash sale
	rec := do(t, router, http.MethodPost, "/api/journal", entryBody("2025-03-05", "101", "401", "250.50"))

	// THEN: The entry is created and the trial balance shows it
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	entry := decodeBody[EntryDTO](t, rec)
	assert.Equal(t, "250.50", entry.TotalDebit)
	assert.Equal(t, "250.50", entry.TotalCredit)
	assert.Len(t, entry.Lines, 2)
	assert.NotEmpty(t, entry.Reference)

	rec = do(t, router, http.MethodGet, "/api/reports/trial-balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tb := decodeBody[TrialBalanceDTO](t, rec)
	assert.True(t, tb.Balanced)
	assert.Equal(t, "250.50", tb.TotalDebit)
}

func TestPostEntry_ReferenceFieldNotAccepted(t *testing.T) {
	// GIVEN: March activity and a body that tries to take the closing reference
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/journal", entryBody("2025-03-05", "101", "401", "100"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := entryBody("2025-03-06", "101", "401", "1")
	body["reference"] = "CLS-2025-03"

	// WHEN: Posting it
	rec = do(t, router, http.MethodPost, "/api/journal", body)

	// THEN: The request is refused and March closes normally
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = do(t, router, http.MethodPost, "/api/closing/2025/3", nil)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestPostEntry_UnbalancedIsRejectedWithDetails(t *testing.T) {
	// GIVEN: A seeded ledger
	router := newTestRouter(t)

	// WHEN: Posting debits that exceed credits
	body := map[string]any{
		"date":        "2025-03-05",
		"description": "bad entry",
		"lines": []map[string]any{
			{"account_code": "101", "debit": "100"},
			{"account_code": "401", "credit": "90"},
		},
	}
	rec := do(t, router, http.MethodPost, "/api/journal", body)

	// THEN: 400 with the difference, and nothing is posted
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Code)
	details, ok := resp.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "10.00", details["difference"])

	rec = do(t, router, http.MethodGet, "/api/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]EntryDTO](t, rec))
}

func TestPostEntry_RequestValidation(t *testing.T) {
	router := newTestRouter(t)

	t.Run("single line", func(t *testing.T) {
		body := entryBody("2025-03-05", "101", "401", "10")
		body["lines"] = body["lines"].([]map[string]any)[:1]
		rec := do(t, router, http.MethodPost, "/api/journal", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/journal", entryBody("05/03/2025", "101", "401", "10"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeBody[ErrorResponse](t, rec)
		assert.Contains(t, resp.Details, "date")
	})

	t.Run("unknown field", func(t *testing.T) {
		body := entryBody("2025-03-05", "101", "401", "10")
		body["approved_by"] = "nobody"
		rec := do(t, router, http.MethodPost, "/api/journal", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("payroll source reserved", func(t *testing.T) {
		body := entryBody("2025-03-05", "101", "401", "10")
		body["source"] = "payroll"
		rec := do(t, router, http.MethodPost, "/api/journal", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetEntry_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/journal/does-not-exist", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, rec).Code)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func TestCreateAccount_DuplicateCodeConflicts(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/accounts", map[string]any{
		"code": "404", "name": "Pharmacy Revenue", "type": "revenue", "parent_code": "400",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/accounts", map[string]any{
		"code": "404", "name": "Again", "type": "revenue",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteAccount_InUseConflicts(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/journal", entryBody("2025-03-05", "101", "401", "10"))
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decodeBody[EntryDTO](t, rec)

	rec = do(t, router, http.MethodDelete, "/api/accounts/"+entry.Lines[0].AccountID, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// =============================================================================
// CLOSING
// =============================================================================

func TestCloseMonth_ThenRecloseAndPostingRejected(t *testing.T) {
	// GIVEN: Revenue and an expense in March
	router := newTestRouter(t)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/journal", entryBody("2025-03-05", "101", "401", "1000")).Code)
	require.Equal(t, http.StatusCreated, do(t, router, http.MethodPost, "/api/journal", entryBody("2025-03-10", "510", "101", "300")).Code)

	// WHEN: Previewing and closing March
	rec := do(t, router, http.MethodGet, "/api/closing/2025/3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decodeBody[ClosingPreviewDTO](t, rec)
	assert.Equal(t, "700.00", preview.NetProfit)

	rec = do(t, router, http.MethodPost, "/api/closing/2025/3", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "700.00", decodeBody[ClosingResultDTO](t, rec).NetProfit)

	// THEN: A second close and a new posting into March conflict
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/closing/2025/3", nil).Code)
	assert.Equal(t, http.StatusConflict,
		do(t, router, http.MethodPost, "/api/journal", entryBody("2025-03-20", "101", "401", "5")).Code)

	// AND: The balance sheet still balances after closing
	rec = do(t, router, http.MethodGet, "/api/reports/balance-sheet", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[BalanceSheetDTO](t, rec).Balanced)
}

func TestCloseMonth_InvalidMonth(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/closing/2025/13", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestPayroll_ScenarioCloseCreditsTimeOff(t *testing.T) {
	// GIVEN: The clinic-month scenario in March 2025
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", map[string]any{
		"scenario_id": "clinic-month", "year": 2025, "month": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/payroll/2025/3/slips", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	slips := decodeBody[[]SlipDTO](t, rec)
	require.Len(t, slips, 3)

	// WHEN: Closing payroll
	rec = do(t, router, http.MethodPost, "/api/payroll/2025/3/close", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	closed := decodeBody[PayrollCloseDTO](t, rec)

	// THEN: The employee paid in time off is credited their rest days
	assert.NotEmpty(t, closed.EntryID)
	require.Len(t, closed.CreditedDays, 1)
	for id, days := range closed.CreditedDays {
		assert.Equal(t, "2", days)
		rec = do(t, router, http.MethodGet, "/api/employees/"+id+"/time-off", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		to := decodeBody[TimeOffDTO](t, rec)
		assert.Equal(t, "2", to.Balance)
		assert.True(t, to.InSync)
	}

	// AND: Recalculating or re-closing the month is rejected
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/payroll/2025/3/calculate", nil).Code)
	assert.Equal(t, http.StatusConflict, do(t, router, http.MethodPost, "/api/payroll/2025/3/close", nil).Code)
}

func TestTimeOff_ConsumeMoreThanBalanceRejected(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/employees", map[string]any{
		"name": "Sara Nabil", "basic_salary": "5000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	emp := decodeBody[EmployeeDTO](t, rec)

	rec = do(t, router, http.MethodPost, "/api/employees/"+emp.ID+"/time-off", map[string]any{
		"kind": "consumption", "days": "1", "date": "2025-03-10",
	})

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestEmployee_NotFound(t *testing.T) {
	router := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/employees/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, router, http.MethodGet, "/api/employees/missing/time-off", nil).Code)
}

// =============================================================================
// SETTLEMENTS
// =============================================================================

func TestExpense_RecordAgeAndPay(t *testing.T) {
	// GIVEN: An unpaid supplier expense due 2025-03-01
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var supplies string
	for _, a := range decodeBody[[]AccountDTO](t, rec) {
		if a.Code == "520" {
			supplies = a.ID
		}
	}
	require.NotEmpty(t, supplies)

	rec = do(t, router, http.MethodPost, "/api/expenses", map[string]any{
		"vendor": "MedSupply Co", "amount": "800", "date": "2025-02-01",
		"due_date": "2025-03-01", "account_id": supplies,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	exp := decodeBody[ExpenseDTO](t, rec)

	// WHEN: Aging 45 days after the due date
	rec = do(t, router, http.MethodGet, "/api/reports/supplier-aging?as_of=2025-04-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	aging := decodeBody[SupplierAgingDTO](t, rec)

	// THEN: It sits in the 31-60 bucket
	require.Len(t, aging.Vendors, 1)
	assert.Equal(t, "800.00", aging.Vendors[0].Days31To60)

	// AND: Paying twice conflicts
	rec = do(t, router, http.MethodPost, "/api/expenses/"+exp.ID+"/pay", map[string]any{"date": "2025-04-15"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decodeBody[ExpenseDTO](t, rec).Paid)
	assert.Equal(t, http.StatusConflict,
		do(t, router, http.MethodPost, "/api/expenses/"+exp.ID+"/pay", map[string]any{"date": "2025-04-16"}).Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
