package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/clinic-ledger/app"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
	"github.com/warp/clinic-ledger/payroll"
	"github.com/warp/clinic-ledger/timeoff"
)

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================
//
//   POST /api/payroll/{year}/{month}/calculate   Compute slips
//   POST /api/payroll/{year}/{month}/close       Post and close
//   GET  /api/payroll/{year}/{month}/slips       Slips of the month

// CalculatePayroll computes slips for the month.
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	m, err := monthParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.App.Payroll.Calculate(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CalculationResultDTO{
		PeriodID: res.PeriodID,
		Month:    m.Key(),
		Slips:    res.Slips,
		Skipped:  res.Skipped,
		TotalNet: money(res.TotalNet),
		Warnings: res.Warnings,
	})
}

// ClosePayroll posts the month's payroll entry and closes the period.
func (h *Handler) ClosePayroll(w http.ResponseWriter, r *http.Request) {
	m, err := monthParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.App.Payroll.ClosePeriod(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	credited := make(map[string]string, len(res.CreditedDays))
	for id, days := range res.CreditedDays {
		credited[id] = days.String()
	}
	writeJSON(w, http.StatusCreated, PayrollCloseDTO{
		PeriodID:      res.PeriodID,
		Month:         m.Key(),
		EntryID:       res.EntryID,
		Reference:     res.Reference,
		TotalNet:      money(res.TotalNet),
		Lines:         res.Lines,
		UnmappedCodes: res.UnmappedCodes,
		CreditedDays:  credited,
	})
}

// ListSlips returns the month's slips.
func (h *Handler) ListSlips(w http.ResponseWriter, r *http.Request) {
	m, err := monthParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slips, err := h.App.Payroll.Slips(r.Context(), m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]SlipDTO, len(slips))
	for i, s := range slips {
		dtos[i] = toSlipDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MASTER DATA HANDLERS
// =============================================================================

// ListDepartments returns departments by name.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	depts, err := h.App.Payroll.Departments(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]DepartmentDTO, len(depts))
	for i, d := range depts {
		dtos[i] = DepartmentDTO{ID: d.ID, Name: d.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateDepartment adds a department.
func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.App.Payroll.SaveDepartment(r.Context(), payroll.Department{ID: req.ID, Name: req.Name})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, DepartmentDTO{ID: d.ID, Name: d.Name})
}

// ListEmployees returns employees. ?active=true hides inactive ones.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.App.Payroll.Employees(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveEmployee creates an employee, or updates one when id is given.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	emp := payroll.Employee{
		ID:              req.ID,
		Name:            req.Name,
		DepartmentID:    req.DepartmentID,
		BasicSalary:     req.BasicSalary,
		VariableSalary:  req.VariableSalary,
		InsuranceSalary: req.InsuranceSalary,
		Active:          req.Active == nil || *req.Active,
	}
	if req.HireDate != "" {
		d, err := generic.ParseDate(req.HireDate)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		emp.HireDate = &d
	}
	if req.ID != "" {
		existing, err := h.App.Payroll.Employee(r.Context(), req.ID)
		if err != nil && !generic.IsNotFound(err) {
			h.fail(w, r, err)
			return
		}
		emp.CreatedAt = existing.CreatedAt
	}

	saved, err := h.App.Payroll.SaveEmployee(r.Context(), emp)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(saved))
}

// GetEmployee returns one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.App.Payroll.Employee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// SaveAttendance records an employee's month of attendance.
func (h *Handler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	var req AttendanceRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	a := payroll.Attendance{
		EmployeeID:        chi.URLParam(r, "id"),
		Year:              req.Year,
		Month:             time.Month(req.Month),
		PresentDays:       req.PresentDays,
		OffDays:           req.OffDays,
		HolidayDays:       req.HolidayDays,
		AbsentDays:        req.AbsentDays,
		UnpaidDays:        req.UnpaidDays,
		WorkedOffDays:     req.WorkedOffDays,
		WorkedHolidayDays: req.WorkedHolidayDays,
		Action:            payroll.AttendanceAction(req.Action),
	}
	if err := h.App.Payroll.SaveAttendance(r.Context(), a); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"employee_id":  a.EmployeeID,
		"month":        generic.Month{Year: a.Year, Month: a.Month}.Key(),
		"payable_days": a.PayableDays(),
	})
}

// ListPayrollCodes returns payroll codes.
func (h *Handler) ListPayrollCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.App.Payroll.Codes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]PayrollCodeDTO, len(codes))
	for i, c := range codes {
		dtos[i] = PayrollCodeDTO{Code: c.Code, Name: c.Name, Kind: string(c.Kind), GLAccountID: c.GLAccountID}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SavePayrollCode creates or updates a payroll code and its GL mapping.
func (h *Handler) SavePayrollCode(w http.ResponseWriter, r *http.Request) {
	var req PayrollCodeDTO
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.GLAccountID != "" {
		if _, err := h.App.Chart.Get(r.Context(), req.GLAccountID); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	c := payroll.Code{Code: req.Code, Name: req.Name, Kind: payroll.Kind(req.Kind), GLAccountID: req.GLAccountID}
	if err := h.App.Payroll.SaveCode(r.Context(), c); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// TIME-OFF HANDLERS
// =============================================================================

// GetTimeOff returns the employee's banked days and history.
func (h *Handler) GetTimeOff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := h.App.TimeOff.Balance(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	txs, err := h.App.TimeOff.History(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimeOffDTO(summary, txs))
}

// RecordTimeOff consumes or adjusts banked days.
func (h *Handler) RecordTimeOff(w http.ResponseWriter, r *http.Request) {
	var req TimeOffRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	at := generic.TruncateDay(h.now())
	if req.Date != "" {
		d, err := generic.ParseDate(req.Date)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		at = d
	}

	id := chi.URLParam(r, "id")
	if _, err := h.App.Payroll.Employee(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	var tx timeoff.Transaction
	var err error
	switch timeoff.TxKind(req.Kind) {
	case timeoff.TxConsumption:
		tx, err = h.App.TimeOff.Consume(r.Context(), id, req.Days, at, req.Reason)
	default:
		tx, err = h.App.TimeOff.Adjust(r.Context(), id, req.Days, at, req.Reason)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, TimeOffTransactionDTO{
		ID:          tx.ID,
		EffectiveAt: generic.FormatDate(tx.EffectiveAt),
		Delta:       tx.Delta.String(),
		Kind:        string(tx.Kind),
		Reason:      tx.Reason,
		CreatedAt:   tx.CreatedAt,
	})
}

// =============================================================================
// SETTLEMENT HANDLERS
// =============================================================================

// SettleInvoice posts a paid patient invoice.
func (h *Handler) SettleInvoice(w http.ResponseWriter, r *http.Request) {
	var req SettleInvoiceRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in := ledger.InvoiceSettlement{Number: req.Number, Date: date, Items: make([]ledger.InvoiceItem, len(req.Items))}
	for i, it := range req.Items {
		in.Items[i] = ledger.InvoiceItem{AccountID: it.AccountID, Department: it.Department, Amount: it.Amount, Memo: it.Memo}
	}
	entry, err := h.App.Settlements.SettleInvoice(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// RecordExpense posts a supplier expense.
func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in := ledger.ExpenseInput{
		Vendor:      req.Vendor,
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		AccountID:   req.AccountID,
		Department:  req.Department,
		PaidNow:     req.PaidNow,
	}
	if req.DueDate != "" {
		due, err := generic.ParseDate(req.DueDate)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		in.DueDate = &due
	}
	rec, err := h.App.Settlements.RecordExpense(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseDTO(rec))
}

// PayExpense settles an unpaid expense from cash.
func (h *Handler) PayExpense(w http.ResponseWriter, r *http.Request) {
	var req PayExpenseRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rec, err := h.App.Settlements.PayExpense(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseDTO(rec))
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the demo data sets.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.Scenarios)
}

// LoadScenario replaces activity with a demo data set.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	m := generic.MonthContaining(h.now())
	if req.Year != 0 && req.Month != 0 {
		var err error
		if m, err = generic.MonthOf(req.Year, time.Month(req.Month)); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	res, err := h.App.LoadScenario(r.Context(), req.ScenarioID, m)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scenario_id": res.ScenarioID,
		"month":       m.Key(),
		"employees":   res.Employees,
		"entries":     res.Entries,
		"closed":      res.Closed,
	})
}
