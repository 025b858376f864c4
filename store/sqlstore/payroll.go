package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/payroll"
)

// =============================================================================
// DEPARTMENTS
// =============================================================================

func (s *Store) SaveDepartment(ctx context.Context, d payroll.Department) error {
	_, err := s.exec(ctx, `
		INSERT INTO departments (id, name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name
	`, d.ID, d.Name)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", payroll.ErrDepartmentExists, d.Name)
	}
	if err != nil {
		return fmt.Errorf("save department: %w", err)
	}
	return nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]payroll.Department, error) {
	rows, err := s.query(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []payroll.Department
	for rows.Next() {
		var d payroll.Department
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, department_id, basic_salary, variable_salary, insurance_salary,
	time_off_balance, active, hire_date, created_at`

// SaveEmployee inserts or updates an employee. The time-off balance is
// owned by the time-off ledger and is left alone on update.
func (s *Store) SaveEmployee(ctx context.Context, e payroll.Employee) error {
	_, err := s.exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, '0', ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			department_id = excluded.department_id,
			basic_salary = excluded.basic_salary,
			variable_salary = excluded.variable_salary,
			insurance_salary = excluded.insurance_salary,
			active = excluded.active,
			hire_date = excluded.hire_date
	`, e.ID, e.Name, e.DepartmentID, e.BasicSalary.String(), e.VariableSalary.String(),
		e.InsuranceSalary.String(), e.Active, nullDate(e.HireDate), formatTimestamp(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("save employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id string) (payroll.Employee, error) {
	e, err := scanEmployee(s.queryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Employee{}, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, id)
	}
	return e, err
}

func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]payroll.Employee, error) {
	q := `SELECT ` + employeeColumns + ` FROM employees`
	var args []any
	if activeOnly {
		q += ` WHERE active = ?`
		args = append(args, true)
	}
	q += ` ORDER BY name, id`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []payroll.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var e payroll.Employee
	var basic, variable, insurance, balance, createdAt string
	var hireDate sql.NullString
	if err := row.Scan(&e.ID, &e.Name, &e.DepartmentID, &basic, &variable, &insurance,
		&balance, &e.Active, &hireDate, &createdAt); err != nil {
		return payroll.Employee{}, err
	}
	e.BasicSalary = generic.MustParseDecimal(basic)
	e.VariableSalary = generic.MustParseDecimal(variable)
	e.InsuranceSalary = generic.MustParseDecimal(insurance)
	e.TimeOffBalance = generic.MustParseDecimal(balance)
	e.HireDate = parseNullDate(hireDate)
	e.CreatedAt = parseTimestamp(createdAt)
	return e, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (s *Store) SaveAttendance(ctx context.Context, a payroll.Attendance) error {
	_, err := s.exec(ctx, `
		INSERT INTO employee_attendance (
			employee_id, year, month, present_days, off_days, holiday_days, absent_days,
			unpaid_days, worked_off_days, worked_holiday_days, action
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_id, year, month) DO UPDATE SET
			present_days = excluded.present_days,
			off_days = excluded.off_days,
			holiday_days = excluded.holiday_days,
			absent_days = excluded.absent_days,
			unpaid_days = excluded.unpaid_days,
			worked_off_days = excluded.worked_off_days,
			worked_holiday_days = excluded.worked_holiday_days,
			action = excluded.action
	`, a.EmployeeID, a.Year, int(a.Month), a.PresentDays, a.OffDays, a.HolidayDays, a.AbsentDays,
		a.UnpaidDays, a.WorkedOffDays, a.WorkedHolidayDays, string(a.Action))
	if err != nil {
		return fmt.Errorf("save attendance: %w", err)
	}
	return nil
}

func (s *Store) ListAttendance(ctx context.Context, m generic.Month) ([]payroll.Attendance, error) {
	rows, err := s.query(ctx, `
		SELECT employee_id, year, month, present_days, off_days, holiday_days, absent_days,
		       unpaid_days, worked_off_days, worked_holiday_days, action
		FROM employee_attendance
		WHERE year = ? AND month = ?
		ORDER BY employee_id
	`, m.Year, int(m.Month))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var out []payroll.Attendance
	for rows.Next() {
		var a payroll.Attendance
		var month int
		var action string
		if err := rows.Scan(&a.EmployeeID, &a.Year, &month, &a.PresentDays, &a.OffDays, &a.HolidayDays,
			&a.AbsentDays, &a.UnpaidDays, &a.WorkedOffDays, &a.WorkedHolidayDays, &action); err != nil {
			return nil, err
		}
		a.Month = time.Month(month)
		a.Action = payroll.AttendanceAction(action)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL CODES
// =============================================================================

func (s *Store) SaveCode(ctx context.Context, c payroll.Code) error {
	_, err := s.exec(ctx, `
		INSERT INTO payroll_codes (code, name, kind, gl_account_id) VALUES (?, ?, ?, ?)
		ON CONFLICT (code) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			gl_account_id = excluded.gl_account_id
	`, c.Code, c.Name, string(c.Kind), nullString(c.GLAccountID))
	if err != nil {
		return fmt.Errorf("save payroll code %s: %w", c.Code, err)
	}
	return nil
}

func (s *Store) ListCodes(ctx context.Context) ([]payroll.Code, error) {
	rows, err := s.query(ctx, `SELECT code, name, kind, gl_account_id FROM payroll_codes ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list payroll codes: %w", err)
	}
	defer rows.Close()

	var out []payroll.Code
	for rows.Next() {
		var c payroll.Code
		var kind string
		var gl sql.NullString
		if err := rows.Scan(&c.Code, &c.Name, &kind, &gl); err != nil {
			return nil, err
		}
		c.Kind = payroll.Kind(kind)
		c.GLAccountID = gl.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// PAYROLL PERIODS
// =============================================================================

const periodColumns = `id, year, month, status, journal_entry_id, version, closed_at, created_at`

func (s *Store) GetPayrollPeriod(ctx context.Context, m generic.Month) (payroll.Period, error) {
	row := s.queryRow(ctx, `SELECT `+periodColumns+` FROM payroll_periods WHERE year = ? AND month = ?`,
		m.Year, int(m.Month))
	var p payroll.Period
	var month int
	var status, createdAt string
	var entryID, closedAt sql.NullString
	err := row.Scan(&p.ID, &p.Year, &month, &status, &entryID, &p.Version, &closedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Period{}, fmt.Errorf("%w: %s", payroll.ErrPeriodNotFound, m.Key())
	}
	if err != nil {
		return payroll.Period{}, err
	}
	p.Month = time.Month(month)
	p.Status = payroll.PeriodStatus(status)
	p.JournalEntryID = entryID.String
	p.ClosedAt = parseNullTimestamp(closedAt)
	p.CreatedAt = parseTimestamp(createdAt)
	return p, nil
}

func (s *Store) CreatePayrollPeriod(ctx context.Context, p payroll.Period) error {
	_, err := s.exec(ctx, `
		INSERT INTO payroll_periods (id, year, month, status, version, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
	`, p.ID, p.Year, int(p.Month), string(p.Status), formatTimestamp(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("create payroll period: %w", err)
	}
	return nil
}

// ClosePayrollPeriod is a conditional update: only an open period flips.
func (s *Store) ClosePayrollPeriod(ctx context.Context, periodID, entryID string, at time.Time) (bool, error) {
	res, err := s.exec(ctx, `
		UPDATE payroll_periods
		SET status = 'closed', journal_entry_id = ?, closed_at = ?, version = version + 1
		WHERE id = ? AND status = 'open'
	`, entryID, formatTimestamp(at), periodID)
	if err != nil {
		return false, fmt.Errorf("close payroll period: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// =============================================================================
// SALARY SLIPS
// =============================================================================

const slipColumns = `id, period_id, employee_id, employee_name, department, basic_salary, payable_days,
	computed_basic, earnings_json, deductions_json, total_earnings, total_deductions, net_salary,
	company_insurance, action, rest_days_worked, warnings_json, created_at, updated_at`

// UpsertSlip stores the slip, replacing an earlier one for the same
// (period, employee). The original ID and creation time are kept.
func (s *Store) UpsertSlip(ctx context.Context, sl payroll.Slip) error {
	earnings, err := json.Marshal(sl.Earnings)
	if err != nil {
		return fmt.Errorf("encode earnings: %w", err)
	}
	deductions, err := json.Marshal(sl.Deductions)
	if err != nil {
		return fmt.Errorf("encode deductions: %w", err)
	}
	var warnings sql.NullString
	if len(sl.Warnings) > 0 {
		b, err := json.Marshal(sl.Warnings)
		if err != nil {
			return fmt.Errorf("encode warnings: %w", err)
		}
		warnings = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.exec(ctx, `
		INSERT INTO salary_slips (`+slipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (period_id, employee_id) DO UPDATE SET
			employee_name = excluded.employee_name,
			department = excluded.department,
			basic_salary = excluded.basic_salary,
			payable_days = excluded.payable_days,
			computed_basic = excluded.computed_basic,
			earnings_json = excluded.earnings_json,
			deductions_json = excluded.deductions_json,
			total_earnings = excluded.total_earnings,
			total_deductions = excluded.total_deductions,
			net_salary = excluded.net_salary,
			company_insurance = excluded.company_insurance,
			action = excluded.action,
			rest_days_worked = excluded.rest_days_worked,
			warnings_json = excluded.warnings_json,
			updated_at = excluded.updated_at
	`, sl.ID, sl.PeriodID, sl.EmployeeID, sl.EmployeeName, sl.Department, sl.BasicSalary.String(),
		sl.PayableDays, sl.ComputedBasic.String(), string(earnings), string(deductions),
		sl.TotalEarnings.String(), sl.TotalDeductions.String(), sl.NetSalary.String(),
		sl.CompanyInsurance.String(), string(sl.Action), sl.RestDaysWorked, warnings,
		formatTimestamp(sl.CreatedAt), formatTimestamp(sl.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert slip: %w", err)
	}
	return nil
}

func (s *Store) DeleteSlipsExcept(ctx context.Context, periodID string, keep []string) error {
	query := `DELETE FROM salary_slips WHERE period_id = ?`
	args := []any{periodID}
	if len(keep) > 0 {
		query += ` AND employee_id NOT IN (` + placeholders(len(keep)) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}
	if _, err := s.exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete stale slips: %w", err)
	}
	return nil
}

func (s *Store) ListSlips(ctx context.Context, periodID string) ([]payroll.Slip, error) {
	rows, err := s.query(ctx, `
		SELECT `+slipColumns+`
		FROM salary_slips
		WHERE period_id = ?
		ORDER BY employee_name, employee_id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("list slips: %w", err)
	}
	defer rows.Close()

	var out []payroll.Slip
	for rows.Next() {
		sl, err := scanSlip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

func scanSlip(row scanner) (payroll.Slip, error) {
	var sl payroll.Slip
	var basic, computed, earnings, deductions, totalEarn, totalDed, net, company string
	var action, createdAt, updatedAt string
	var warnings sql.NullString
	if err := row.Scan(&sl.ID, &sl.PeriodID, &sl.EmployeeID, &sl.EmployeeName, &sl.Department, &basic,
		&sl.PayableDays, &computed, &earnings, &deductions, &totalEarn, &totalDed, &net,
		&company, &action, &sl.RestDaysWorked, &warnings, &createdAt, &updatedAt); err != nil {
		return payroll.Slip{}, err
	}
	if err := json.Unmarshal([]byte(earnings), &sl.Earnings); err != nil {
		return payroll.Slip{}, fmt.Errorf("slip %s earnings: %w", sl.ID, err)
	}
	if err := json.Unmarshal([]byte(deductions), &sl.Deductions); err != nil {
		return payroll.Slip{}, fmt.Errorf("slip %s deductions: %w", sl.ID, err)
	}
	if warnings.Valid && warnings.String != "" {
		if err := json.Unmarshal([]byte(warnings.String), &sl.Warnings); err != nil {
			return payroll.Slip{}, fmt.Errorf("slip %s warnings: %w", sl.ID, err)
		}
	}
	sl.BasicSalary = generic.MustParseDecimal(basic)
	sl.ComputedBasic = generic.MustParseDecimal(computed)
	sl.TotalEarnings = generic.MustParseDecimal(totalEarn)
	sl.TotalDeductions = generic.MustParseDecimal(totalDed)
	sl.NetSalary = generic.MustParseDecimal(net)
	sl.CompanyInsurance = generic.MustParseDecimal(company)
	sl.Action = payroll.AttendanceAction(action)
	sl.CreatedAt = parseTimestamp(createdAt)
	sl.UpdatedAt = parseTimestamp(updatedAt)
	return sl, nil
}

// =============================================================================
// TIME-OFF BALANCE
// =============================================================================

// TimeOffBalance reads the employee's stored balance.
func (s *Store) TimeOffBalance(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	var balance string
	err := s.queryRow(ctx, `SELECT time_off_balance FROM employees WHERE id = ?`, employeeID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s", payroll.ErrEmployeeNotFound, employeeID)
	}
	if err != nil {
		return decimal.Zero, err
	}
	return generic.MustParseDecimal(balance), nil
}

// AddTimeOffBalance adds delta to the stored balance. Decimal text cannot
// be summed in SQL, so it reads then writes; callers hold a transaction.
func (s *Store) AddTimeOffBalance(ctx context.Context, employeeID string, delta decimal.Decimal) error {
	current, err := s.TimeOffBalance(ctx, employeeID)
	if err != nil {
		return err
	}
	if _, err := s.exec(ctx, `UPDATE employees SET time_off_balance = ? WHERE id = ?`,
		current.Add(delta).String(), employeeID); err != nil {
		return fmt.Errorf("update time-off balance: %w", err)
	}
	return nil
}
