package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// =============================================================================
// SOCIAL INSURANCE
// =============================================================================

// Insurance is the split of social insurance on a clamped base.
type Insurance struct {
	Base     decimal.Decimal
	Employee decimal.Decimal
	Company  decimal.Decimal
}

// SocialInsurance clamps the insurable salary to the policy limits and
// applies both rates. Shares are rounded to cents.
func (p Policy) SocialInsurance(insuranceSalary decimal.Decimal) Insurance {
	base := decimal.Min(decimal.Max(insuranceSalary, p.MinInsurable), p.MaxInsurable)
	return Insurance{
		Base:     base,
		Employee: generic.RoundMoney(base.Mul(p.EmployeeRate)),
		Company:  generic.RoundMoney(base.Mul(p.CompanyRate)),
	}
}

// =============================================================================
// INCOME TAX
// =============================================================================

// AnnualIncomeTax applies the personal exemption and walks the brackets.
func (p Policy) AnnualIncomeTax(annualTaxable decimal.Decimal) decimal.Decimal {
	taxable := annualTaxable.Sub(p.PersonalExemption)
	if !taxable.IsPositive() {
		return decimal.Zero
	}

	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range p.Brackets {
		top := taxable
		if !b.UpTo.IsZero() {
			top = decimal.Min(taxable, b.UpTo)
		}
		if portion := top.Sub(lower); portion.IsPositive() {
			tax = tax.Add(portion.Mul(b.Rate))
		}
		if b.UpTo.IsZero() || taxable.LessThanOrEqual(b.UpTo) {
			break
		}
		lower = b.UpTo
	}
	return tax
}

// IncomeTax returns the monthly tax on an annual taxable amount.
func (p Policy) IncomeTax(annualTaxable decimal.Decimal) decimal.Decimal {
	return generic.RoundMoney(p.AnnualIncomeTax(annualTaxable).Div(twelve))
}

// =============================================================================
// SALARY SLIP
// =============================================================================

var twelve = decimal.NewFromInt(12)

// ComputeSlip computes one employee's slip for a month of attendance. It is
// pure: the caller persists the result.
//
// Pay is prorated on a fixed month of DaysPerMonth days. Rest days worked are
// paid as overtime only when the attendance action is pay; with credit they
// are banked as time off at close. The insurance base falls back to the basic
// salary when no insurance salary is set.
func (p Policy) ComputeSlip(emp Employee, att Attendance, codes Codes) Slip {
	slip := Slip{
		EmployeeID:     emp.ID,
		EmployeeName:   emp.Name,
		Department:     emp.DepartmentID,
		BasicSalary:    emp.BasicSalary,
		PayableDays:    att.PayableDays(),
		Action:         att.Action,
		RestDaysWorked: att.RestDaysWorked(),
	}
	if slip.Action == "" {
		slip.Action = ActionPay
	}

	item := func(code string, kind Kind, amount decimal.Decimal) LineItem {
		c, ok := codes[code]
		name := code
		if ok && c.Name != "" {
			name = c.Name
		}
		return LineItem{
			Kind:        kind,
			Code:        code,
			Name:        name,
			GLAccountID: c.GLAccountID,
			Amount:      amount,
			Department:  emp.DepartmentID,
		}
	}

	slip.ComputedBasic = generic.RoundMoney(
		emp.BasicSalary.Mul(decimal.NewFromInt(int64(slip.PayableDays))).Div(p.DaysPerMonth))
	slip.Earnings = append(slip.Earnings, item(CodeBasic, Earning, slip.ComputedBasic))

	if variable := generic.RoundMoney(emp.VariableSalary); variable.IsPositive() {
		slip.Earnings = append(slip.Earnings, item(CodeVariable, Earning, variable))
	}

	if slip.Action == ActionPay && slip.RestDaysWorked > 0 {
		overtime := generic.RoundMoney(emp.BasicSalary.
			Mul(decimal.NewFromInt(int64(slip.RestDaysWorked))).
			Mul(p.OvertimeMultiplier).
			Div(p.DaysPerMonth))
		slip.Earnings = append(slip.Earnings, item(CodeOvertime, Earning, overtime))
	}

	// No declared insurance salary means the basic salary is insured.
	base := emp.InsuranceSalary
	if base.IsZero() {
		base = emp.BasicSalary
	}
	ins := p.SocialInsurance(base)
	slip.CompanyInsurance = ins.Company

	monthlyTaxable := emp.BasicSalary.Add(emp.VariableSalary).Sub(ins.Employee)
	tax := decimal.Zero
	if monthlyTaxable.IsPositive() {
		tax = p.IncomeTax(monthlyTaxable.Mul(twelve))
	}

	slip.Deductions = append(slip.Deductions,
		item(CodeSocialInsurance, Deduction, ins.Employee),
		item(CodeIncomeTax, Deduction, tax),
	)

	slip.TotalEarnings = decimal.Zero
	for _, e := range slip.Earnings {
		slip.TotalEarnings = slip.TotalEarnings.Add(e.Amount)
	}
	slip.TotalDeductions = decimal.Zero
	for _, d := range slip.Deductions {
		slip.TotalDeductions = slip.TotalDeductions.Add(d.Amount)
	}
	slip.NetSalary = slip.TotalEarnings.Sub(slip.TotalDeductions)

	if days := generic.DaysInMonth(att.Year, att.Month); att.Year > 0 && slip.PayableDays > days {
		slip.Warnings = append(slip.Warnings,
			fmt.Sprintf("payable days %d exceed the %d days of %s %d", slip.PayableDays, days, att.Month, att.Year))
	}
	if slip.NetSalary.IsNegative() {
		slip.Warnings = append(slip.Warnings, "net salary is negative")
	}
	return slip
}

// ValidateAttendance rejects negative counts and unknown actions.
func ValidateAttendance(att Attendance) error {
	counts := []struct {
		field string
		value int
	}{
		{"present_days", att.PresentDays},
		{"off_days", att.OffDays},
		{"holiday_days", att.HolidayDays},
		{"absent_days", att.AbsentDays},
		{"unpaid_days", att.UnpaidDays},
		{"worked_off_days", att.WorkedOffDays},
		{"worked_holiday_days", att.WorkedHolidayDays},
	}
	for _, c := range counts {
		if c.value < 0 {
			return generic.Field(c.field, "must not be negative")
		}
	}
	if att.Action != "" && !att.Action.Valid() {
		return generic.Field("action", fmt.Sprintf("unknown action %q", att.Action))
	}
	if att.EmployeeID == "" {
		return generic.Field("employee_id", "required")
	}
	if _, err := generic.MonthOf(att.Year, att.Month); err != nil {
		return err
	}
	return nil
}
