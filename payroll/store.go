package payroll

import (
	"context"
	"time"

	"github.com/warp/clinic-ledger/generic"
)

// Store is the persistence payroll needs. Every method joins the
// transaction carried by ctx, if any.
type Store interface {
	generic.TxRunner

	// Master data
	SaveDepartment(ctx context.Context, d Department) error
	ListDepartments(ctx context.Context) ([]Department, error)
	SaveEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)
	SaveAttendance(ctx context.Context, a Attendance) error
	ListAttendance(ctx context.Context, m generic.Month) ([]Attendance, error)
	SaveCode(ctx context.Context, c Code) error
	ListCodes(ctx context.Context) ([]Code, error)

	// Periods and slips
	GetPayrollPeriod(ctx context.Context, m generic.Month) (Period, error)
	CreatePayrollPeriod(ctx context.Context, p Period) error
	// ClosePayrollPeriod flips the period from open to closed and reports
	// whether this call made the change.
	ClosePayrollPeriod(ctx context.Context, periodID, entryID string, at time.Time) (bool, error)
	UpsertSlip(ctx context.Context, s Slip) error
	// DeleteSlipsExcept removes the period's slips for employees not in keep.
	DeleteSlipsExcept(ctx context.Context, periodID string, keep []string) error
	ListSlips(ctx context.Context, periodID string) ([]Slip, error)
}
