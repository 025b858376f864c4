package payroll

import "github.com/warp/clinic-ledger/generic"

var (
	ErrPeriodClosed     = generic.Conflict("payroll: period is already closed")
	ErrNoSlips          = generic.Conflict("payroll: no salary slips calculated for period")
	ErrPeriodNotFound   = generic.NotFound("payroll: period not found")
	ErrEmployeeNotFound = generic.NotFound("payroll: employee not found")
	ErrUnmappedCodes    = generic.Configuration("payroll: payroll codes without GL account and no suspense account configured")
	ErrDepartmentExists = generic.Conflict("payroll: department name already exists")
)
