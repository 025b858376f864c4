package ledger

import (
	"context"
	"errors"
	"fmt"
)

// ControlCodes names the control accounts by code, as configured.
type ControlCodes struct {
	Cash             string
	RetainedEarnings string
	Payables         string
	// PayrollSuspense is optional. When set, payroll amounts whose code has
	// no GL account land here instead of failing the close.
	PayrollSuspense string
}

// ControlAccounts are the accounts the engines post to without being told.
// They are resolved once at startup.
type ControlAccounts struct {
	Cash             Account
	RetainedEarnings Account
	Payables         Account
	PayrollSuspense  *Account
}

// ResolveControlAccounts looks every configured code up in the chart and
// checks its type. Any failure is a configuration error.
func ResolveControlAccounts(ctx context.Context, store Store, codes ControlCodes) (ControlAccounts, error) {
	var out ControlAccounts

	resolve := func(role, code string, want AccountType) (Account, error) {
		if code == "" {
			return Account{}, fmt.Errorf("%w: %s account code is empty", ErrControlAccountMissing, role)
		}
		acct, err := store.GetAccountByCode(ctx, code)
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, fmt.Errorf("%w: %s account %q does not exist", ErrControlAccountMissing, role, code)
		}
		if err != nil {
			return Account{}, err
		}
		if acct.Type != want {
			return Account{}, fmt.Errorf("%w: %s account %q is %s, want %s",
				ErrControlAccountMissing, role, code, acct.Type, want)
		}
		return acct, nil
	}

	var err error
	if out.Cash, err = resolve("cash", codes.Cash, Asset); err != nil {
		return out, err
	}
	if out.RetainedEarnings, err = resolve("retained earnings", codes.RetainedEarnings, Equity); err != nil {
		return out, err
	}
	if out.Payables, err = resolve("payables", codes.Payables, Liability); err != nil {
		return out, err
	}
	if codes.PayrollSuspense != "" {
		acct, err := resolve("payroll suspense", codes.PayrollSuspense, Liability)
		if err != nil {
			return out, err
		}
		out.PayrollSuspense = &acct
	}
	return out, nil
}
