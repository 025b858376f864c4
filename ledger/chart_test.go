package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/clinic-ledger/generic"
	"github.com/warp/clinic-ledger/ledger"
)

func TestSeed_IsIdempotent(t *testing.T) {
	f := newFixture(t)

	n, err := f.chart.Seed(f.ctx, ledger.DefaultChart)

	require.NoError(t, err)
	assert.Zero(t, n)
	accounts, err := f.chart.List(f.ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, len(ledger.DefaultChart))
}

func TestCreateAccount_ParentTypeMustMatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.chart.CreateAccount(f.ctx, ledger.NewAccount{
		Code: "405", Name: "Misplaced", Type: ledger.Expense, ParentCode: "400",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAccount)

	acct, err := f.chart.CreateAccount(f.ctx, ledger.NewAccount{
		Code: "405", Name: "Pharmacy Revenue", Type: ledger.Revenue, ParentCode: "400",
	})
	require.NoError(t, err)
	assert.Equal(t, f.account(t, "400").ID, acct.ParentID)
}

func TestCreateAccount_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   ledger.NewAccount
		want error
	}{
		{"missing code", ledger.NewAccount{Name: "x", Type: ledger.Asset}, generic.ErrValidation},
		{"bad type", ledger.NewAccount{Code: "900", Name: "x", Type: "income"}, generic.ErrValidation},
		{"duplicate code", ledger.NewAccount{Code: "101", Name: "x", Type: ledger.Asset}, ledger.ErrDuplicateCode},
		{"unknown parent", ledger.NewAccount{Code: "901", Name: "x", Type: ledger.Asset, ParentCode: "999"}, ledger.ErrAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.chart.CreateAccount(f.ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)

	t.Run("unused leaf", func(t *testing.T) {
		acct := f.account(t, "403")
		require.NoError(t, f.chart.DeleteAccount(f.ctx, acct.ID))
		_, err := f.chart.Get(f.ctx, acct.ID)
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	})

	t.Run("has children", func(t *testing.T) {
		err := f.chart.DeleteAccount(f.ctx, f.account(t, "400").ID)
		assert.ErrorIs(t, err, ledger.ErrAccountInUse)
	})

	t.Run("has lines", func(t *testing.T) {
		f.post(t, day(2025, 3, 2), "102", "401", "10", "")
		err := f.chart.DeleteAccount(f.ctx, f.account(t, "102").ID)
		assert.ErrorIs(t, err, ledger.ErrAccountInUse)
	})
}

func TestTree_NestsChildrenByCode(t *testing.T) {
	f := newFixture(t)

	roots, err := f.chart.Tree(f.ctx)
	require.NoError(t, err)

	require.Len(t, roots, 5)
	assert.Equal(t, "100", roots[0].Code)
	require.NotEmpty(t, roots[0].Children)
	assert.Equal(t, "101", roots[0].Children[0].Code)
}

func TestResolveControlAccounts_Misconfigured(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		codes ledger.ControlCodes
	}{
		{"missing cash", ledger.ControlCodes{Cash: "", RetainedEarnings: "310", Payables: "201"}},
		{"unknown code", ledger.ControlCodes{Cash: "199", RetainedEarnings: "310", Payables: "201"}},
		{"wrong type", ledger.ControlCodes{Cash: "401", RetainedEarnings: "310", Payables: "201"}},
		{"unknown suspense", ledger.ControlCodes{Cash: "101", RetainedEarnings: "310", Payables: "201", PayrollSuspense: "299"}},
		{"suspense not a liability", ledger.ControlCodes{Cash: "101", RetainedEarnings: "310", Payables: "201", PayrollSuspense: "501"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.ResolveControlAccounts(f.ctx, f.store, tt.codes)
			assert.True(t, generic.IsConfiguration(err), "got %v", err)
		})
	}

	controls, err := ledger.ResolveControlAccounts(f.ctx, f.store,
		ledger.ControlCodes{Cash: "101", RetainedEarnings: "310", Payables: "201", PayrollSuspense: "290"})
	require.NoError(t, err)
	require.NotNil(t, controls.PayrollSuspense)
	assert.Equal(t, ledger.Liability, controls.PayrollSuspense.Type)
}
