package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/warp/clinic-ledger/generic"
)

// Chart maintains the chart of accounts.
type Chart struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewChart returns a chart backed by store.
func NewChart(store Store, log zerolog.Logger) *Chart {
	return &Chart{
		store: store,
		log:   log.With().Str("component", "chart").Logger(),
		now:   time.Now,
	}
}

// NewAccount is the input to CreateAccount.
type NewAccount struct {
	Code       string
	Name       string
	Type       AccountType
	ParentCode string
}

// CreateAccount adds an account. Codes are unique and a child must share its
// parent's type.
func (c *Chart) CreateAccount(ctx context.Context, in NewAccount) (Account, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return Account{}, generic.Field("code", "required")
	}
	if name == "" {
		return Account{}, generic.Field("name", "required")
	}
	if !in.Type.Valid() {
		return Account{}, generic.Field("type", fmt.Sprintf("unknown account type %q", in.Type))
	}

	acct := Account{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      name,
		Type:      in.Type,
		CreatedAt: c.now().UTC(),
	}

	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		if in.ParentCode != "" {
			parent, err := c.store.GetAccountByCode(ctx, in.ParentCode)
			if err != nil {
				return fmt.Errorf("parent %s: %w", in.ParentCode, err)
			}
			if parent.Type != in.Type {
				return fmt.Errorf("%w: %s account cannot sit under %s parent %s",
					ErrInvalidAccount, in.Type, parent.Type, parent.Code)
			}
			acct.ParentID = parent.ID
		}
		return c.store.InsertAccount(ctx, acct)
	})
	if err != nil {
		return Account{}, err
	}

	c.log.Info().Str("code", acct.Code).Str("type", string(acct.Type)).Msg("account created")
	return acct, nil
}

// DeleteAccount removes an account that no line references and that has no
// children.
func (c *Chart) DeleteAccount(ctx context.Context, id string) error {
	return c.store.WithTx(ctx, func(ctx context.Context) error {
		acct, err := c.store.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		used, err := c.store.AccountHasLines(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: %s has posted lines", ErrAccountInUse, acct.Code)
		}
		parent, err := c.store.AccountHasChildren(ctx, id)
		if err != nil {
			return err
		}
		if parent {
			return fmt.Errorf("%w: %s has child accounts", ErrAccountInUse, acct.Code)
		}
		if err := c.store.DeleteAccount(ctx, id); err != nil {
			return err
		}
		c.log.Info().Str("code", acct.Code).Msg("account deleted")
		return nil
	})
}

// Get returns an account by ID.
func (c *Chart) Get(ctx context.Context, id string) (Account, error) {
	return c.store.GetAccount(ctx, id)
}

// GetByCode returns an account by code.
func (c *Chart) GetByCode(ctx context.Context, code string) (Account, error) {
	return c.store.GetAccountByCode(ctx, code)
}

// List returns all accounts ordered by code.
func (c *Chart) List(ctx context.Context) ([]Account, error) {
	return c.store.ListAccounts(ctx)
}

// Tree returns the chart as a forest ordered by code at every level.
func (c *Chart) Tree(ctx context.Context) ([]*AccountNode, error) {
	accounts, err := c.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(accounts), nil
}

// BuildTree arranges accounts by ParentID. Accounts whose parent is missing
// are treated as roots.
func BuildTree(accounts []Account) []*AccountNode {
	nodes := make(map[string]*AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &AccountNode{Account: a}
	}

	var roots []*AccountNode
	for _, a := range accounts {
		n := nodes[a.ID]
		if p, ok := nodes[a.ParentID]; ok && a.ParentID != "" {
			p.Children = append(p.Children, n)
			continue
		}
		roots = append(roots, n)
	}

	var sortNodes func([]*AccountNode)
	sortNodes = func(ns []*AccountNode) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].Code < ns[j].Code })
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	return roots
}

// SeedAccount is one row of a seeded chart.
type SeedAccount struct {
	Code       string
	Name       string
	Type       AccountType
	ParentCode string
}

// DefaultChart is the starting chart for a clinic. Control account codes in
// config default to entries of this list.
var DefaultChart = []SeedAccount{
	{"100", "Assets", Asset, ""},
	{"101", "Cash on Hand", Asset, "100"},
	{"102", "Bank", Asset, "100"},
	{"110", "Accounts Receivable", Asset, "100"},
	{"200", "Liabilities", Liability, ""},
	{"201", "Accounts Payable", Liability, "200"},
	{"210", "Social Insurance Payable", Liability, "200"},
	{"211", "Income Tax Payable", Liability, "200"},
	{"290", "Payroll Suspense", Liability, "200"},
	{"300", "Equity", Equity, ""},
	{"301", "Owner Capital", Equity, "300"},
	{"310", "Retained Earnings", Equity, "300"},
	{"400", "Revenue", Revenue, ""},
	{"401", "Consultation Revenue", Revenue, "400"},
	{"402", "Laboratory Revenue", Revenue, "400"},
	{"403", "Radiology Revenue", Revenue, "400"},
	{"500", "Expenses", Expense, ""},
	{"501", "Salaries and Wages", Expense, "500"},
	{"502", "Overtime", Expense, "500"},
	{"510", "Utilities", Expense, "500"},
	{"520", "Medical Supplies", Expense, "500"},
	{"530", "Rent", Expense, "500"},
}

// Seed creates every account of seed whose code does not exist yet. Parents
// must precede children. Returns the number of accounts created.
func (c *Chart) Seed(ctx context.Context, seed []SeedAccount) (int, error) {
	created := 0
	err := c.store.WithTx(ctx, func(ctx context.Context) error {
		for _, s := range seed {
			_, err := c.store.GetAccountByCode(ctx, s.Code)
			if err == nil {
				continue
			}
			if !errors.Is(err, ErrAccountNotFound) {
				return err
			}
			if _, err := c.CreateAccount(ctx, NewAccount(s)); err != nil {
				return fmt.Errorf("seed %s: %w", s.Code, err)
			}
			created++
		}
		return nil
	})
	return created, err
}
