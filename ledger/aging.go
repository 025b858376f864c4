package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/clinic-ledger/generic"
)

// Aging bucket labels.
const (
	Bucket0To30  = "0-30"
	Bucket31To60 = "31-60"
	Bucket61To90 = "61-90"
	BucketOver90 = "90+"
)

// AgingBucket maps days overdue to its bucket label.
func AgingBucket(daysOverdue int) string {
	switch {
	case daysOverdue <= 30:
		return Bucket0To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingItem is one unpaid expense with its age.
type AgingItem struct {
	ExpenseID   string
	Description string
	Date        string
	DueDate     string
	Amount      decimal.Decimal
	DaysOverdue int
	Bucket      string
}

// VendorAging totals one vendor's unpaid expenses per bucket.
type VendorAging struct {
	Vendor       string
	Current      decimal.Decimal
	Days31To60   decimal.Decimal
	Days61To90   decimal.Decimal
	Over90       decimal.Decimal
	Total        decimal.Decimal
	RunningTotal decimal.Decimal
	Items        []AgingItem
}

func (v *VendorAging) add(bucket string, amount decimal.Decimal) {
	switch bucket {
	case Bucket0To30:
		v.Current = v.Current.Add(amount)
	case Bucket31To60:
		v.Days31To60 = v.Days31To60.Add(amount)
	case Bucket61To90:
		v.Days61To90 = v.Days61To90.Add(amount)
	default:
		v.Over90 = v.Over90.Add(amount)
	}
	v.Total = v.Total.Add(amount)
}

// SupplierAging is the unpaid-expense report.
type SupplierAging struct {
	AsOf    string
	Vendors []VendorAging
	Totals  VendorAging
}

// SupplierAging ages every unpaid expense against asOf. Days overdue are
// counted from the due date, or the expense date when there is none, rounded
// up and never negative. Vendors are sorted by name and carry a running total.
func (r *Reports) SupplierAging(ctx context.Context, asOf time.Time) (SupplierAging, error) {
	expenses, err := r.store.ListUnpaidExpenses(ctx)
	if err != nil {
		return SupplierAging{}, err
	}
	return buildSupplierAging(expenses, asOf), nil
}

func newVendorAging(vendor string) VendorAging {
	return VendorAging{
		Vendor:       vendor,
		Current:      decimal.Zero,
		Days31To60:   decimal.Zero,
		Days61To90:   decimal.Zero,
		Over90:       decimal.Zero,
		Total:        decimal.Zero,
		RunningTotal: decimal.Zero,
	}
}

func buildSupplierAging(expenses []ExpenseRecord, asOf time.Time) SupplierAging {
	byVendor := map[string]*VendorAging{}
	for _, e := range expenses {
		if e.Paid {
			continue
		}
		v, ok := byVendor[e.Vendor]
		if !ok {
			va := newVendorAging(e.Vendor)
			v = &va
			byVendor[e.Vendor] = v
		}
		days := generic.DaysOverdue(e.Due(), asOf)
		bucket := AgingBucket(days)
		v.add(bucket, e.Amount)
		v.Items = append(v.Items, AgingItem{
			ExpenseID:   e.ID,
			Description: e.Description,
			Date:        generic.FormatDate(e.Date),
			DueDate:     generic.FormatDate(e.Due()),
			Amount:      e.Amount,
			DaysOverdue: days,
			Bucket:      bucket,
		})
	}

	report := SupplierAging{AsOf: generic.FormatDate(asOf), Totals: newVendorAging("")}
	for _, v := range byVendor {
		report.Vendors = append(report.Vendors, *v)
	}
	sort.Slice(report.Vendors, func(i, j int) bool { return report.Vendors[i].Vendor < report.Vendors[j].Vendor })

	running := decimal.Zero
	for i := range report.Vendors {
		v := &report.Vendors[i]
		running = running.Add(v.Total)
		v.RunningTotal = running
		report.Totals.Current = report.Totals.Current.Add(v.Current)
		report.Totals.Days31To60 = report.Totals.Days31To60.Add(v.Days31To60)
		report.Totals.Days61To90 = report.Totals.Days61To90.Add(v.Days61To90)
		report.Totals.Over90 = report.Totals.Over90.Add(v.Over90)
		report.Totals.Total = report.Totals.Total.Add(v.Total)
	}
	report.Totals.RunningTotal = running
	return report
}
