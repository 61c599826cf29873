// internal/core/analytics/allocator.go

package analytics

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// Overhead holds amounts split across the three cost buckets.
type Overhead struct {
	Material decimal.Decimal `json:"material"`
	Shipping decimal.Decimal `json:"shipping"`
	Other    decimal.Decimal `json:"other"`
}

func (o Overhead) Total() decimal.Decimal {
	return o.Material.Add(o.Shipping).Add(o.Other)
}

func (o Overhead) IsZero() bool {
	return o.Material.IsZero() && o.Shipping.IsZero() && o.Other.IsZero()
}

func (o *Overhead) add(bucket domain.CostBucket, amount decimal.Decimal) {
	switch bucket {
	case domain.BucketMaterial:
		o.Material = o.Material.Add(amount)
	case domain.BucketShipping:
		o.Shipping = o.Shipping.Add(amount)
	default:
		o.Other = o.Other.Add(amount)
	}
}

func (o *Overhead) merge(other Overhead) {
	o.Material = o.Material.Add(other.Material)
	o.Shipping = o.Shipping.Add(other.Shipping)
	o.Other = o.Other.Add(other.Other)
}

// AllocationResult maps each sale to its share of overhead expenses.
type AllocationResult struct {
	// BySale is keyed by sale ID. Sales absent from the map received no
	// allocation; treat as zero.
	BySale map[uuid.UUID]Overhead
	// Unallocated collects expenses from months with no sales in scope.
	// Reported as-is rather than smeared across unrelated months.
	Unallocated Overhead
	// BucketTotals sums every scoped expense by bucket, allocated or not.
	BucketTotals Overhead
}

// OverheadFor returns the overhead allocated to a sale, zero if none.
func (r AllocationResult) OverheadFor(saleID uuid.UUID) Overhead {
	return r.BySale[saleID]
}

// Allocate apportions expenses to sales within the same calendar month,
// weighted by each sale's share of that month's revenue. A month whose sales
// all have zero revenue splits its expenses equally instead. Expenses dated
// in a month with no sales, or carrying no date at all, land in Unallocated.
func Allocate(sales []JoinedSale, expenses []domain.ExpenseRecord) AllocationResult {
	result := AllocationResult{BySale: make(map[uuid.UUID]Overhead, len(sales))}

	salesByMonth := make(map[string][]JoinedSale)
	for _, js := range sales {
		if js.Sale.SaleDate.IsZero() {
			continue
		}
		key := js.Sale.SaleDate.MonthKey()
		salesByMonth[key] = append(salesByMonth[key], js)
	}

	expenseByMonth := make(map[string]Overhead)
	for _, exp := range expenses {
		result.BucketTotals.add(exp.Bucket(), exp.Amount)
		if exp.Date.IsZero() {
			result.Unallocated.add(exp.Bucket(), exp.Amount)
			continue
		}
		key := exp.Date.MonthKey()
		monthly := expenseByMonth[key]
		monthly.add(exp.Bucket(), exp.Amount)
		expenseByMonth[key] = monthly
	}

	for month, monthly := range expenseByMonth {
		monthSales, ok := salesByMonth[month]
		if !ok || len(monthSales) == 0 {
			result.Unallocated.merge(monthly)
			continue
		}

		totalRevenue := decimal.Zero
		for _, js := range monthSales {
			totalRevenue = totalRevenue.Add(js.Sale.Revenue())
		}

		equalShare := totalRevenue.IsZero()
		n := decimal.NewFromInt(int64(len(monthSales)))

		for _, js := range monthSales {
			var weight decimal.Decimal
			if equalShare {
				weight = decimal.NewFromInt(1).Div(n)
			} else {
				weight = js.Sale.Revenue().Div(totalRevenue)
			}

			share := result.BySale[js.Sale.ID]
			share.Material = share.Material.Add(monthly.Material.Mul(weight))
			share.Shipping = share.Shipping.Add(monthly.Shipping.Mul(weight))
			share.Other = share.Other.Add(monthly.Other.Mul(weight))
			result.BySale[js.Sale.ID] = share
		}
	}

	return result
}
