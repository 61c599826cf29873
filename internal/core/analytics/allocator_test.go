// internal/core/analytics/allocator_test.go

package analytics

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testItem(name string, opts ...func(*domain.InventoryItem)) domain.InventoryItem {
	item := domain.InventoryItem{
		ID:        uuid.New(),
		Name:      name,
		Condition: domain.ConditionUsedComplete,
		Status:    domain.StatusSold,
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

func testSale(itemID uuid.UUID, date string, price string, opts ...func(*domain.SaleRecord)) domain.SaleRecord {
	sale := domain.SaleRecord{
		ID:        uuid.New(),
		ItemID:    itemID,
		SaleDate:  mustDate(date),
		SalePrice: money(price),
	}
	for _, opt := range opts {
		opt(&sale)
	}
	return sale
}

func mustDate(s string) domain.Date {
	if s == "" {
		return domain.Date{}
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func expense(date, category, amount string) domain.ExpenseRecord {
	return domain.ExpenseRecord{
		ID:       uuid.New(),
		Date:     mustDate(date),
		Category: category,
		Amount:   money(amount),
	}
}

func TestAllocate_single_sale_absorbs_whole_month(t *testing.T) {
	item := testItem("Castle")
	sale := testSale(item.ID, "2025-02-10", "100.00")
	sales := []JoinedSale{{Item: item, Sale: sale}}

	result := Allocate(sales, []domain.ExpenseRecord{
		expense("2025-02-03", "Shipping labels", "10.00"),
	})

	share := result.OverheadFor(sale.ID)
	assert.True(t, share.Shipping.Equal(money("10.00")),
		"expected full 10.00 shipping, got %s", share.Shipping)
	assert.True(t, share.Material.IsZero())
	assert.True(t, result.Unallocated.Total().IsZero())
}

func TestAllocate_weights_follow_revenue_share(t *testing.T) {
	itemA := testItem("Small set")
	itemB := testItem("Big set")
	saleA := testSale(itemA.ID, "2025-03-05", "30.00")
	saleB := testSale(itemB.ID, "2025-03-20", "70.00")
	sales := []JoinedSale{
		{Item: itemA, Sale: saleA},
		{Item: itemB, Sale: saleB},
	}

	result := Allocate(sales, []domain.ExpenseRecord{
		expense("2025-03-12", "Storage rent", "20.00"),
	})

	shareA := result.OverheadFor(saleA.ID).Other
	shareB := result.OverheadFor(saleB.ID).Other

	fA, _ := shareA.Float64()
	fB, _ := shareB.Float64()
	assert.InDelta(t, 6.0, fA, 1e-9)
	assert.InDelta(t, 14.0, fB, 1e-9)

	total, _ := shareA.Add(shareB).Float64()
	assert.InDelta(t, 20.0, total, 1e-9, "allocated shares must sum to the expense")
}

func TestAllocate_zero_revenue_month_splits_equally(t *testing.T) {
	itemA := testItem("Giveaway A")
	itemB := testItem("Giveaway B")
	saleA := testSale(itemA.ID, "2025-04-01", "0.00")
	saleB := testSale(itemB.ID, "2025-04-02", "0.00")
	sales := []JoinedSale{
		{Item: itemA, Sale: saleA},
		{Item: itemB, Sale: saleB},
	}

	result := Allocate(sales, []domain.ExpenseRecord{
		expense("2025-04-15", "Packaging tape", "8.00"),
	})

	fA, _ := result.OverheadFor(saleA.ID).Material.Float64()
	fB, _ := result.OverheadFor(saleB.ID).Material.Float64()
	assert.InDelta(t, 4.0, fA, 1e-9)
	assert.InDelta(t, 4.0, fB, 1e-9)
}

func TestAllocate_expense_month_without_sales_is_unallocated(t *testing.T) {
	item := testItem("Rocket")
	sale := testSale(item.ID, "2025-06-10", "50.00")
	sales := []JoinedSale{{Item: item, Sale: sale}}

	result := Allocate(sales, []domain.ExpenseRecord{
		expense("2025-01-10", "Storage rent", "25.00"),
		expense("2025-06-05", "Shipping supplies", "5.00"),
	})

	assert.True(t, result.Unallocated.Other.Equal(money("25.00")),
		"January rent has no sales to attach to")
	assert.True(t, result.OverheadFor(sale.ID).Shipping.Equal(money("5.00")))
	assert.True(t, result.BucketTotals.Total().Equal(money("30.00")))
}

func TestAllocate_undated_expense_is_unallocated(t *testing.T) {
	item := testItem("Undated")
	sale := testSale(item.ID, "2025-05-01", "40.00")

	result := Allocate([]JoinedSale{{Item: item, Sale: sale}}, []domain.ExpenseRecord{
		expense("", "Bubble wrap", "3.50"),
	})

	assert.True(t, result.Unallocated.Material.Equal(money("3.50")))
	assert.Empty(t, result.BySale)
}

func TestAllocate_undated_sale_receives_no_allocation(t *testing.T) {
	item := testItem("No date")
	sale := testSale(item.ID, "", "40.00")

	result := Allocate([]JoinedSale{{Item: item, Sale: sale}}, []domain.ExpenseRecord{
		expense("2025-05-10", "Mailers", "6.00"),
	})

	assert.True(t, result.OverheadFor(sale.ID).Total().IsZero())
	assert.True(t, result.Unallocated.Material.Equal(money("6.00")))
}

func TestAllocate_buckets_stay_separate(t *testing.T) {
	item := testItem("Bucketed")
	sale := testSale(item.ID, "2025-07-01", "100.00")

	result := Allocate([]JoinedSale{{Item: item, Sale: sale}}, []domain.ExpenseRecord{
		expense("2025-07-02", "Boxes and tape", "4.00"),
		expense("2025-07-03", "Postage", "7.00"),
		expense("2025-07-04", "Subscription", "9.00"),
	})

	share := result.OverheadFor(sale.ID)
	assert.True(t, share.Material.Equal(money("4.00")))
	assert.True(t, share.Shipping.Equal(money("7.00")))
	assert.True(t, share.Other.Equal(money("9.00")))
}

func TestAllocate_no_sales_at_all(t *testing.T) {
	result := Allocate(nil, []domain.ExpenseRecord{
		expense("2025-08-01", "Storage rent", "30.00"),
	})

	require.Empty(t, result.BySale)
	assert.True(t, result.Unallocated.Other.Equal(money("30.00")))
}

func TestAllocate_is_deterministic(t *testing.T) {
	items := make([]domain.InventoryItem, 5)
	sales := make([]JoinedSale, 5)
	for i := range items {
		items[i] = testItem("Set")
		sale := testSale(items[i].ID, "2025-09-15", decimal.NewFromInt(int64(10+i*7)).String())
		sales[i] = JoinedSale{Item: items[i], Sale: sale}
	}
	expenses := []domain.ExpenseRecord{
		expense("2025-09-01", "Postage", "13.37"),
		expense("2025-09-20", "Supplies", "8.25"),
	}

	first := Allocate(sales, expenses)
	for i := 0; i < 10; i++ {
		again := Allocate(sales, expenses)
		for id, share := range first.BySale {
			assert.True(t, again.BySale[id].Total().Equal(share.Total()))
		}
	}
}

func BenchmarkAllocate(b *testing.B) {
	const n = 1000
	sales := make([]JoinedSale, n)
	for i := 0; i < n; i++ {
		item := testItem("Bench")
		day := time.Date(2025, time.Month(i%12+1), i%28+1, 0, 0, 0, 0, time.UTC)
		sale := domain.SaleRecord{
			ID:        uuid.New(),
			ItemID:    item.ID,
			SaleDate:  domain.DateOf(day),
			SalePrice: decimal.NewFromInt(int64(i%90 + 10)),
		}
		sales[i] = JoinedSale{Item: item, Sale: sale}
	}
	expenses := make([]domain.ExpenseRecord, 120)
	for i := range expenses {
		expenses[i] = expense("2025-06-15", "Postage", "2.50")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Allocate(sales, expenses)
	}
}
