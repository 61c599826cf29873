// internal/core/analytics/aggregate_test.go

package analytics

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

func allTime() StatsScope {
	return StatsScope{DateRange: RangeAll, Today: mustDate("2025-12-31")}
}

func TestBuildReport_empty_snapshot(t *testing.T) {
	report := BuildReport(Snapshot{}, allTime(), testLogger())

	assert.True(t, report.Summary.TotalRevenue.IsZero())
	assert.Zero(t, report.Summary.SellThroughPct, "no items must yield 0, not NaN")
	assert.Zero(t, report.Summary.MarginPct)
	assert.Zero(t, report.Summary.AvgDaysToSell)
	assert.Empty(t, report.Monthly)
	require.Len(t, report.Conditions, 4, "all four condition buckets always present")
	for i, cond := range domain.ConditionOrder {
		assert.Equal(t, cond, report.Conditions[i].Condition)
	}
}

func TestBuildReport_monthly_series_is_sparse_and_sorted(t *testing.T) {
	itemJan := testItem("January set")
	itemMay := testItem("May set")
	snap := Snapshot{
		Items: []domain.InventoryItem{itemJan, itemMay},
		Sales: []domain.SaleRecord{
			testSale(itemMay.ID, "2025-05-10", "60.00"),
			testSale(itemJan.ID, "2025-01-20", "40.00"),
		},
	}

	report := BuildReport(snap, allTime(), testLogger())

	require.Len(t, report.Monthly, 2, "months without sales are absent, never zero-filled")
	assert.Equal(t, "2025-01", report.Monthly[0].Month)
	assert.Equal(t, "2025-05", report.Monthly[1].Month)
	assert.True(t, report.Monthly[0].Revenue.Equal(money("40.00")))
}

func TestBuildReport_breakdown_truncates_to_top_ten(t *testing.T) {
	snap := Snapshot{}
	for i := 0; i < 15; i++ {
		item := testItem("Set")
		snap.Items = append(snap.Items, item)
		snap.Sales = append(snap.Sales, testSale(item.ID, "2025-03-01",
			decimal.NewFromInt(int64(100-i)).String(),
			func(s *domain.SaleRecord) { s.Marketplace = fmt.Sprintf("market-%02d", i) }))
	}

	report := BuildReport(snap, allTime(), testLogger())

	require.Len(t, report.ByMarketplace.Top, TopN)
	assert.Len(t, report.ByMarketplace.All, 15, "tail entries stay in the full map")
	assert.Equal(t, "market-00", report.ByMarketplace.Top[0].Label)
	// strictly decreasing prices, so top list mirrors input order
	for i := 1; i < TopN; i++ {
		prev := report.ByMarketplace.Top[i-1].NetProfit
		assert.False(t, report.ByMarketplace.Top[i].NetProfit.GreaterThan(prev))
	}
}

func TestBuildReport_breakdown_ties_keep_first_seen_order(t *testing.T) {
	snap := Snapshot{}
	for _, mkt := range []string{"zebra", "alpha", "middle"} {
		item := testItem("Tied")
		snap.Items = append(snap.Items, item)
		snap.Sales = append(snap.Sales, testSale(item.ID, "2025-03-01", "25.00",
			func(s *domain.SaleRecord) { s.Marketplace = mkt }))
	}

	report := BuildReport(snap, allTime(), testLogger())

	require.Len(t, report.ByMarketplace.Top, 3)
	assert.Equal(t, "zebra", report.ByMarketplace.Top[0].Label)
	assert.Equal(t, "alpha", report.ByMarketplace.Top[1].Label)
	assert.Equal(t, "middle", report.ByMarketplace.Top[2].Label)
}

func TestBuildReport_blank_labels_group_under_placeholders(t *testing.T) {
	item := testItem("Unlabelled", func(i *domain.InventoryItem) { i.Batch = "" })
	snap := Snapshot{
		Items: []domain.InventoryItem{item},
		Sales: []domain.SaleRecord{testSale(item.ID, "2025-02-01", "30.00")},
	}

	report := BuildReport(snap, allTime(), testLogger())

	assert.Contains(t, report.ByBatch.All, domain.BatchNone)
	assert.Contains(t, report.ByMarketplace.All, "Unknown")
	assert.Contains(t, report.ByBuyer.All, "Unknown")
}

func TestBuildReport_sell_through_excludes_traded(t *testing.T) {
	sold := testItem("Sold", func(i *domain.InventoryItem) { i.Status = domain.StatusSold })
	stock := testItem("Stock", func(i *domain.InventoryItem) {
		i.Status = domain.StatusInStock
		i.PurchaseCost = money("12.00")
		i.MaterialCost = money("3.00")
	})
	traded := testItem("Traded", func(i *domain.InventoryItem) { i.Status = domain.StatusTraded })
	snap := Snapshot{
		Items: []domain.InventoryItem{sold, stock, traded},
		Sales: []domain.SaleRecord{testSale(sold.ID, "2025-04-01", "20.00")},
	}

	report := BuildReport(snap, allTime(), testLogger())

	assert.Equal(t, 1, report.Summary.SoldCount)
	assert.Equal(t, 1, report.Summary.UnsoldCount)
	assert.Equal(t, 1, report.Summary.TradedCount)
	assert.InDelta(t, 50.0, report.Summary.SellThroughPct, 1e-9,
		"traded items are out of the denominator")
	assert.True(t, report.Summary.InvestedUnsold.Equal(money("15.00")))
}

func TestBuildReport_skips_sales_with_missing_item(t *testing.T) {
	item := testItem("Real")
	snap := Snapshot{
		Items: []domain.InventoryItem{item},
		Sales: []domain.SaleRecord{
			testSale(item.ID, "2025-02-01", "50.00"),
			testSale(uuid.New(), "2025-02-02", "999.00"), // orphan
		},
	}

	report := BuildReport(snap, allTime(), testLogger())

	assert.Equal(t, 1, report.Summary.SkippedSales)
	assert.True(t, report.Summary.TotalRevenue.Equal(money("50.00")),
		"orphan revenue must not leak into totals")
}

func TestBuildReport_sold_status_without_sale_is_flagged(t *testing.T) {
	phantom := testItem("Phantom", func(i *domain.InventoryItem) { i.Status = domain.StatusSold })
	stock := testItem("Stock", func(i *domain.InventoryItem) { i.Status = domain.StatusInStock })
	snap := Snapshot{Items: []domain.InventoryItem{phantom, stock}}

	report := BuildReport(snap, allTime(), testLogger())

	assert.Equal(t, 1, report.Summary.StatusConflicts)
	assert.Zero(t, report.Summary.SoldCount, "a sold status needs a sale record to count")
	assert.Zero(t, report.Summary.SellThroughPct)
}

func TestBuildReport_out_of_window_sale_still_validates_sold_status(t *testing.T) {
	item := testItem("Old sale", func(i *domain.InventoryItem) { i.Status = domain.StatusSold })
	snap := Snapshot{
		Items: []domain.InventoryItem{item},
		Sales: []domain.SaleRecord{testSale(item.ID, "2025-01-05", "25.00")},
	}
	scope := StatsScope{DateRange: Range30Days, Today: mustDate("2025-12-31")}

	report := BuildReport(snap, scope, testLogger())

	assert.True(t, report.Summary.TotalRevenue.IsZero(), "the sale itself is outside the window")
	assert.Equal(t, 1, report.Summary.SoldCount)
	assert.Zero(t, report.Summary.StatusConflicts)
}

func TestBuildReport_condition_breakdown_fixed_buckets(t *testing.T) {
	sealed := testItem("Sealed", func(i *domain.InventoryItem) {
		i.Condition = domain.ConditionNewSealed
		i.Status = domain.StatusSold
	})
	sealedStock := testItem("Sealed stock", func(i *domain.InventoryItem) {
		i.Condition = domain.ConditionNewSealed
		i.Status = domain.StatusInStock
	})
	snap := Snapshot{
		Items: []domain.InventoryItem{sealed, sealedStock},
		Sales: []domain.SaleRecord{testSale(sealed.ID, "2025-07-01", "80.00")},
	}

	report := BuildReport(snap, allTime(), testLogger())

	require.Len(t, report.Conditions, 4)
	top := report.Conditions[0]
	assert.Equal(t, domain.ConditionNewSealed, top.Condition)
	assert.Equal(t, 2, top.TotalCount)
	assert.Equal(t, 1, top.SoldCount)
	assert.InDelta(t, 50.0, top.SellThroughPct, 1e-9)

	for _, stat := range report.Conditions[1:] {
		assert.Zero(t, stat.TotalCount)
		assert.Zero(t, stat.SellThroughPct, "empty bucket reports 0, not NaN")
	}
}

func TestBuildReport_margin_and_totals(t *testing.T) {
	item := testItem("Margin set", func(i *domain.InventoryItem) {
		i.PurchaseCost = money("20.00")
		i.MaterialCost = money("2.00")
	})
	sale := testSale(item.ID, "2025-02-10", "45.00", func(s *domain.SaleRecord) {
		s.ShippingCharged = money("5.00")
		s.ShippingPaid = money("4.00")
		s.Fees = money("1.00")
	})
	snap := Snapshot{
		Items:    []domain.InventoryItem{item},
		Sales:    []domain.SaleRecord{sale},
		Expenses: []domain.ExpenseRecord{expense("2025-02-01", "Postage", "10.00")},
	}

	report := BuildReport(snap, allTime(), testLogger())

	assert.True(t, report.Summary.TotalRevenue.Equal(money("50.00")))
	assert.True(t, report.Summary.TotalDirectCost.Equal(money("27.00")))
	assert.True(t, report.Summary.TotalAllocatedCost.Equal(money("10.00")))
	assert.True(t, report.Summary.NetProfit.Equal(money("13.00")))
	assert.InDelta(t, 26.0, report.Summary.MarginPct, 1e-9)
}

func TestBuildReport_unallocated_overhead_surfaces_in_summary(t *testing.T) {
	item := testItem("Lonely")
	snap := Snapshot{
		Items:    []domain.InventoryItem{item},
		Sales:    []domain.SaleRecord{testSale(item.ID, "2025-06-01", "40.00")},
		Expenses: []domain.ExpenseRecord{expense("2025-01-15", "Storage rent", "30.00")},
	}

	report := BuildReport(snap, allTime(), testLogger())

	assert.True(t, report.Summary.UnallocatedOverhead.Other.Equal(money("30.00")))
	assert.True(t, report.Summary.TotalAllocatedCost.IsZero(),
		"unallocated overhead must not silently reduce profit")
	assert.True(t, report.Summary.ExpenseBuckets.Total().Equal(money("30.00")))
}

func TestBuildReport_average_days_to_sell(t *testing.T) {
	fast := testItem("Fast", func(i *domain.InventoryItem) { i.PurchaseDate = mustDate("2025-01-01") })
	slow := testItem("Slow", func(i *domain.InventoryItem) { i.PurchaseDate = mustDate("2025-01-01") })
	undated := testItem("Undated purchase")
	snap := Snapshot{
		Items: []domain.InventoryItem{fast, slow, undated},
		Sales: []domain.SaleRecord{
			testSale(fast.ID, "2025-01-11", "10.00"),  // 10 days
			testSale(slow.ID, "2025-01-31", "10.00"),  // 30 days
			testSale(undated.ID, "2025-02-01", "10.00"), // no sample
		},
	}

	report := BuildReport(snap, allTime(), testLogger())

	assert.InDelta(t, 20.0, report.Summary.AvgDaysToSell, 1e-9,
		"only sales with both dates contribute")
}

func TestBuildReport_is_idempotent(t *testing.T) {
	item := testItem("Stable")
	snap := Snapshot{
		Items:    []domain.InventoryItem{item},
		Sales:    []domain.SaleRecord{testSale(item.ID, "2025-03-03", "33.00")},
		Expenses: []domain.ExpenseRecord{expense("2025-03-01", "Tape", "2.00")},
	}
	scope := allTime()

	first := BuildReport(snap, scope, testLogger())
	for i := 0; i < 5; i++ {
		again := BuildReport(snap, scope, testLogger())
		assert.True(t, first.Summary.NetProfit.Equal(again.Summary.NetProfit))
		assert.Equal(t, first.Monthly, again.Monthly)
	}
}
