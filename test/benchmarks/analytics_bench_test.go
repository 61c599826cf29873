package benchmarks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/core/analytics"
	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
	"github.com/Bruizy/lego-flip-tracker/internal/workers"
	"github.com/Bruizy/lego-flip-tracker/test/helpers"
)

// buildSnapshot creates a snapshot with n items, half of them sold, and a
// spread of expenses across the sale months.
func buildSnapshot(n int) analytics.Snapshot {
	today := domain.Today()
	snap := analytics.Snapshot{
		Items:    make([]domain.InventoryItem, 0, n),
		Sales:    make([]domain.SaleRecord, 0, n/2),
		Expenses: make([]domain.ExpenseRecord, 0, 24),
	}

	for i := 0; i < n; i++ {
		item := domain.InventoryItem{
			ID:           uuid.New(),
			Name:         fmt.Sprintf("Set %d", i),
			PurchaseDate: today.AddDays(-365 + i%300),
			PurchaseCost: decimal.NewFromInt(int64(20 + i%200)),
			Condition:    domain.ConditionOrder[i%len(domain.ConditionOrder)],
			Batch:        fmt.Sprintf("Batch %d", i%12),
			Status:       domain.StatusInStock,
		}

		if i%2 == 0 {
			item.Status = domain.StatusSold
			snap.Sales = append(snap.Sales, domain.SaleRecord{
				ID:          uuid.New(),
				ItemID:      item.ID,
				SaleDate:    today.AddDays(-300 + i%280),
				SalePrice:   item.PurchaseCost.Add(decimal.NewFromInt(int64(10 + i%90))),
				Fees:        decimal.NewFromInt(int64(i % 15)),
				Marketplace: []string{"eBay", "BrickLink", "Facebook Marketplace"}[i%3],
			})
		}

		snap.Items = append(snap.Items, item)
	}

	for m := 0; m < 24; m++ {
		snap.Expenses = append(snap.Expenses, domain.ExpenseRecord{
			ID:       uuid.New(),
			Amount:   decimal.NewFromInt(int64(10 + m)),
			Category: []string{"Bubble mailers", "Shipping labels", "Storage bins"}[m%3],
			Date:     today.AddDays(-15 * m),
		})
	}

	return snap
}

func BenchmarkBuildReport(b *testing.B) {
	logger := helpers.TestLogger()

	for _, size := range []int{100, 1000, 10000} {
		snap := buildSnapshot(size)
		b.Run(fmt.Sprintf("items_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = analytics.BuildReport(snap, analytics.StatsScope{DateRange: analytics.RangeAll}, logger)
			}
		})
	}
}

func BenchmarkBuildReport_Scoped(b *testing.B) {
	logger := helpers.TestLogger()
	snap := buildSnapshot(5000)
	scope := analytics.StatsScope{DateRange: analytics.Range90Days, Batch: "Batch 3"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = analytics.BuildReport(snap, scope, logger)
	}
}

func BenchmarkAllocate(b *testing.B) {
	logger := helpers.TestLogger()
	snap := buildSnapshot(5000)
	joined, _ := snap.JoinSales(logger)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = analytics.Allocate(joined, snap.Expenses)
	}
}

func BenchmarkReadRecords(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("name,set_number,purchase_date,purchase_cost,condition,batch\n")
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&sb, "Set %d,%05d,2025-01-%02d,$%d.00,used_complete,Batch %d\n",
			i, i, 1+i%28, 20+i%200, i%12)
	}
	csv := sb.String()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := workers.ReadRecords(strings.NewReader(csv)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkItemFromRecord(b *testing.B) {
	record := domain.RawRecord{
		"name":          "Medieval Blacksmith",
		"set_number":    "21325",
		"purchase_date": "2025-03-01",
		"purchase_cost": "$105.00",
		"condition":     "new sealed",
		"batch":         "Estate Sale",
		"has_box":       "yes",
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = domain.ItemFromRecord(record)
	}
}
