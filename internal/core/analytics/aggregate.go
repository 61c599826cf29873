// internal/core/analytics/aggregate.go

package analytics

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// TopN is how many entries a breakdown surfaces; the full map is retained
// for callers that need the tail.
const TopN = 10

// MonthlyPoint is one month of the revenue/profit series. The series is
// sparse: months with no sales are simply absent.
type MonthlyPoint struct {
	Month     string          `json:"month"` // "2006-01"
	Revenue   decimal.Decimal `json:"revenue"`
	NetProfit decimal.Decimal `json:"netProfit"`
	SaleCount int             `json:"saleCount"`
}

// BreakdownEntry aggregates sales sharing one label (marketplace, batch,
// or buyer).
type BreakdownEntry struct {
	Label     string          `json:"label"`
	Revenue   decimal.Decimal `json:"revenue"`
	NetProfit decimal.Decimal `json:"netProfit"`
	SaleCount int             `json:"saleCount"`
}

// Breakdown carries the top entries by net profit plus the complete map.
type Breakdown struct {
	Top []BreakdownEntry          `json:"top"`
	All map[string]BreakdownEntry `json:"-"`
}

// ConditionStat reports sell-through for one condition bucket. All four
// buckets are always present, so chart axes stay fixed.
type ConditionStat struct {
	Condition      domain.ItemCondition `json:"condition"`
	TotalCount     int                  `json:"totalCount"`
	SoldCount      int                  `json:"soldCount"`
	Revenue        decimal.Decimal      `json:"revenue"`
	NetProfit      decimal.Decimal      `json:"netProfit"`
	SellThroughPct float64              `json:"sellThroughPct"`
}

// Summary holds the headline KPIs for the scoped window.
type Summary struct {
	TotalRevenue       decimal.Decimal `json:"totalRevenue"`
	TotalDirectCost    decimal.Decimal `json:"totalDirectCost"`
	TotalAllocatedCost decimal.Decimal `json:"totalAllocatedCost"`
	NetProfit          decimal.Decimal `json:"netProfit"`
	MarginPct          float64         `json:"marginPct"`

	SoldCount      int     `json:"soldCount"`
	UnsoldCount    int     `json:"unsoldCount"`
	TradedCount    int     `json:"tradedCount"`
	SellThroughPct float64 `json:"sellThroughPct"`
	AvgDaysToSell  float64 `json:"avgDaysToSell"`

	InvestedUnsold decimal.Decimal `json:"investedUnsold"`

	ExpenseBuckets      Overhead `json:"expenseBuckets"`
	UnallocatedOverhead Overhead `json:"unallocatedOverhead"`

	// SkippedSales counts sale records dropped for referencing a missing
	// item. Nonzero means the underlying data needs attention.
	SkippedSales int `json:"skippedSales,omitempty"`
	// StatusConflicts counts items marked sold with no sale record on
	// file; they are left out of sold and sell-through figures.
	StatusConflicts int `json:"statusConflicts,omitempty"`
}

// Report is the full analytics payload for one scope.
type Report struct {
	Scope         StatsScope      `json:"scope"`
	Summary       Summary         `json:"summary"`
	Monthly       []MonthlyPoint  `json:"monthly"`
	ByMarketplace Breakdown       `json:"byMarketplace"`
	ByBatch       Breakdown       `json:"byBatch"`
	ByBuyer       Breakdown       `json:"byBuyer"`
	Conditions    []ConditionStat `json:"conditions"`
}

// BuildReport computes the complete report for a snapshot under a scope.
// The computation is deterministic: the same snapshot and scope always
// produce the same report.
func BuildReport(snap Snapshot, scope StatsScope, logger *slog.Logger) Report {
	scoped := scope.Apply(snap)
	joined, skipped := scoped.JoinSales(logger)
	alloc := Allocate(joined, scoped.Expenses)

	report := Report{Scope: scope}
	report.Summary.ExpenseBuckets = alloc.BucketTotals
	report.Summary.UnallocatedOverhead = alloc.Unallocated
	report.Summary.SkippedSales = skipped

	monthly := make(map[string]*MonthlyPoint)
	marketplace := newBreakdownBuilder()
	batch := newBreakdownBuilder()
	buyer := newBreakdownBuilder()

	conditionStats := make(map[domain.ItemCondition]*ConditionStat, len(domain.ConditionOrder))
	for _, cond := range domain.ConditionOrder {
		conditionStats[cond] = &ConditionStat{Condition: cond}
	}
	conditionFor := func(c domain.ItemCondition) *ConditionStat {
		if stat, ok := conditionStats[c]; ok {
			return stat
		}
		return conditionStats[domain.ConditionUsedIncomplete]
	}

	daysTotal := 0
	daysSamples := 0

	for _, js := range joined {
		econ := ComputeSaleEconomics(js.Item, js.Sale, alloc.OverheadFor(js.Sale.ID))

		report.Summary.TotalRevenue = report.Summary.TotalRevenue.Add(econ.Revenue)
		report.Summary.TotalDirectCost = report.Summary.TotalDirectCost.Add(econ.DirectCost)
		report.Summary.TotalAllocatedCost = report.Summary.TotalAllocatedCost.Add(econ.AllocatedCost)
		report.Summary.NetProfit = report.Summary.NetProfit.Add(econ.NetProfit)

		if !js.Sale.SaleDate.IsZero() {
			key := js.Sale.SaleDate.MonthKey()
			point, ok := monthly[key]
			if !ok {
				point = &MonthlyPoint{Month: key}
				monthly[key] = point
			}
			point.Revenue = point.Revenue.Add(econ.Revenue)
			point.NetProfit = point.NetProfit.Add(econ.NetProfit)
			point.SaleCount++
		}

		marketplace.observe(js.Sale.MarketplaceLabel(), econ)
		batch.observe(js.Item.BatchLabel(), econ)
		buyer.observe(js.Sale.BuyerLabel(), econ)

		stat := conditionFor(js.Item.Condition)
		stat.Revenue = stat.Revenue.Add(econ.Revenue)
		stat.NetProfit = stat.NetProfit.Add(econ.NetProfit)

		if days, ok := DaysToSell(js.Item, js.Sale); ok {
			daysTotal += days
			daysSamples++
		}
	}

	// Checked against the full snapshot, not the scoped one: a sale outside
	// the date window still proves the sold status is consistent.
	saleOnFile := snap.SaleByItem()

	for _, item := range scoped.Items {
		stat := conditionFor(item.Condition)
		switch item.Status {
		case domain.StatusSold:
			if _, ok := saleOnFile[item.ID]; !ok {
				report.Summary.StatusConflicts++
				if logger != nil {
					logger.Warn("item marked sold has no sale record",
						slog.String("item_id", item.ID.String()),
						slog.String("name", item.Name))
				}
				break
			}
			report.Summary.SoldCount++
			stat.TotalCount++
			stat.SoldCount++
		case domain.StatusTraded:
			report.Summary.TradedCount++
		default:
			report.Summary.UnsoldCount++
			stat.TotalCount++
			report.Summary.InvestedUnsold = report.Summary.InvestedUnsold.Add(item.AcquisitionCost())
		}
	}

	report.Summary.MarginPct = pct(report.Summary.NetProfit, report.Summary.TotalRevenue)
	report.Summary.SellThroughPct = ratioPct(report.Summary.SoldCount,
		report.Summary.SoldCount+report.Summary.UnsoldCount)
	if daysSamples > 0 {
		report.Summary.AvgDaysToSell = float64(daysTotal) / float64(daysSamples)
	}

	report.Monthly = sortedMonthly(monthly)
	report.ByMarketplace = marketplace.build()
	report.ByBatch = batch.build()
	report.ByBuyer = buyer.build()

	report.Conditions = make([]ConditionStat, 0, len(domain.ConditionOrder))
	for _, cond := range domain.ConditionOrder {
		stat := conditionStats[cond]
		stat.SellThroughPct = ratioPct(stat.SoldCount, stat.TotalCount)
		report.Conditions = append(report.Conditions, *stat)
	}

	return report
}

// pct returns part/whole as a percentage, zero when whole is zero.
func pct(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	f, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Float64()
	return f
}

func ratioPct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

func sortedMonthly(points map[string]*MonthlyPoint) []MonthlyPoint {
	out := make([]MonthlyPoint, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// breakdownBuilder accumulates per-label totals, remembering first-seen
// order so ties in the final sort resolve deterministically.
type breakdownBuilder struct {
	entries map[string]*BreakdownEntry
	order   []string
}

func newBreakdownBuilder() *breakdownBuilder {
	return &breakdownBuilder{entries: make(map[string]*BreakdownEntry)}
}

func (b *breakdownBuilder) observe(label string, econ SaleEconomics) {
	entry, ok := b.entries[label]
	if !ok {
		entry = &BreakdownEntry{Label: label}
		b.entries[label] = entry
		b.order = append(b.order, label)
	}
	entry.Revenue = entry.Revenue.Add(econ.Revenue)
	entry.NetProfit = entry.NetProfit.Add(econ.NetProfit)
	entry.SaleCount++
}

func (b *breakdownBuilder) build() Breakdown {
	all := make(map[string]BreakdownEntry, len(b.entries))
	top := make([]BreakdownEntry, 0, len(b.order))
	for _, label := range b.order {
		entry := *b.entries[label]
		all[label] = entry
		top = append(top, entry)
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].NetProfit.GreaterThan(top[j].NetProfit)
	})
	if len(top) > TopN {
		top = top[:TopN]
	}
	return Breakdown{Top: top, All: all}
}
