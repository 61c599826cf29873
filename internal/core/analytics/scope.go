// internal/core/analytics/scope.go

package analytics

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// DateRange selects the reporting window for stats computations.
type DateRange string

const (
	RangeAll        DateRange = "all"
	Range30Days     DateRange = "30d"
	Range90Days     DateRange = "90d"
	RangeYearToDate DateRange = "ytd"
)

// ParseDateRange maps a query-string value to a range, defaulting to all.
func ParseDateRange(s string) DateRange {
	switch DateRange(strings.ToLower(strings.TrimSpace(s))) {
	case Range30Days:
		return Range30Days
	case Range90Days:
		return Range90Days
	case RangeYearToDate:
		return RangeYearToDate
	default:
		return RangeAll
	}
}

// StatsScope narrows a snapshot before report computation. It is independent
// of InventoryFilter: the two never mix.
type StatsScope struct {
	DateRange DateRange `json:"dateRange"`
	Batch     string    `json:"batch"`
	// Today anchors relative ranges so results are reproducible in tests.
	// Zero value means domain.Today() at evaluation time.
	Today domain.Date `json:"-"`
}

func (sc StatsScope) today() domain.Date {
	if sc.Today.IsZero() {
		return domain.Today()
	}
	return sc.Today
}

// cutoff returns the inclusive lower bound of the window, or ok=false when
// the scope covers all time.
func (sc StatsScope) cutoff() (domain.Date, bool) {
	today := sc.today()
	switch sc.DateRange {
	case Range30Days:
		return today.AddDays(-30), true
	case Range90Days:
		return today.AddDays(-90), true
	case RangeYearToDate:
		return domain.NewDate(today.Year(), 1, 1), true
	default:
		return domain.Date{}, false
	}
}

// inWindow reports whether d falls inside the scope's date window. Records
// with an absent date are excluded from any bounded window.
func (sc StatsScope) inWindow(d domain.Date) bool {
	from, bounded := sc.cutoff()
	if !bounded {
		return true
	}
	if d.IsZero() {
		return false
	}
	return !d.Before(from) && !d.After(sc.today())
}

func (sc StatsScope) matchesBatch(batch string) bool {
	if sc.Batch == "" || strings.EqualFold(sc.Batch, "all") {
		return true
	}
	if batch == "" {
		batch = domain.BatchNone
	}
	return strings.EqualFold(batch, sc.Batch)
}

// Apply narrows the snapshot to the scope. Items are restricted by batch;
// sales follow their item's batch and must fall inside the date window;
// expenses are restricted by the date window only, since they carry no batch.
// A sale whose item is absent from the snapshot entirely is kept, so the
// join step downstream can count and log it instead of losing the signal.
func (sc StatsScope) Apply(snap Snapshot) Snapshot {
	out := Snapshot{}

	known := make(map[uuid.UUID]bool, len(snap.Items))
	keep := make(map[uuid.UUID]bool, len(snap.Items))
	for _, item := range snap.Items {
		known[item.ID] = true
		if sc.matchesBatch(item.Batch) {
			out.Items = append(out.Items, item)
			keep[item.ID] = true
		}
	}

	for _, sale := range snap.Sales {
		if known[sale.ItemID] && !keep[sale.ItemID] {
			continue
		}
		if !sc.inWindow(sale.SaleDate) {
			continue
		}
		out.Sales = append(out.Sales, sale)
	}

	for _, exp := range snap.Expenses {
		if sc.inWindow(exp.Date) {
			out.Expenses = append(out.Expenses, exp)
		}
	}

	return out
}

// InventoryFilter narrows the item list for browsing. Empty or "all" fields
// are no-ops; the predicates apply in a fixed order so results are stable.
type InventoryFilter struct {
	Status    string `json:"status"`
	Condition string `json:"condition"`
	Batch     string `json:"batch"`
	Search    string `json:"search"`
}

func filterActive(v string) bool {
	return v != "" && !strings.EqualFold(v, "all")
}

// Apply returns the items matching the filter, preserving input order. The
// search term also matches fields of an item's sale, so a buyer name finds
// the item that was sold to them.
func (f InventoryFilter) Apply(snap Snapshot) []domain.InventoryItem {
	sales := snap.SaleByItem()
	needle := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]domain.InventoryItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		if filterActive(f.Status) && !strings.EqualFold(string(item.Status), f.Status) {
			continue
		}
		if filterActive(f.Condition) && !strings.EqualFold(string(item.Condition), f.Condition) {
			continue
		}
		if filterActive(f.Batch) && !strings.EqualFold(item.BatchLabel(), f.Batch) {
			continue
		}
		if needle != "" && !matchesSearch(item, sales, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesSearch(item domain.InventoryItem, sales map[uuid.UUID]domain.SaleRecord, needle string) bool {
	fields := []string{
		item.Name,
		item.SetNumber,
		item.BatchLabel(),
		item.BoughtFrom,
		item.Notes,
	}
	if sale, ok := sales[item.ID]; ok {
		fields = append(fields, sale.MarketplaceLabel(), sale.BuyerLabel(), sale.Notes)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}
