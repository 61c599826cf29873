// internal/core/analytics/profit.go

package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

// SaleEconomics breaks a single sale down into the profit components the
// dashboard reports. The identity netProfit = revenue - directCost -
// allocatedCost holds exactly; nothing is rounded here.
type SaleEconomics struct {
	Revenue       decimal.Decimal `json:"revenue"`
	DirectCost    decimal.Decimal `json:"directCost"`
	AllocatedCost decimal.Decimal `json:"allocatedCost"`
	NetProfit     decimal.Decimal `json:"netProfit"`
}

// ComputeSaleEconomics derives the per-sale profit figures.
//
//	revenue    = salePrice + shippingCharged
//	directCost = purchaseCost + materialCost + shippingPaid + fees
func ComputeSaleEconomics(item domain.InventoryItem, sale domain.SaleRecord, overhead Overhead) SaleEconomics {
	revenue := sale.Revenue()
	direct := item.AcquisitionCost().Add(sale.FulfillmentCost())
	allocated := overhead.Total()

	return SaleEconomics{
		Revenue:       revenue,
		DirectCost:    direct,
		AllocatedCost: allocated,
		NetProfit:     revenue.Sub(direct).Sub(allocated),
	}
}

// DaysToSell returns the whole days between purchase and sale, clamped to
// zero so backdated purchase entries cannot drag averages negative. The
// second return is false when either date is absent.
func DaysToSell(item domain.InventoryItem, sale domain.SaleRecord) (int, bool) {
	if item.PurchaseDate.IsZero() || sale.SaleDate.IsZero() {
		return 0, false
	}
	days := sale.SaleDate.DaysSince(item.PurchaseDate)
	if days < 0 {
		days = 0
	}
	return days, true
}
