// internal/core/analytics/profit_test.go

package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bruizy/lego-flip-tracker/internal/core/domain"
)

func TestComputeSaleEconomics(t *testing.T) {
	item := testItem("Modular building", func(i *domain.InventoryItem) {
		i.PurchaseCost = money("20.00")
		i.MaterialCost = money("2.00")
	})
	sale := testSale(item.ID, "2025-02-10", "45.00", func(s *domain.SaleRecord) {
		s.ShippingCharged = money("5.00")
		s.ShippingPaid = money("4.00")
		s.Fees = money("1.00")
	})
	overhead := Overhead{Shipping: money("10.00")}

	econ := ComputeSaleEconomics(item, sale, overhead)

	assert.True(t, econ.Revenue.Equal(money("50.00")), "revenue = price + shipping charged")
	assert.True(t, econ.DirectCost.Equal(money("27.00")), "direct = purchase + material + shipping paid + fees")
	assert.True(t, econ.AllocatedCost.Equal(money("10.00")))
	assert.True(t, econ.NetProfit.Equal(money("13.00")))
}

func TestComputeSaleEconomics_identity_holds(t *testing.T) {
	cases := []struct {
		name     string
		purchase string
		price    string
		overhead string
	}{
		{"profitable", "10.00", "50.00", "2.00"},
		{"loss", "80.00", "50.00", "2.00"},
		{"free_item", "0.00", "25.00", "0.00"},
		{"zero_sale", "10.00", "0.00", "1.50"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := testItem("Set", func(i *domain.InventoryItem) {
				i.PurchaseCost = money(tc.purchase)
			})
			sale := testSale(item.ID, "2025-01-01", tc.price)
			econ := ComputeSaleEconomics(item, sale, Overhead{Other: money(tc.overhead)})

			recomputed := econ.Revenue.Sub(econ.DirectCost).Sub(econ.AllocatedCost)
			assert.True(t, econ.NetProfit.Equal(recomputed))
		})
	}
}

func TestDaysToSell(t *testing.T) {
	cases := []struct {
		name     string
		bought   string
		sold     string
		want     int
		haveBoth bool
	}{
		{"normal", "2025-01-01", "2025-01-31", 30, true},
		{"same_day", "2025-03-15", "2025-03-15", 0, true},
		{"backdated_purchase_clamps_to_zero", "2025-06-01", "2025-05-20", 0, true},
		{"missing_purchase_date", "", "2025-05-20", 0, false},
		{"missing_sale_date", "2025-05-20", "", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item := testItem("Timed", func(i *domain.InventoryItem) {
				i.PurchaseDate = mustDate(tc.bought)
			})
			sale := testSale(item.ID, tc.sold, "10.00")

			days, ok := DaysToSell(item, sale)
			assert.Equal(t, tc.haveBoth, ok)
			assert.Equal(t, tc.want, days)
		})
	}
}
