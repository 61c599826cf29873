// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRecord represents the sale of exactly one inventory item. At most one
// sale may exist per item; the service layer and a unique index on item_id
// both enforce this.
type SaleRecord struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	SaleDate        Date            `json:"sale_date"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	ShippingCharged decimal.Decimal `json:"shipping_charged"`
	ShippingPaid    decimal.Decimal `json:"shipping_paid"`
	Fees            decimal.Decimal `json:"fees"`
	Marketplace     string          `json:"marketplace,omitempty"`
	Buyer           string          `json:"buyer,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the sale record
func (s *SaleRecord) Validate() error {
	if s.ItemID == uuid.Nil {
		return fmt.Errorf("item_id is required")
	}
	if s.SalePrice.IsNegative() {
		return fmt.Errorf("sale_price cannot be negative")
	}
	if s.ShippingCharged.IsNegative() {
		return fmt.Errorf("shipping_charged cannot be negative")
	}
	if s.ShippingPaid.IsNegative() {
		return fmt.Errorf("shipping_paid cannot be negative")
	}
	if s.Fees.IsNegative() {
		return fmt.Errorf("fees cannot be negative")
	}
	return nil
}

// Revenue returns the gross proceeds: sale price plus any shipping charged
// to the buyer. Shipping charged counts toward revenue, never as a cost
// offset.
func (s *SaleRecord) Revenue() decimal.Decimal {
	return s.SalePrice.Add(s.ShippingCharged)
}

// FulfillmentCost returns the costs incurred to complete the sale: shipping
// paid by the seller plus marketplace fees.
func (s *SaleRecord) FulfillmentCost() decimal.Decimal {
	return s.ShippingPaid.Add(s.Fees)
}

// MarketplaceLabel returns the marketplace, or "Unknown" when blank.
func (s *SaleRecord) MarketplaceLabel() string {
	if s.Marketplace == "" {
		return "Unknown"
	}
	return s.Marketplace
}

// BuyerLabel returns the buyer, or "Unknown" when blank.
func (s *SaleRecord) BuyerLabel() string {
	if s.Buyer == "" {
		return "Unknown"
	}
	return s.Buyer
}

// PrepareForStorage prepares the sale for database storage
func (s *SaleRecord) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
