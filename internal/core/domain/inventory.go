// internal/core/domain/inventory.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCondition represents the condition of a set
type ItemCondition string

// Condition constants. Exactly these four values are stored; anything else
// normalizes to ConditionUsedIncomplete.
const (
	ConditionNewSealed      ItemCondition = "new_sealed"
	ConditionNewOpenBox     ItemCondition = "new_open_box"
	ConditionUsedComplete   ItemCondition = "used_complete"
	ConditionUsedIncomplete ItemCondition = "used_incomplete"
)

// ConditionOrder is the fixed reporting order for condition breakdowns.
var ConditionOrder = [4]ItemCondition{
	ConditionNewSealed,
	ConditionNewOpenBox,
	ConditionUsedComplete,
	ConditionUsedIncomplete,
}

// ItemStatus represents the lifecycle state of an inventory item
type ItemStatus string

// Status constants
const (
	StatusInStock ItemStatus = "in_stock"
	StatusSold    ItemStatus = "sold"
	StatusTraded  ItemStatus = "traded"
)

// BatchNone is the reporting label for items without a batch tag.
const BatchNone = "No Batch"

// InventoryItem represents a single purchased set
type InventoryItem struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	SetNumber     string          `json:"set_number,omitempty"`
	ImageURL      string          `json:"image_url,omitempty"`
	PurchaseDate  Date            `json:"purchase_date"`
	PurchaseCost  decimal.Decimal `json:"purchase_cost"`
	MaterialCost  decimal.Decimal `json:"material_cost"`
	Condition     ItemCondition   `json:"condition"`
	Batch         string          `json:"batch,omitempty"`
	BoughtFrom    string          `json:"bought_from,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	HasBox        bool            `json:"has_box"`
	HasManual     bool            `json:"has_manual"`
	Status        ItemStatus      `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the inventory item
func (i *InventoryItem) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("name is required")
	}
	if i.PurchaseCost.IsNegative() {
		return fmt.Errorf("purchase_cost cannot be negative")
	}
	if i.MaterialCost.IsNegative() {
		return fmt.Errorf("material_cost cannot be negative")
	}
	if i.Condition == "" {
		i.Condition = ConditionUsedIncomplete
	}
	if !ValidCondition(i.Condition) {
		return fmt.Errorf("unknown condition: %s", i.Condition)
	}
	if i.Status == "" {
		i.Status = StatusInStock
	}
	if !ValidStatus(i.Status) {
		return fmt.Errorf("unknown status: %s", i.Status)
	}
	return nil
}

// AcquisitionCost returns purchase cost plus incidental material cost.
func (i *InventoryItem) AcquisitionCost() decimal.Decimal {
	return i.PurchaseCost.Add(i.MaterialCost)
}

// BatchLabel returns the batch tag, or BatchNone for untagged items.
func (i *InventoryItem) BatchLabel() string {
	if i.Batch == "" {
		return BatchNone
	}
	return i.Batch
}

// PrepareForStorage prepares the item for database storage
func (i *InventoryItem) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	now := time.Now()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now

	if i.Condition == "" {
		i.Condition = ConditionUsedIncomplete
	}
	if i.Status == "" {
		i.Status = StatusInStock
	}
}

// ValidCondition reports whether c is one of the four canonical conditions.
func ValidCondition(c ItemCondition) bool {
	switch c {
	case ConditionNewSealed, ConditionNewOpenBox, ConditionUsedComplete, ConditionUsedIncomplete:
		return true
	}
	return false
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s ItemStatus) bool {
	switch s {
	case StatusInStock, StatusSold, StatusTraded:
		return true
	}
	return false
}
