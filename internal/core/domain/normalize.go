// internal/core/domain/normalize.go
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RawRecord is a loosely-typed key-value record as it arrives from a form
// submit or a CSV/JSON import row. Keys are canonical lower_snake field names;
// values are whatever the user typed.
type RawRecord map[string]string

// ParseMoney coerces a currency-like string ("$1,234.50", " 12 ") to a
// decimal amount. Unparseable input yields zero; it never fails.
func ParseMoney(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseMoneyNonNegative is ParseMoney with negative amounts clamped to zero.
// Cost and price fields are non-negative by invariant.
func ParseMoneyNonNegative(s string) decimal.Decimal {
	d := ParseMoney(s)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// NormalizeCondition maps arbitrary user input onto one of the four canonical
// conditions. Unrecognized or blank input falls back to used_incomplete, the
// conservative default.
func NormalizeCondition(s string) ItemCondition {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	switch key {
	case string(ConditionNewSealed), "sealed", "nisb", "misb":
		return ConditionNewSealed
	case string(ConditionNewOpenBox), "open_box", "new_open":
		return ConditionNewOpenBox
	case string(ConditionUsedComplete), "complete":
		return ConditionUsedComplete
	default:
		return ConditionUsedIncomplete
	}
}

// NormalizeStatus maps arbitrary user input onto a lifecycle status,
// defaulting to in_stock.
func NormalizeStatus(s string) ItemStatus {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)

	switch key {
	case string(StatusSold):
		return StatusSold
	case string(StatusTraded), "exchanged", "traded_out":
		return StatusTraded
	default:
		return StatusInStock
	}
}

// NormalizeDate parses a strict YYYY-MM-DD string; anything else is absent.
func NormalizeDate(s string) Date {
	d, err := ParseDate(strings.TrimSpace(s))
	if err != nil {
		return Date{}
	}
	return d
}

// NormalizeBool accepts the usual truthy spellings from forms and CSV cells.
func NormalizeBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// ItemFromRecord builds a canonical InventoryItem from raw input. Every field
// is defined and type-coerced; malformed values are substituted with safe
// defaults, never rejected.
func ItemFromRecord(r RawRecord) InventoryItem {
	item := InventoryItem{
		Name:          strings.TrimSpace(r["name"]),
		SetNumber:     strings.TrimSpace(r["set_number"]),
		ImageURL:      strings.TrimSpace(r["image_url"]),
		PurchaseDate:  NormalizeDate(r["purchase_date"]),
		PurchaseCost:  ParseMoneyNonNegative(r["purchase_cost"]),
		MaterialCost:  ParseMoneyNonNegative(r["material_cost"]),
		Condition:     NormalizeCondition(r["condition"]),
		Batch:         strings.TrimSpace(r["batch"]),
		BoughtFrom:    strings.TrimSpace(r["bought_from"]),
		PaymentMethod: strings.TrimSpace(r["payment_method"]),
		HasBox:        NormalizeBool(r["has_box"]),
		HasManual:     NormalizeBool(r["has_manual"]),
		Status:        NormalizeStatus(r["status"]),
		Notes:         strings.TrimSpace(r["notes"]),
	}
	return item
}

// SaleFromRecord builds a canonical SaleRecord from raw input. The item_id
// foreign reference is left for the caller to resolve.
func SaleFromRecord(r RawRecord) SaleRecord {
	return SaleRecord{
		SaleDate:        NormalizeDate(r["sale_date"]),
		SalePrice:       ParseMoneyNonNegative(r["sale_price"]),
		ShippingCharged: ParseMoneyNonNegative(r["shipping_charged"]),
		ShippingPaid:    ParseMoneyNonNegative(r["shipping_paid"]),
		Fees:            ParseMoneyNonNegative(r["fees"]),
		Marketplace:     strings.TrimSpace(r["marketplace"]),
		Buyer:           strings.TrimSpace(r["buyer"]),
		Notes:           strings.TrimSpace(r["notes"]),
	}
}

// ExpenseFromRecord builds a canonical ExpenseRecord from raw input.
func ExpenseFromRecord(r RawRecord) ExpenseRecord {
	return ExpenseRecord{
		Amount:   ParseMoneyNonNegative(r["amount"]),
		Category: strings.TrimSpace(r["category"]),
		Date:     NormalizeDate(r["date"]),
		Note:     strings.TrimSpace(r["note"]),
	}
}
