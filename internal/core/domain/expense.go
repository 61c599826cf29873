// internal/core/domain/expense.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostBucket classifies shared expenses for allocation
type CostBucket string

// Bucket constants
const (
	BucketMaterial CostBucket = "material"
	BucketShipping CostBucket = "shipping"
	BucketOther    CostBucket = "other"
)

// BucketOrder is the fixed reporting order for cost buckets.
var BucketOrder = [3]CostBucket{BucketMaterial, BucketShipping, BucketOther}

// shippingKeywords and materialKeywords drive the category-to-bucket match.
// Matching is case-insensitive substring; anything unmatched is "other".
var (
	shippingKeywords = []string{"shipping", "postage", "label", "carrier", "stamps"}
	materialKeywords = []string{"material", "supplies", "boxes", "bubble", "tape", "packaging", "mailer"}
)

// ExpenseRecord represents shared overhead for a period. Expenses are never
// tied to a specific inventory item; the allocator apportions them across
// sales.
type ExpenseRecord struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      Date            `json:"date"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate performs domain validation on the expense record
func (e *ExpenseRecord) Validate() error {
	if !e.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

// Bucket maps the free-text category onto one of the three cost buckets.
func (e *ExpenseRecord) Bucket() CostBucket {
	return BucketForCategory(e.Category)
}

// PrepareForStorage prepares the expense for database storage
func (e *ExpenseRecord) PrepareForStorage() {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

// BucketForCategory maps a free-text expense category to a cost bucket by
// keyword match, defaulting to BucketOther.
func BucketForCategory(category string) CostBucket {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return BucketOther
	}

	for _, kw := range shippingKeywords {
		if strings.Contains(c, kw) {
			return BucketShipping
		}
	}
	for _, kw := range materialKeywords {
		if strings.Contains(c, kw) {
			return BucketMaterial
		}
	}
	return BucketOther
}
