package catalog

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category is referenced by products")
)

// Product is the authoritative catalog record. IDs are the decimal form of
// the bigint key.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
	StockKg     decimal.Decimal `json:"stock_kg"`
	ImageURL    string          `json:"image_url"`
	CategoryID  *string         `json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Description string
	PricePerKg  decimal.Decimal
	StockKg     decimal.Decimal
	ImageURL    string
	CategoryID  *string
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string
	Description *string
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseIDs converts ids to keys, skipping anything that is not a positive
// integer and collapsing duplicates.
func parseIDs(ids []string) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		n, ok := parseID(id)
		if !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func formatID(n int64) string { return strconv.FormatInt(n, 10) }
