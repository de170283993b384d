package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ProductID is the catalog id as the client knows it. It decodes from a JSON
// string or number so snapshots produced by different clients compare equal.
type ProductID string

// UnmarshalJSON accepts a JSON string, an integer number or null.
func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("product id must be an integer: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

// Product is the catalog snapshot taken when the product was added. Its price
// is for display only and may be stale.
type Product struct {
	ID         ProductID       `json:"id"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
}

// Line is one product and the kilograms requested.
type Line struct {
	Product  Product         `json:"product"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Snapshot is the persisted form of a cart.
type Snapshot struct {
	Items []Line `json:"items"`
}

// TotalQuantity sums the kilograms of every line.
func (s Snapshot) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Items {
		total = total.Add(l.Quantity)
	}
	return total
}

// DisplaySubtotal prices the lines with the client snapshot prices. Never use it for orders.
func (s Snapshot) DisplaySubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Items {
		total = total.Add(l.Product.PricePerKg.Mul(l.Quantity))
	}
	return total
}
