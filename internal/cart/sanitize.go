package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type storedLine struct {
	Product *struct {
		ID         ProductID        `json:"id"`
		Name       string           `json:"name"`
		ImageURL   string           `json:"image_url"`
		PricePerKg *decimal.Decimal `json:"price_per_kg"`
	} `json:"product"`
	Quantity *decimal.Decimal `json:"quantity"`
}

// decodeSnapshot parses a persisted cart, dropping every line that cannot be
// trusted. It also accepts the {"state":{"items":[...]}} envelope older
// clients wrote. The second return value counts dropped lines.
func decodeSnapshot(data []byte) ([]Line, int, error) {
	var doc struct {
		Items []json.RawMessage `json:"items"`
		State *struct {
			Items []json.RawMessage `json:"items"`
		} `json:"state"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode cart: %w", err)
	}
	raw := doc.Items
	if raw == nil && doc.State != nil {
		raw = doc.State.Items
	}

	lines := make([]Line, 0, len(raw))
	seen := make(map[ProductID]struct{}, len(raw))
	dropped := 0
	for _, r := range raw {
		l, ok := sanitizeLine(r)
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[l.Product.ID]; dup {
			dropped++
			continue
		}
		seen[l.Product.ID] = struct{}{}
		lines = append(lines, l)
	}
	return lines, dropped, nil
}

func sanitizeLine(r json.RawMessage) (Line, bool) {
	var sl storedLine
	if err := json.Unmarshal(r, &sl); err != nil {
		return Line{}, false
	}
	if sl.Product == nil || sl.Product.ID == "" {
		return Line{}, false
	}
	if sl.Quantity == nil || !sl.Quantity.IsPositive() {
		return Line{}, false
	}
	price := decimal.Zero
	if sl.Product.PricePerKg != nil {
		if sl.Product.PricePerKg.IsNegative() {
			return Line{}, false
		}
		price = *sl.Product.PricePerKg
	}
	return Line{
		Product: Product{
			ID:         sl.Product.ID,
			Name:       sl.Product.Name,
			ImageURL:   sl.Product.ImageURL,
			PricePerKg: price,
		},
		Quantity: *sl.Quantity,
	}, true
}
