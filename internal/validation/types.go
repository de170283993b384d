package validation

import (
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/cart"
	"github.com/shopspring/decimal"
)

// CheckoutProduct is the client product snapshot inside a checkout line.
// Only the id is trusted, and only as a lookup key.
type CheckoutProduct struct {
	ID         cart.ProductID  `json:"id" validate:"required"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	PricePerKg decimal.Decimal `json:"price_per_kg"`
}

// CheckoutLine is one entry of the submitted cart snapshot.
type CheckoutLine struct {
	Product  *CheckoutProduct `json:"product" validate:"required"`
	Quantity decimal.Decimal  `json:"quantity"` // checked by checkoutLineStructValidation
}

// DisplayName is the client supplied name, falling back to the id.
func (l CheckoutLine) DisplayName() string {
	if l.Product == nil {
		return ""
	}
	if l.Product.Name != "" {
		return l.Product.Name
	}
	return string(l.Product.ID)
}

// ProductRequest is the admin payload for creating or replacing a product.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	PricePerKg  *decimal.Decimal `json:"price_per_kg" validate:"required,gte=0"`
	StockKg     *decimal.Decimal `json:"stock_kg" validate:"omitempty,gte=0"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,catalog_id"`
}

// CategoryRequest is the admin payload for creating or renaming a category.
type CategoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

// CartProduct is the product snapshot stored in a cart line. Its price is only
// shown to the shopper, but a negative one would never survive a reload.
type CartProduct struct {
	ID         cart.ProductID  `json:"id" validate:"required"`
	Name       string          `json:"name"`
	ImageURL   string          `json:"image_url"`
	PricePerKg decimal.Decimal `json:"price_per_kg" validate:"gte=0"`
}

// CartItemRequest adds one product to the session cart.
type CartItemRequest struct {
	Product *CartProduct `json:"product" validate:"required"`
}

// QuantityRequest sets a cart line quantity; zero or less removes the line.
type QuantityRequest struct {
	Quantity *decimal.Decimal `json:"quantity" validate:"required"`
}
