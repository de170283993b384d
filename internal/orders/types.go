package orders

import (
	"time"

	"github.com/mammadovafidan/fruits-e-commerce-website/internal/aws"
	"github.com/shopspring/decimal"
)

// StatusPending is the only status this service writes.
const StatusPending = "pending"

// LineItem is the snapshot of one cart line stored with the order. Name and
// UnitPrice come from the catalog; the Submitted fields keep what the shopper
// sent, for the record only.
type LineItem struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"price_per_kg"`
	LineTotal      decimal.Decimal `json:"line_total"`
	SubmittedName  string          `json:"submitted_name,omitempty"`
	SubmittedPrice decimal.Decimal `json:"submitted_price_per_kg"`
}

// Order is a placed order. TotalPrice is always computed server side.
type Order struct {
	OrderID    string          `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Details    []LineItem      `json:"order_details"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Kilograms returns the summed quantity over all lines.
func (o Order) Kilograms() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.Details {
		total = total.Add(li.Quantity)
	}
	return total
}

// orderRecord is the shape persisted in the orders DynamoDB table.
type orderRecord struct {
	OrderID    string       `dynamodbav:"order_id"` // PK
	UserID     string       `dynamodbav:"user_id"`
	TotalPrice aws.Decimal  `dynamodbav:"total_price"`
	Details    []lineRecord `dynamodbav:"order_details"`
	Status     string       `dynamodbav:"status"`
	CreatedAt  time.Time    `dynamodbav:"created_at"`
}

type lineRecord struct {
	ProductID      string      `dynamodbav:"product_id"`
	Name           string      `dynamodbav:"name"`
	Quantity       aws.Decimal `dynamodbav:"quantity"`
	UnitPrice      aws.Decimal `dynamodbav:"price_per_kg"`
	LineTotal      aws.Decimal `dynamodbav:"line_total"`
	SubmittedName  string      `dynamodbav:"submitted_name,omitempty"`
	SubmittedPrice aws.Decimal `dynamodbav:"submitted_price_per_kg"`
}

func toRecord(o Order) orderRecord {
	rec := orderRecord{
		OrderID:    o.OrderID,
		UserID:     o.UserID,
		TotalPrice: aws.NewDecimal(o.TotalPrice),
		Status:     o.Status,
		CreatedAt:  o.CreatedAt.UTC(),
		Details:    make([]lineRecord, 0, len(o.Details)),
	}
	for _, li := range o.Details {
		rec.Details = append(rec.Details, lineRecord{
			ProductID:      li.ProductID,
			Name:           li.Name,
			Quantity:       aws.NewDecimal(li.Quantity),
			UnitPrice:      aws.NewDecimal(li.UnitPrice),
			LineTotal:      aws.NewDecimal(li.LineTotal),
			SubmittedName:  li.SubmittedName,
			SubmittedPrice: aws.NewDecimal(li.SubmittedPrice),
		})
	}
	return rec
}

func (r orderRecord) toOrder() Order {
	o := Order{
		OrderID:    r.OrderID,
		UserID:     r.UserID,
		TotalPrice: r.TotalPrice.Decimal,
		Status:     r.Status,
		CreatedAt:  r.CreatedAt,
		Details:    make([]LineItem, 0, len(r.Details)),
	}
	for _, li := range r.Details {
		o.Details = append(o.Details, LineItem{
			ProductID:      li.ProductID,
			Name:           li.Name,
			Quantity:       li.Quantity.Decimal,
			UnitPrice:      li.UnitPrice.Decimal,
			LineTotal:      li.LineTotal.Decimal,
			SubmittedName:  li.SubmittedName,
			SubmittedPrice: li.SubmittedPrice.Decimal,
		})
	}
	return o
}
