// Package checkout turns an untrusted cart snapshot into a price-correct order.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/catalog"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/orders"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/validation"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Catalog returns the still existing products among ids.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
}

// PrincipalResolver returns the authenticated user of the request.
type PrincipalResolver interface {
	Principal(ctx context.Context) (string, error)
}

// OrderWriter persists a new order.
type OrderWriter interface {
	Create(ctx context.Context, o orders.Order) error
}

// Notifier is told about committed orders. Failures never affect the result.
type Notifier interface {
	OrderPlaced(ctx context.Context, o orders.Order) error
}

type Option func(*Validator)

func WithNotifier(n Notifier) Option {
	return func(v *Validator) { v.notifier = n }
}

func WithLogger(log *slog.Logger) Option {
	return func(v *Validator) { v.log = log }
}

// Validator places orders. It holds no per-call state.
type Validator struct {
	catalog    Catalog
	principals PrincipalResolver
	orders     OrderWriter
	notifier   Notifier
	log        *slog.Logger
	validate   *validatorv10.Validate
	tracer     trace.Tracer
	newID      func() string
	nowFunc    func() time.Time
}

// NewValidator returns a Validator reading prices from c and writing orders to w.
func NewValidator(c Catalog, p PrincipalResolver, w OrderWriter, opts ...Option) *Validator {
	v := &Validator{
		catalog:    c,
		principals: p,
		orders:     w,
		log:        slog.Default(),
		validate:   validation.New(),
		tracer:     otel.Tracer("checkout"),
		newID:      uuid.NewString,
		nowFunc:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// PlaceOrder validates the JSON cart snapshot in cartItems and, if every
// product still exists, stores an order priced from the catalog.
func (v *Validator) PlaceOrder(ctx context.Context, cartItems string) (res Result) {
	ctx, span := v.tracer.Start(ctx, "checkout.PlaceOrder")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			v.log.Error("checkout panicked", "panic", fmt.Sprint(r))
			res = failure(KindInternal, MsgInternal)
		}
		if !res.Success {
			span.SetStatus(codes.Error, string(res.Kind))
		}
	}()

	lines, bad := v.parse(cartItems)
	if bad != nil {
		return *bad
	}
	span.SetAttributes(attribute.Int("checkout.lines", len(lines)))

	userID, err := v.principals.Principal(ctx)
	if err != nil {
		return failure(KindUnauthorized, MsgUnauthorized)
	}

	ids := distinctIDs(lines)
	products, err := v.fetch(ctx, ids)
	if err != nil {
		v.log.Error("catalog lookup failed", "err", err)
		span.RecordError(err)
		return failure(KindUpstream, MsgUpstream)
	}

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	if missing := missingNames(lines, byID); len(missing) > 0 {
		return failure(KindStaleCart, fmt.Sprintf("%s: %s", MsgUnavailable, strings.Join(missing, ", ")))
	}

	order := orders.Order{
		OrderID:    v.newID(),
		UserID:     userID,
		TotalPrice: decimal.Zero,
		Status:     orders.StatusPending,
		CreatedAt:  v.nowFunc().UTC(),
		Details:    make([]orders.LineItem, 0, len(lines)),
	}
	for _, l := range lines {
		p, ok := byID[string(l.Product.ID)]
		if !ok {
			return failure(KindStaleCart, fmt.Sprintf("Product %s not found", l.DisplayName()))
		}
		lineTotal := p.PricePerKg.Mul(l.Quantity)
		order.TotalPrice = order.TotalPrice.Add(lineTotal)
		order.Details = append(order.Details, orders.LineItem{
			ProductID:      p.ID,
			Name:           p.Name,
			Quantity:       l.Quantity,
			UnitPrice:      p.PricePerKg,
			LineTotal:      lineTotal,
			SubmittedName:  l.Product.Name,
			SubmittedPrice: l.Product.PricePerKg,
		})
	}

	if err := v.persist(ctx, order); err != nil {
		v.log.Error("order insert failed", "order_id", order.OrderID, "err", err)
		span.RecordError(err)
		return failure(KindStorage, MsgStorage)
	}
	span.SetAttributes(attribute.String("order.id", order.OrderID))
	v.log.Info("order placed", "order_id", order.OrderID, "user_id", userID, "total_price", order.TotalPrice.String())

	if v.notifier != nil {
		if err := v.notifier.OrderPlaced(ctx, order); err != nil {
			v.log.Warn("order event not published", "order_id", order.OrderID, "err", err)
		}
	}
	return success(order.OrderID)
}

func (v *Validator) parse(cartItems string) ([]validation.CheckoutLine, *Result) {
	if strings.TrimSpace(cartItems) == "" {
		r := failure(KindBadRequest, MsgNotProvided)
		return nil, &r
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(cartItems), &doc); err != nil {
		r := failure(KindBadRequest, MsgInvalidFormat)
		return nil, &r
	}
	arr, ok := doc.([]interface{})
	if !ok || len(arr) == 0 {
		r := failure(KindBadRequest, MsgEmpty)
		return nil, &r
	}

	var lines []validation.CheckoutLine
	if err := json.Unmarshal([]byte(cartItems), &lines); err != nil {
		r := failure(KindBadRequest, MsgInvalidFormat)
		return nil, &r
	}
	for i, l := range lines {
		if err := v.validate.Struct(l); err != nil {
			r := failure(KindBadRequest, fmt.Sprintf("Invalid cart item %d: %s", i+1, validation.Describe(err)))
			return nil, &r
		}
	}
	return lines, nil
}

func (v *Validator) fetch(ctx context.Context, ids []string) ([]catalog.Product, error) {
	ctx, span := v.tracer.Start(ctx, "checkout.fetchProducts")
	defer span.End()
	span.SetAttributes(attribute.Int("catalog.ids", len(ids)))
	return v.catalog.ProductsByIDs(ctx, ids)
}

func (v *Validator) persist(ctx context.Context, o orders.Order) error {
	ctx, span := v.tracer.Start(ctx, "checkout.insertOrder")
	defer span.End()
	if err := v.orders.Create(ctx, o); err != nil {
		if errors.Is(err, orders.ErrDuplicateOrder) {
			return fmt.Errorf("order id collision: %w", err)
		}
		return err
	}
	return nil
}

// distinctIDs returns each product id once, in first-seen order.
func distinctIDs(lines []validation.CheckoutLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		id := string(l.Product.ID)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// missingNames lists the client names of requested products the catalog did not return.
func missingNames(lines []validation.CheckoutLine, found map[string]catalog.Product) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, l := range lines {
		id := string(l.Product.ID)
		if _, ok := found[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		names = append(names, l.DisplayName())
	}
	return names
}
