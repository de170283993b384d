package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/cart"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/catalog"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/checkout"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/idempotency"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/orders"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/session"
)

// OrderPlacer runs one checkout attempt.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, cartItems string) checkout.Result
}

// IdempotencyStore tracks Idempotency-Key headers.
type IdempotencyStore interface {
	CreateIfNotExists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error)
	Reclaim(ctx context.Context, key string) error
	MarkDone(ctx context.Context, key, orderID, responseBody string, responseStatus int) error
	MarkFailed(ctx context.Context, key, note string) error
}

// CartSlots hands out the durable slot of a cart session.
type CartSlots interface {
	Slot(session string) cart.Slot
}

// CatalogStore is the catalog surface used by storefront and admin routes.
type CatalogStore interface {
	ListProducts(ctx context.Context, categoryIDs []string) ([]catalog.Product, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	RelatedProducts(ctx context.Context, p catalog.Product, limit int) ([]catalog.Product, error)
	CountProducts(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) (*catalog.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	CreateCategory(ctx context.Context, in catalog.CategoryInput) (*catalog.Category, error)
	UpdateCategory(ctx context.Context, id string, in catalog.CategoryInput) (*catalog.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// OrderLister reads placed orders for the admin console.
type OrderLister interface {
	List(ctx context.Context) ([]orders.Order, error)
}

// HandlerConfig groups dependencies for the HTTP handlers.
type HandlerConfig struct {
	Checkout    OrderPlacer
	Idempotency IdempotencyStore // optional; Idempotency-Key is ignored without it
	Carts       CartSlots
	Catalog     CatalogStore
	Orders      OrderLister
	Verifier    *session.Verifier
	Logger      *slog.Logger
}

// RegisterRoutes wires every route onto r.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Verifier != nil {
		r.Use(session.Middleware(cfg.Verifier, cfg.Logger))
	}

	RegisterCheckoutRoutes(r, cfg)
	RegisterCartRoutes(r, cfg)
	RegisterCatalogRoutes(r, cfg)
	RegisterAdminRoutes(r, cfg)
}

func internalError(c *gin.Context, log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}
