package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/cart"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/validation"
)

// CartSessionCookie identifies the shopper's cart across requests.
const CartSessionCookie = "cart_session"

const cartSessionMaxAge = 90 * 24 * 60 * 60

type cartView struct {
	Items     []cart.Line `json:"items"`
	ItemCount string      `json:"item_count"`
	Subtotal  string      `json:"subtotal"`
}

func newCartView(snap cart.Snapshot) cartView {
	return cartView{
		Items:     snap.Items,
		ItemCount: snap.TotalQuantity().String(),
		Subtotal:  snap.DisplaySubtotal().StringFixed(2),
	}
}

// cartSession returns the session id from the cookie, issuing a new one when
// it is missing or not a uuid.
func cartSession(c *gin.Context) string {
	if v, err := c.Cookie(CartSessionCookie); err == nil {
		if _, perr := uuid.Parse(v); perr == nil {
			return v
		}
	}
	id := uuid.NewString()
	c.SetCookie(CartSessionCookie, id, cartSessionMaxAge, "/", "", false, true)
	return id
}

// loadCart builds and rehydrates the cart of the request's session. On
// failure it writes the error response and returns nil.
func loadCart(c *gin.Context, slots CartSlots, log *slog.Logger) *cart.Store {
	sess := cartSession(c)
	store := cart.New(slots.Slot(sess), log.With("cart_session", sess))
	if err := store.Rehydrate(c.Request.Context()); err != nil {
		log.Error("cart rehydrate failed", "cart_session", sess, "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "cart_unavailable"})
		return nil
	}
	return store
}

// RegisterCartRoutes registers the session cart API.
func RegisterCartRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	log := cfg.Logger
	g := r.Group("/api/cart")

	g.GET("", func(c *gin.Context) {
		store := loadCart(c, cfg.Carts, log)
		if store == nil {
			return
		}
		c.JSON(http.StatusOK, newCartView(store.Snapshot()))
	})

	g.POST("/items", func(c *gin.Context) {
		var req validation.CartItemRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		store := loadCart(c, cfg.Carts, log)
		if store == nil {
			return
		}
		store.AddToCart(c.Request.Context(), cart.Product{
			ID:         req.Product.ID,
			Name:       req.Product.Name,
			ImageURL:   req.Product.ImageURL,
			PricePerKg: req.Product.PricePerKg,
		})
		c.JSON(http.StatusOK, newCartView(store.Snapshot()))
	})

	g.PUT("/items/:product_id", func(c *gin.Context) {
		var req validation.QuantityRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		store := loadCart(c, cfg.Carts, log)
		if store == nil {
			return
		}
		store.UpdateQuantity(c.Request.Context(), cart.ProductID(c.Param("product_id")), *req.Quantity)
		c.JSON(http.StatusOK, newCartView(store.Snapshot()))
	})

	g.DELETE("/items/:product_id", func(c *gin.Context) {
		store := loadCart(c, cfg.Carts, log)
		if store == nil {
			return
		}
		store.RemoveFromCart(c.Request.Context(), cart.ProductID(c.Param("product_id")))
		c.JSON(http.StatusOK, newCartView(store.Snapshot()))
	})

	g.DELETE("", func(c *gin.Context) {
		store := loadCart(c, cfg.Carts, log)
		if store == nil {
			return
		}
		store.ClearCart(c.Request.Context())
		c.JSON(http.StatusOK, newCartView(store.Snapshot()))
	})
}
