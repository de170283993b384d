package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/checkout"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/idempotency"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/session"
)

// IdempotencyHeader lets clients retry a checkout safely.
const IdempotencyHeader = "Idempotency-Key"

// RegisterCheckoutRoutes registers the two checkout surfaces.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig) {
	log := cfg.Logger

	// form contract used by the storefront UI
	r.POST("/checkout", func(c *gin.Context) {
		cartItems := c.PostForm("cartItems")
		withIdempotency(c, cfg.Idempotency, log, func() checkout.Result {
			return cfg.Checkout.PlaceOrder(c.Request.Context(), cartItems)
		})
	})

	// checks out the session cart and clears it only on success
	r.POST("/api/cart/checkout", func(c *gin.Context) {
		store := loadCart(c, cfg.Carts, log)
		if store == nil {
			return
		}
		withIdempotency(c, cfg.Idempotency, log, func() checkout.Result {
			payload, err := json.Marshal(store.Items())
			if err != nil {
				log.Error("encode cart snapshot", "err", err)
				return checkout.Result{Kind: checkout.KindInternal, Error: checkout.MsgInternal}
			}
			res := cfg.Checkout.PlaceOrder(c.Request.Context(), string(payload))
			if res.Success {
				store.ClearCart(c.Request.Context())
			}
			return res
		})
	})
}

// withIdempotency runs place once per Idempotency-Key and user. A DONE key
// replays the stored response, an IN_PROGRESS key is refused and a FAILED key
// is reclaimed for another attempt.
func withIdempotency(c *gin.Context, store IdempotencyStore, log *slog.Logger, place func() checkout.Result) {
	ctx := c.Request.Context()
	key := c.GetHeader(IdempotencyHeader)
	userID, authed := session.FromContext(ctx)
	if store == nil || key == "" || !authed {
		res := place()
		c.JSON(res.HTTPStatus(), res)
		return
	}

	scoped := idempotency.ScopedKey(userID, key)
	created, err := store.CreateIfNotExists(ctx, scoped)
	if err != nil {
		log.Error("idempotency create failed", "err", err)
		c.JSON(http.StatusInternalServerError, checkout.Result{Error: checkout.MsgInternal})
		return
	}

	if !created {
		rec, err := store.Get(ctx, scoped)
		if err != nil || rec == nil {
			log.Error("idempotency lookup failed", "err", err)
			c.JSON(http.StatusInternalServerError, checkout.Result{Error: checkout.MsgInternal})
			return
		}
		switch rec.Status {
		case idempotency.StatusDone:
			c.Data(rec.ResponseStatus, "application/json; charset=utf-8", []byte(rec.ResponseBody))
			return
		case idempotency.StatusFailed:
			if err := store.Reclaim(ctx, scoped); err != nil {
				if errors.Is(err, idempotency.ErrConditionFailed) {
					c.JSON(http.StatusConflict, checkout.Result{Error: "request already in progress"})
					return
				}
				log.Error("idempotency reclaim failed", "err", err)
				c.JSON(http.StatusInternalServerError, checkout.Result{Error: checkout.MsgInternal})
				return
			}
		default:
			c.JSON(http.StatusConflict, checkout.Result{Error: "request already in progress"})
			return
		}
	}

	res := place()
	if res.Success {
		body, _ := json.Marshal(res)
		if err := store.MarkDone(ctx, scoped, res.OrderID, string(body), res.HTTPStatus()); err != nil {
			log.Error("idempotency mark done failed", "order_id", res.OrderID, "err", err)
		}
	} else if err := store.MarkFailed(ctx, scoped, string(res.Kind)); err != nil {
		log.Error("idempotency mark-failed update failed", "err", err)
	}
	c.JSON(res.HTTPStatus(), res)
}
