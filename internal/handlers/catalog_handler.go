package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/catalog"
)

// RegisterCatalogRoutes registers the read-only storefront catalog.
func RegisterCatalogRoutes(r *gin.Engine, cfg HandlerConfig) {
	log := cfg.Logger
	g := r.Group("/api")

	g.GET("/products", func(c *gin.Context) {
		products, err := cfg.Catalog.ListProducts(c.Request.Context(), c.QueryArray("category"))
		if err != nil {
			internalError(c, log, "list products", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	})

	g.GET("/products/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		p, err := cfg.Catalog.GetProduct(ctx, c.Param("id"))
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
			return
		}
		if err != nil {
			internalError(c, log, "get product", err)
			return
		}
		related, err := cfg.Catalog.RelatedProducts(ctx, *p, catalog.RelatedLimit)
		if err != nil {
			// the product page still renders without suggestions
			log.Warn("related products failed", "product_id", p.ID, "err", err)
			related = []catalog.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"product": p, "related": related})
	})

	g.GET("/categories", func(c *gin.Context) {
		cats, err := cfg.Catalog.ListCategories(c.Request.Context())
		if err != nil {
			internalError(c, log, "list categories", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": cats})
	})
}
