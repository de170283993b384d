package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/catalog"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/orders"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/session"
	"github.com/mammadovafidan/fruits-e-commerce-website/internal/validation"
	"github.com/shopspring/decimal"
)

func productInput(req validation.ProductRequest) catalog.ProductInput {
	in := catalog.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		PricePerKg:  *req.PricePerKg,
		StockKg:     decimal.Zero,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if req.StockKg != nil {
		in.StockKg = *req.StockKg
	}
	return in
}

// catalogError writes the response for a catalog write error.
func catalogError(c *gin.Context, cfg HandlerConfig, msg string, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product_not_found"})
	case errors.Is(err, catalog.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "category_not_found"})
	case errors.Is(err, catalog.ErrCategoryInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "category_in_use"})
	default:
		internalError(c, cfg.Logger, msg, err)
	}
}

// RegisterAdminRoutes registers the admin console API. Every route requires
// an authenticated principal holding the admin role.
func RegisterAdminRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	g := r.Group("/api/admin", session.RequireRole(session.RoleAdmin))

	g.GET("/products", func(c *gin.Context) {
		products, err := cfg.Catalog.ListProducts(c.Request.Context(), nil)
		if err != nil {
			internalError(c, cfg.Logger, "list products", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	})

	g.GET("/products/:id", func(c *gin.Context) {
		p, err := cfg.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			catalogError(c, cfg, "get product", err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.POST("/products", func(c *gin.Context) {
		var req validation.ProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		p, err := cfg.Catalog.CreateProduct(c.Request.Context(), productInput(req))
		if err != nil {
			catalogError(c, cfg, "create product", err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	g.PUT("/products/:id", func(c *gin.Context) {
		var req validation.ProductRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		p, err := cfg.Catalog.UpdateProduct(c.Request.Context(), c.Param("id"), productInput(req))
		if err != nil {
			catalogError(c, cfg, "update product", err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	g.DELETE("/products/:id", func(c *gin.Context) {
		if err := cfg.Catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
			catalogError(c, cfg, "delete product", err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.GET("/categories", func(c *gin.Context) {
		cats, err := cfg.Catalog.ListCategories(c.Request.Context())
		if err != nil {
			internalError(c, cfg.Logger, "list categories", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": cats})
	})

	g.POST("/categories", func(c *gin.Context) {
		var req validation.CategoryRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		cat, err := cfg.Catalog.CreateCategory(c.Request.Context(), catalog.CategoryInput{Name: req.Name, Description: req.Description})
		if err != nil {
			catalogError(c, cfg, "create category", err)
			return
		}
		c.JSON(http.StatusCreated, cat)
	})

	g.PUT("/categories/:id", func(c *gin.Context) {
		var req validation.CategoryRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		cat, err := cfg.Catalog.UpdateCategory(c.Request.Context(), c.Param("id"), catalog.CategoryInput{Name: req.Name, Description: req.Description})
		if err != nil {
			catalogError(c, cfg, "update category", err)
			return
		}
		c.JSON(http.StatusOK, cat)
	})

	g.DELETE("/categories/:id", func(c *gin.Context) {
		if err := cfg.Catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
			catalogError(c, cfg, "delete category", err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	g.GET("/orders", func(c *gin.Context) {
		list, err := cfg.Orders.List(c.Request.Context())
		if err != nil {
			internalError(c, cfg.Logger, "list orders", err)
			return
		}
		if list == nil {
			list = []orders.Order{}
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	})

	g.GET("/dashboard", func(c *gin.Context) {
		ctx := c.Request.Context()
		list, err := cfg.Orders.List(ctx)
		if err != nil {
			internalError(c, cfg.Logger, "list orders", err)
			return
		}
		count, err := cfg.Catalog.CountProducts(ctx)
		if err != nil {
			internalError(c, cfg.Logger, "count products", err)
			return
		}
		c.JSON(http.StatusOK, orders.Summarize(list, count))
	})
}
