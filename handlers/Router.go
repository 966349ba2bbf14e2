package handlers

import (
	"context"
	"net/http"
	"procurement/services"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps is everything the HTTP layer needs. Health reports whether the backing
// store is reachable; nil means always healthy.
type RouterDeps struct {
	Engine     *services.QuoteEngine
	Catalog    *services.CatalogService
	JWTSecret  string
	Health     func(ctx context.Context) error
	Middleware []gin.HandlerFunc
}

// NewRouter registers the API, ops and swagger routes.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(deps.Middleware...)

	r.GET("/health", healthCheck(deps.Health))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", swaggerUI(r))

	api := r.Group("/api", RequireTenant(deps.JWTSecret))

	api.POST("/quotes", SubmitQuote(deps.Engine))
	api.GET("/quotes/:id", GetQuote(deps.Engine))
	api.POST("/quotes/:id/approve", ApproveQuote(deps.Engine))

	api.POST("/rfqs", CreateRFQ(deps.Catalog))
	api.GET("/rfqs/:rfq_id", GetRFQ(deps.Catalog))
	api.GET("/rfqs/:rfq_id/quotes", ListRFQQuotes(deps.Engine))
	api.GET("/rfqs/:rfq_id/quotes/export", ExportRFQQuotes(deps.Engine, deps.Catalog))

	api.GET("/anomalies", ListAnomalies(deps.Engine))
	api.POST("/anomalies/:id/acknowledge", AcknowledgeAnomaly(deps.Engine))

	api.POST("/recommendations", GetRecommendations(deps.Engine))
	api.GET("/recommendations/requests/:request_id", ListRecommendations(deps.Engine))
	api.POST("/recommendations/:id/select", SelectRecommendation(deps.Engine))

	api.POST("/categories", CreateCategory(deps.Catalog))
	api.GET("/categories", GetAllCategories(deps.Catalog))

	api.POST("/vendors", CreateVendor(deps.Catalog))
	api.GET("/vendors", GetAllVendors(deps.Catalog))
	api.GET("/vendors/:id", GetVendorByID(deps.Catalog))
	api.DELETE("/vendors/:id", DeleteVendor(deps.Catalog))

	api.POST("/items", CreateItem(deps.Catalog))
	api.GET("/items", GetAllItems(deps.Catalog))
	api.DELETE("/items/:id", DeleteItem(deps.Catalog))

	return r
}

// healthCheck
// @Summary Health check
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} models.ErrorResponse
// @Router /health [get]
func healthCheck(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unreachable", "details": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
