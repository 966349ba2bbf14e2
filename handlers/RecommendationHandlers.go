package handlers

import (
	"net/http"
	"procurement/models"
	"procurement/services"

	"github.com/gin-gonic/gin"
)

// GetRecommendations ranks the tenant's vendors for a set of items.
// @Summary Recommend vendors
// @Description Scores every live vendor on category coverage, price history, delivery history and vendor score, weighted by urgency, and stores the ranking as one request batch.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.RecommendationRequest true "Items and urgency"
// @Success 201 {array} models.Recommendation
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/recommendations [post]
func GetRecommendations(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RecommendationRequest
		if !bindJSON(c, &req) {
			return
		}
		recs, err := engine.GetRecommendations(c.Request.Context(), tenantFrom(c), req)
		if err != nil {
			respondError(c, "Failed to rank vendors", err)
			return
		}
		c.JSON(http.StatusCreated, recs)
	}
}

// ListRecommendations returns a stored recommendation batch in rank order.
// @Summary Get recommendation batch
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param request_id path string true "Request ID"
// @Success 200 {array} models.Recommendation
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/recommendations/requests/{request_id} [get]
func ListRecommendations(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs, err := engine.ListRecommendations(c.Request.Context(), tenantFrom(c), c.Param("request_id"))
		if err != nil {
			respondError(c, "Failed to fetch recommendations", err)
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

// SelectRecommendation records that the buyer chose a recommended vendor.
// @Summary Select recommendation
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Recommendation ID"
// @Success 200 {object} models.Recommendation
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/recommendations/{id}/select [post]
func SelectRecommendation(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := engine.SelectRecommendation(c.Request.Context(), tenantFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, "Failed to select recommendation", err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}
