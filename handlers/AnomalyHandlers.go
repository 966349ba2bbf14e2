package handlers

import (
	"net/http"
	"procurement/models"
	"procurement/services"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ListAnomalies lists the tenant's anomalies, newest first.
// @Summary List anomalies
// @Tags Anomalies
// @Produce json
// @Security BearerAuth
// @Param quote_id query string false "Quote ID"
// @Param item_id query string false "Item ID"
// @Param severity query string false "Comma separated severities (NORMAL, HIGH, EXTREMELY_HIGH)"
// @Param acknowledged query bool false "Acknowledged flag"
// @Param limit query int false "Maximum rows (default 100)"
// @Success 200 {array} models.Anomaly
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/anomalies [get]
func ListAnomalies(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.AnomalyFilter{
			QuoteID: c.Query("quote_id"),
			ItemID:  c.Query("item_id"),
		}
		for _, raw := range c.QueryArray("severity") {
			for _, s := range strings.Split(raw, ",") {
				if s = strings.TrimSpace(s); s != "" {
					filter.Severities = append(filter.Severities, models.Severity(strings.ToUpper(s)))
				}
			}
		}
		if v := c.Query("acknowledged"); v != "" {
			ack, err := strconv.ParseBool(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid acknowledged", "details": err.Error()})
				return
			}
			filter.Acknowledged = &ack
		}
		if v := c.Query("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit", "details": err.Error()})
				return
			}
			filter.Limit = limit
		}

		anomalies, err := engine.ListAnomalies(c.Request.Context(), tenantFrom(c), filter)
		if err != nil {
			respondError(c, "Failed to list anomalies", err)
			return
		}
		c.JSON(http.StatusOK, anomalies)
	}
}

// AcknowledgeAnomaly marks an anomaly as reviewed. Repeating it is a no-op.
// @Summary Acknowledge anomaly
// @Tags Anomalies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Anomaly ID"
// @Success 200 {object} models.Anomaly
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/anomalies/{id}/acknowledge [post]
func AcknowledgeAnomaly(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		anomaly, err := engine.AcknowledgeAnomaly(c.Request.Context(), tenantFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, "Failed to acknowledge anomaly", err)
			return
		}
		c.JSON(http.StatusOK, anomaly)
	}
}
