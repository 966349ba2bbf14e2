package handlers

import (
	"log"
	"net/http"
	"procurement/models"
	"procurement/services"

	"github.com/gin-gonic/gin"
)

// SubmitQuote prices, numbers and stores a vendor quote and checks it for price anomalies.
// @Summary Submit quote
// @Description Computes landed cost (base + GST + transport), assigns a quote number and evaluates the price against the item's baseline. When the quote was stored but the anomaly check failed, the response is still 201 with a "warning".
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.SubmitQuoteRequest true "Quote"
// @Success 201 {object} models.SubmitQuoteResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/quotes [post]
func SubmitQuote(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SubmitQuoteRequest
		if !bindJSON(c, &req) {
			return
		}

		resp, err := engine.SubmitQuote(c.Request.Context(), tenantFrom(c), req)
		if err != nil {
			if resp.Quote.ID == "" {
				respondError(c, "Failed to submit quote", err)
				return
			}
			log.Printf("quote %s stored without anomaly check: %v", resp.Quote.QuoteNumber, err)
			c.JSON(http.StatusCreated, gin.H{"quote": resp.Quote, "anomaly": nil, "warning": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// GetQuote returns one quote.
// @Summary Get quote
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Quote
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/quotes/{id} [get]
func GetQuote(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		quote, err := engine.GetQuote(c.Request.Context(), tenantFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, "Failed to fetch quote", err)
			return
		}
		c.JSON(http.StatusOK, quote)
	}
}

// ApproveQuote moves a submitted quote to APPROVED.
// @Summary Approve quote
// @Description Approving a quote that is not SUBMITTED returns 409. Approved prices feed the item's baseline.
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} models.Quote
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/quotes/{id}/approve [post]
func ApproveQuote(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		quote, err := engine.ApproveQuote(c.Request.Context(), tenantFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, "Failed to approve quote", err)
			return
		}
		c.JSON(http.StatusOK, quote)
	}
}

// ListRFQQuotes lists an RFQ's quotes cheapest landed cost first.
// @Summary Compare quotes for an RFQ
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param rfq_id path string true "RFQ ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfqs/{rfq_id}/quotes [get]
func ListRFQQuotes(engine *services.QuoteEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfq, quotes, err := engine.ListRFQQuotes(c.Request.Context(), tenantFrom(c), c.Param("rfq_id"))
		if err != nil {
			respondError(c, "Failed to list quotes", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rfq": rfq, "quotes": quotes, "count": len(quotes)})
	}
}
