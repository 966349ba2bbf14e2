package handlers

import (
	"net/http"
	"procurement/models"
	"procurement/services"

	"github.com/gin-gonic/gin"
)

// CreateItem creates a purchasable item.
// @Summary Create item
// @Description reference_price, when set, is used as the item's expected price for anomaly checks.
// @Tags Items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateItemRequest true "Item"
// @Success 201 {object} models.Item
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/items [post]
func CreateItem(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateItemRequest
		if !bindJSON(c, &req) {
			return
		}
		item, err := catalog.CreateItem(c.Request.Context(), tenantFrom(c), req)
		if err != nil {
			respondError(c, "Failed to create item", err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// GetAllItems lists the tenant's live items.
// @Summary List items
// @Tags Items
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Item
// @Failure 401 {object} models.ErrorResponse
// @Router /api/items [get]
func GetAllItems(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := catalog.ListItems(c.Request.Context(), tenantFrom(c))
		if err != nil {
			respondError(c, "Failed to fetch items", err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// DeleteItem tombstones an item.
// @Summary Delete item
// @Tags Items
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/items/{id} [delete]
func DeleteItem(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := catalog.DeleteItem(c.Request.Context(), tenantFrom(c), c.Param("id")); err != nil {
			respondError(c, "Failed to delete item", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
	}
}

// CreateRFQ opens a request for quotation on one item.
// @Summary Create RFQ
// @Tags RFQs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateRFQRequest true "RFQ"
// @Success 201 {object} models.RFQ
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfqs [post]
func CreateRFQ(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateRFQRequest
		if !bindJSON(c, &req) {
			return
		}
		rfq, err := catalog.CreateRFQ(c.Request.Context(), tenantFrom(c), req)
		if err != nil {
			respondError(c, "Failed to create RFQ", err)
			return
		}
		c.JSON(http.StatusCreated, rfq)
	}
}

// GetRFQ returns one RFQ.
// @Summary Get RFQ
// @Tags RFQs
// @Produce json
// @Security BearerAuth
// @Param rfq_id path string true "RFQ ID"
// @Success 200 {object} models.RFQ
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/rfqs/{rfq_id} [get]
func GetRFQ(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rfq, err := catalog.GetRFQ(c.Request.Context(), tenantFrom(c), c.Param("rfq_id"))
		if err != nil {
			respondError(c, "Failed to fetch RFQ", err)
			return
		}
		c.JSON(http.StatusOK, rfq)
	}
}
