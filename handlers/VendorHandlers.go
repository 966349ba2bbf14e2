package handlers

import (
	"net/http"
	"procurement/models"
	"procurement/services"

	"github.com/gin-gonic/gin"
)

// CreateVendor creates a new vendor.
// @Summary Create vendor
// @Description Request body: name, email, phone, vendor_score (0-100, optional), category_ids.
// @Tags Vendors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateVendorRequest true "Vendor data"
// @Success 201 {object} models.Vendor
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/vendors [post]
func CreateVendor(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateVendorRequest
		if !bindJSON(c, &req) {
			return
		}
		vendor, err := catalog.CreateVendor(c.Request.Context(), tenantFrom(c), req)
		if err != nil {
			respondError(c, "Failed to create vendor", err)
			return
		}
		c.JSON(http.StatusCreated, vendor)
	}
}

// GetAllVendors lists the tenant's live vendors.
// @Summary List vendors
// @Tags Vendors
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Vendor
// @Failure 401 {object} models.ErrorResponse
// @Router /api/vendors [get]
func GetAllVendors(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendors, err := catalog.ListVendors(c.Request.Context(), tenantFrom(c))
		if err != nil {
			respondError(c, "Failed to fetch vendors", err)
			return
		}
		c.JSON(http.StatusOK, vendors)
	}
}

// GetVendorByID returns one vendor, including a tombstoned one.
// @Summary Get vendor
// @Tags Vendors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vendor ID"
// @Success 200 {object} models.Vendor
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id} [get]
func GetVendorByID(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		vendor, err := catalog.GetVendor(c.Request.Context(), tenantFrom(c), c.Param("id"))
		if err != nil {
			respondError(c, "Failed to fetch vendor", err)
			return
		}
		c.JSON(http.StatusOK, vendor)
	}
}

// DeleteVendor tombstones a vendor.
// @Summary Delete vendor
// @Description The vendor stops receiving quotes and recommendations. Existing records keep referencing it.
// @Tags Vendors
// @Produce json
// @Security BearerAuth
// @Param id path string true "Vendor ID"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/vendors/{id} [delete]
func DeleteVendor(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := catalog.DeleteVendor(c.Request.Context(), tenantFrom(c), c.Param("id")); err != nil {
			respondError(c, "Failed to delete vendor", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Vendor deleted successfully"})
	}
}
