package handlers

import (
	"net/http"
	"procurement/models"
	"procurement/services"

	"github.com/gin-gonic/gin"
)

// CreateCategory creates a material category.
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateCategoryRequest true "Category"
// @Success 201 {object} models.Category
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/categories [post]
func CreateCategory(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateCategoryRequest
		if !bindJSON(c, &req) {
			return
		}
		category, err := catalog.CreateCategory(c.Request.Context(), tenantFrom(c), req)
		if err != nil {
			respondError(c, "Failed to create category", err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

// GetAllCategories lists the tenant's categories.
// @Summary List categories
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Category
// @Failure 401 {object} models.ErrorResponse
// @Router /api/categories [get]
func GetAllCategories(catalog *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := catalog.ListCategories(c.Request.Context(), tenantFrom(c))
		if err != nil {
			respondError(c, "Failed to fetch categories", err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}
