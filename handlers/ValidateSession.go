package handlers

import (
	"net/http"
	"procurement/models"
	"procurement/utils"
	"strings"

	"github.com/gin-gonic/gin"
)

const tenantKey = "tenant"

// RequireTenant validates the Bearer token and stores the caller's tenant in the context.
func RequireTenant(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}

		token := authHeader
		const bearerPrefix = "Bearer "
		if strings.HasPrefix(token, bearerPrefix) {
			token = strings.TrimSpace(strings.TrimPrefix(token, bearerPrefix))
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing token"})
			return
		}

		claims, err := utils.ValidateJWT(jwtSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "details": err.Error()})
			return
		}

		c.Set(tenantKey, models.TenantContext{CompanyID: claims.CompanyID, UserID: claims.UserID})
		c.Next()
	}
}

func tenantFrom(c *gin.Context) models.TenantContext {
	if v, ok := c.Get(tenantKey); ok {
		if tenant, ok := v.(models.TenantContext); ok {
			return tenant
		}
	}
	return models.TenantContext{}
}
