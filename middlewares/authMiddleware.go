package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/mfi_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware resolves the actor from the Bearer token and attaches
// id/role/branch plus a correlation id to the request context. Engine code
// trusts these values; it re-checks only role/branch/ownership preconditions.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = strings.TrimPrefix(auth, "Bearer ")

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claims, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetUsernameInContext(ctx, claims.Username)
		ctx = utils.SetRoleInContext(ctx, claims.Role)
		ctx = utils.SetBranchIdInContext(ctx, claims.BranchId)
		ctx = utils.SetClientIpInContext(ctx, c.ClientIP())

		correlationID := c.Request.Header.Get("X-Correlation-Id")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationID)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
