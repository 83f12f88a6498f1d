package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iamabhishekbhol/JWT-Authentication/internal/adapters/transport/http/dto"
	appsvc "github.com/iamabhishekbhol/JWT-Authentication/internal/app/auth/service"
	"github.com/iamabhishekbhol/JWT-Authentication/internal/domain/auth/jwt"
)

// ClaimsContextKey is where RequireAccessToken stores the verified
// claims for downstream handlers.
const ClaimsContextKey = "authClaims"

const bearerPrefix = "Bearer "

// RequireAccessToken extracts a bearer token from the Authorization
// header and verifies it through the credential service. A missing
// token aborts with 401, a failed verification with 403.
func RequireAccessToken(svc appsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no token provided"})
			return
		}

		claims, err := svc.ValidateAccess(c.Request.Context(), dto.ValidateDTO{
			AccessToken: strings.TrimPrefix(header, bearerPrefix),
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by RequireAccessToken.
func ClaimsFrom(c *gin.Context) (jwt.Claims, bool) {
	v, ok := c.Get(ClaimsContextKey)
	if !ok {
		return jwt.Claims{}, false
	}
	claims, ok := v.(jwt.Claims)
	return claims, ok
}
