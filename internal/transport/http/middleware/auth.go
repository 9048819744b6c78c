package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/transport/apierror"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/auth"
	"github.com/iamasit07/4-in-a-row-duel/backend/pkg/httputil"
)

const playerIDKey = "player_id"

// TokenValidator is satisfied by *auth.TokenManager.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware resolves the guest token from the header, cookie or query
// and stores the player id on the context.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Response{
				Error:   apierror.CodeUnauthorized,
				Message: "missing token",
			})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Response{
				Error:   apierror.CodeUnauthorized,
				Message: "invalid token",
			})
			return
		}

		c.Set(playerIDKey, claims.PlayerID)
		c.Next()
	}
}

// PlayerID returns the id stored by AuthMiddleware.
func PlayerID(c *gin.Context) string {
	return c.GetString(playerIDKey)
}
