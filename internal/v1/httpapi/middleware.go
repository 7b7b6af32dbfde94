package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nultr/nultr/backend/go/internal/v1/auth"
	"github.com/nultr/nultr/backend/go/internal/v1/logging"
)

// TokenDecoder validates a bearer token and returns its claims.
type TokenDecoder interface {
	Decode(tokenString string) (*auth.Claims, error)
}

const userIDKey = "auth_user_id"

// RequireAuth validates the Authorization header and stores the caller's user
// id for the handlers downstream. Missing or invalid credentials are denied
// without distinguishing why.
func RequireAuth(tokens TokenDecoder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortWithCode(c, http.StatusForbidden, CodeAccessDenied)
			return
		}

		claims, err := tokens.Decode(token)
		if err != nil {
			abortWithCode(c, http.StatusForbidden, CodeAccessDenied)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Request = c.Request.WithContext(logging.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func callerID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
