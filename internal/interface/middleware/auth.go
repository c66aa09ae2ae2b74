package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/response"
)

// Auth validates the bearer session token and stores the subject email and
// roles in the Gin context.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Abort(c, http.StatusUnauthorized, "missing bearer token", response.ErrorBody{Code: apperror.KindUnauthorized.String()})
			return
		}
		claims, err := jwt.ParseSessionToken(strings.TrimSpace(token))
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid bearer token", response.ErrorBody{Code: apperror.KindUnauthorized.String()})
			return
		}

		c.Set(CtxEmailKey, claims.Email())
		c.Set(CtxRolesKey, claims.Roles)
		c.Next()
	}
}
