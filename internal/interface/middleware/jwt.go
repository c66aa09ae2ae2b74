package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	"github.com/oksasatya/parkingtime-identity/pkg/response"
)

const (
	CtxEmailKey = "email"
	CtxRolesKey = "roles"
)

// CallerFrom returns the principal set by Auth.
func CallerFrom(c *gin.Context) application.Caller {
	return application.Caller{
		Email: c.GetString(CtxEmailKey),
		Roles: c.GetStringSlice(CtxRolesKey),
	}
}

// RequireRole lets the request through when the caller carries any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		have := c.GetStringSlice(CtxRolesKey)
		for _, want := range roles {
			for _, r := range have {
				if r == want {
					c.Next()
					return
				}
			}
		}
		response.Abort(c, http.StatusForbidden, "insufficient role", response.ErrorBody{Code: apperror.KindForbidden.String()})
	}
}
