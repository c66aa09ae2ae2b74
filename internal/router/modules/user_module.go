package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/parkingtime-identity/internal/container"
	"github.com/oksasatya/parkingtime-identity/internal/domain/entity"
	handlers "github.com/oksasatya/parkingtime-identity/internal/interface/http"
	"github.com/oksasatya/parkingtime-identity/internal/interface/middleware"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
)

// UserModule wires the bearer-protected account routes.
// GET /user/:email, PATCH /user/:email/change-password, GET /users/search (admin)
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByEmail(), nil),
	)
	{
		auth.GET("/user/:email", m.Handler.GetUser)
		auth.PATCH("/user/:email/change-password", m.Handler.ChangePassword)
		auth.GET("/users/search", middleware.RequireRole(string(entity.RoleAdmin)), m.Handler.Search)
	}
}
