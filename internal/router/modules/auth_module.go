package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/parkingtime-identity/internal/container"
	handlers "github.com/oksasatya/parkingtime-identity/internal/interface/http"
	"github.com/oksasatya/parkingtime-identity/internal/interface/middleware"
)

// AuthModule mounts the public credential endpoints under /auth.
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)          // 10 req/min per IP
	issueLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)    // 5 req/min per IP+route
	confirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil) // 30 req/min per IP+route

	auth := rg.Group("/auth")
	{
		auth.POST("/register", loginLimiter, m.Handler.Register)
		auth.POST("/authenticate", loginLimiter, m.Handler.Authenticate)
		auth.POST("/forget-password", issueLimiter, m.Handler.ForgetPassword)
		auth.POST("/reset-password", confirmLimiter, m.Handler.ResetPassword)
		auth.POST("/email-verification", issueLimiter, m.Handler.SendVerificationEmail)
		auth.POST("/verify-email", confirmLimiter, m.Handler.VerifyEmail)
	}
}
