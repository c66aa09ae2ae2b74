package router

import (
	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/container"
	handlers "github.com/oksasatya/parkingtime-identity/internal/interface/http"
	"github.com/oksasatya/parkingtime-identity/internal/router/modules"
	mailtpl "github.com/oksasatya/parkingtime-identity/pkg/mailer/templates"
	"github.com/oksasatya/parkingtime-identity/pkg/validation"
)

type authModuleDeps struct {
	Auth    *application.AuthService
	Reset   *application.PasswordResetService
	Verify  *application.EmailVerificationService
	Handler *handlers.AuthHandler
}

func brand() mailtpl.Brand {
	cfg := container.GetConfig()
	return mailtpl.Brand{
		AppName:     cfg.AppName,
		CompanyName: cfg.CompanyName,
		SupportURL:  cfg.SupportURL,
		ResetURL:    cfg.ResetPasswordURL,
	}
}

func buildAuthDeps() authModuleDeps {
	cfg := container.GetConfig()
	store := container.GetStore()
	logger := container.GetLogger()
	policy := validation.PasswordPolicy(cfg.Password)

	auth := application.NewAuthService(
		store,
		policy,
		application.NewPasswordAuthenticator(store.Users()),
		container.GetJWT(),
		container.GetUserIndex(),
		logger,
	)
	reset := application.NewPasswordResetService(
		store,
		container.GetRandomizer(),
		policy,
		container.GetNotifier(),
		brand(),
		cfg.TokenExpiry,
		cfg.ResetTokenLength,
		logger,
	)
	verify := application.NewEmailVerificationService(
		store,
		container.GetRandomizer(),
		container.GetNotifier(),
		brand(),
		cfg.TokenExpiry,
		cfg.VerificationCodeLength,
		logger,
	)

	return authModuleDeps{
		Auth:    auth,
		Reset:   reset,
		Verify:  verify,
		Handler: handlers.NewAuthHandler(auth, reset, verify, logger),
	}
}

func buildUserHandler() *handlers.UserHandler {
	cfg := container.GetConfig()
	svc := application.NewUserService(
		container.GetStore(),
		validation.PasswordPolicy(cfg.Password),
		container.GetUserIndex(),
		container.GetLogger(),
	)
	return handlers.NewUserHandler(svc, container.GetLogger())
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	authDeps := buildAuthDeps()
	r.Add(modules.NewAuthModule(authDeps.Handler))
	r.Add(modules.NewUserModule(buildUserHandler(), container.GetJWT()))

	if cfg := container.GetConfig(); cfg.MetricsEnabled {
		r.AddRoot(modules.NewMetricsModule())
	}
}
