package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/parkingtime-identity/config"
	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/domain/apperror"
	pginfra "github.com/oksasatya/parkingtime-identity/internal/infrastructure/postgres"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/validation"
)

// seed creates the role catalog and, when SEED_ADMIN_EMAIL is set, an admin
// account. Running it twice is harmless.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(helpers.LoggerOptions{AppName: cfg.AppName + "-seed", Env: cfg.Env, Level: cfg.LogLevel})
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{
		DSN:             cfg.PostgresDSN(),
		AppName:         cfg.AppName + "-seed",
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
		MaxConnIdleTime: cfg.DBMaxConnIdle,
	})
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := pginfra.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	store := pginfra.NewStore(pool)
	if err := application.EnsureRoles(ctx, store.Roles()); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}
	logger.Info("roles ensured")

	if cfg.SeedAdminEmail == "" {
		return
	}
	auth := application.NewAuthService(store, validation.PasswordPolicy(cfg.Password), nil, nil, nil, logger)
	_, err = auth.Register(ctx, application.RegisterInput{
		FirstName: cfg.SeedAdminFirstName,
		LastName:  cfg.SeedAdminLastName,
		Email:     cfg.SeedAdminEmail,
		Password:  cfg.SeedAdminPassword,
		Roles:     []string{"admin"},
	})
	switch {
	case err == nil:
		logger.WithField("email", cfg.SeedAdminEmail).Info("admin seeded")
	case apperror.KindOf(err) == apperror.KindConflict:
		logger.WithField("email", cfg.SeedAdminEmail).Info("admin already present")
	default:
		log.Fatalf("failed to seed admin: %v", err)
	}
}
