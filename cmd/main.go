package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oksasatya/parkingtime-identity/config"
	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/container"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
	"github.com/oksasatya/parkingtime-identity/internal/infrastructure/memory"
	"github.com/oksasatya/parkingtime-identity/internal/infrastructure/notifier"
	pginfra "github.com/oksasatya/parkingtime-identity/internal/infrastructure/postgres"
	"github.com/oksasatya/parkingtime-identity/internal/infrastructure/search"
	"github.com/oksasatya/parkingtime-identity/internal/interface/middleware"
	"github.com/oksasatya/parkingtime-identity/internal/router"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
	"github.com/oksasatya/parkingtime-identity/pkg/metrics"
	"github.com/oksasatya/parkingtime-identity/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(helpers.LoggerOptions{AppName: cfg.AppName, Env: cfg.Env, Level: cfg.LogLevel})
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store repository.UnitOfWork
	if cfg.UsePostgres() {
		pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{
			DSN:             cfg.PostgresDSN(),
			AppName:         cfg.AppName,
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
		store = pginfra.NewStore(pool)
	} else {
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.NewStore()
	}
	if err := application.EnsureRoles(ctx, store.Roles()); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}

	// Redis (rate limiting)
	if cfg.RateLimitEnabled {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis unreachable, rate limits fail open")
		}
		container.SetRedis(rdb)
	}

	// Mail queue
	container.SetNotifier(notifier.NewLogNotifier(logger))
	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Error("rabbitmq unavailable, emails will only be logged")
		} else {
			defer pub.Close()
			container.SetNotifier(notifier.NewQueueNotifier(pub, logger))
		}
	}

	// Elasticsearch (optional)
	if cfg.ElasticsearchEnabled {
		if idx, err := userIndex(ctx, cfg); err != nil {
			logger.WithError(err).Warn("elasticsearch disabled")
		} else {
			container.SetUserIndex(idx)
		}
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetStore(store)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL, cfg.AppName))
	container.SetRandomizer(helpers.NewRandomizer(nil))

	sweeper := application.NewTokenSweeper(store.ResetTokens(), cfg.TokenExpiry, cfg.CleanupInterval, logger)
	go sweeper.Run(ctx)

	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies())
	if err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}

	// Gin engine and global middleware
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies()); err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(), middleware.RealIP(trusted))
	if cfg.MetricsEnabled {
		r.Use(metrics.Middleware())
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	cancel()

	ctxShutdown, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func userIndex(ctx context.Context, cfg *config.Config) (*search.UserIndex, error) {
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		return nil, err
	}
	if err := helpers.EnsureIndex(ctx, es, cfg.ESUsersIndex, search.UsersMapping); err != nil {
		return nil, err
	}
	return search.NewUserIndex(es, cfg.ESUsersIndex), nil
}
