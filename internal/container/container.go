package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/parkingtime-identity/config"
	"github.com/oksasatya/parkingtime-identity/internal/application"
	"github.com/oksasatya/parkingtime-identity/internal/domain/repository"
	"github.com/oksasatya/parkingtime-identity/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	store       repository.UnitOfWork
	redisClient *redis.Client

	jwtManager *helpers.JWTManager
	randomizer *helpers.Randomizer

	notifier  application.Notifier
	userIndex repository.UserIndex
)

func SetConfig(c *config.Config)          { cfg = c }
func GetConfig() *config.Config           { return cfg }
func SetLogger(l *logrus.Logger)          { logger = l }
func GetLogger() *logrus.Logger           { return logger }
func SetStore(s repository.UnitOfWork)    { store = s }
func GetStore() repository.UnitOfWork     { return store }
func SetNotifier(n application.Notifier)  { notifier = n }
func GetNotifier() application.Notifier   { return notifier }
func SetUserIndex(x repository.UserIndex) { userIndex = x }
func GetUserIndex() repository.UserIndex  { return userIndex }
func SetRandomizer(r *helpers.Randomizer) { randomizer = r }
func SetJWT(m *helpers.JWTManager)        { jwtManager = m }

// GetRedis returns the rate limiter client, or nil when rate limiting is off.
func GetRedis() *redis.Client {
	if cfg != nil && !cfg.RateLimitEnabled {
		return nil
	}
	return redisClient
}

func SetRedis(r *redis.Client) { redisClient = r }

func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func GetRandomizer() *helpers.Randomizer {
	if randomizer == nil {
		randomizer = helpers.NewRandomizer(nil)
	}
	return randomizer
}
