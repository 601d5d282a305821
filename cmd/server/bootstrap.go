package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/posadmin/internal/api"
	"github.com/charlesng35/posadmin/internal/app"
	iauth "github.com/charlesng35/posadmin/internal/auth"
	"github.com/charlesng35/posadmin/internal/database"
	"github.com/charlesng35/posadmin/internal/middleware"
	"github.com/charlesng35/posadmin/internal/monitoring"
	"github.com/charlesng35/posadmin/internal/monitoring/checks"
	"github.com/charlesng35/posadmin/pkg/logger"
)

const redisPingTimeout = 3 * time.Second

// runtimeStack bundles long-lived resources used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Redis     *redis.Client
	RateStore middleware.RateStore
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, the optional Redis client and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(log)
		}
	}()

	// enable gin debug mod
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit.Enabled {
		stack.RateStore = middleware.NewMemoryRateStore()
		if cfg.RateLimit.Redis.Enabled {
			client, redisErr := connectRedis(ctx, cfg.RateLimit.Redis)
			if redisErr != nil {
				log.Warn("redis unavailable; falling back to in-process rate limiting", zap.Error(redisErr))
			} else {
				stack.Redis = client
				stack.RateStore = middleware.NewRedisRateStore(client, cfg.RateLimit.Redis.Prefix)
				log.Info("redis connected", zap.String("addr", cfg.RateLimit.Redis.Address))
			}
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	var readiness []monitoring.Check
	if stack.Redis != nil {
		readiness = append(readiness, checks.Redis(stack.Redis))
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.RateStore, readiness...)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown releases the resources held by the stack.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func connectRedis(ctx context.Context, cfg app.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(cfg.RedisOptions())

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db, cfg.SeedOptions()); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver:          strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:            strings.TrimSpace(cfg.Database.Path),
		DSN:             strings.TrimSpace(cfg.Database.DSN),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		TimeZone:        strings.TrimSpace(cfg.Database.TimeZone),
	}

	var hosted *app.DBAuthConfig
	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		hosted = &cfg.Database.Postgres
	case "mysql":
		hosted = &cfg.Database.MySQL
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	if hosted != nil {
		dbCfg.Host = strings.TrimSpace(hosted.Host)
		dbCfg.Port = hosted.Port
		dbCfg.Name = strings.TrimSpace(hosted.Database)
		dbCfg.User = strings.TrimSpace(hosted.Username)
		dbCfg.Password = hosted.Password
		dbCfg.Options = hosted.Options
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
