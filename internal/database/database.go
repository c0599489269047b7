package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/cartrec/internal/config"
)

// Database holds the optional Redis connection used for the catalog cache
// and API rate limiting. Redis is nil when no URL is configured.
type Database struct {
	Redis  *redis.Client
	logger *logrus.Logger
}

func New(cfg *config.Config, logger *logrus.Logger) (*Database, error) {
	db := &Database{
		logger: logger,
	}

	if cfg.Redis.URL == "" {
		logger.Info("Redis not configured, catalog cache and rate limiting disabled")
		return db, nil
	}

	if err := db.initRedis(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	return db, nil
}

func (db *Database) initRedis(cfg *config.Config) error {
	opts, err := redisOptions(cfg.Redis)
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// An unreachable Redis at startup is tolerated; every caller fails open.
	if err := client.Ping(ctx).Err(); err != nil {
		db.logger.WithError(err).Warn("Redis ping failed, continuing without a warm connection")
	} else {
		db.logger.Info("Redis connection established")
	}

	db.Redis = client
	return nil
}

// redisOptions accepts either a redis:// URL or a bare host:port.
func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.URL}
	}

	opts.MaxRetries = cfg.MaxRetries
	opts.PoolSize = cfg.PoolSize
	opts.ReadTimeout = cfg.Timeout
	opts.WriteTimeout = cfg.Timeout
	return opts, nil
}

// Ping reports Redis reachability. It is a no-op when Redis is disabled.
func (db *Database) Ping(ctx context.Context) error {
	if db == nil || db.Redis == nil {
		return nil
	}
	return db.Redis.Ping(ctx).Err()
}

// RedisClient returns the client, or nil when Redis is disabled.
func (db *Database) RedisClient() *redis.Client {
	if db == nil {
		return nil
	}
	return db.Redis
}

// Enabled reports whether a Redis client is configured.
func (db *Database) Enabled() bool {
	return db != nil && db.Redis != nil
}

func (db *Database) Close() error {
	if db == nil || db.Redis == nil {
		return nil
	}
	if err := db.Redis.Close(); err != nil {
		db.logger.WithError(err).Error("Failed to close Redis client")
		return err
	}
	return nil
}
