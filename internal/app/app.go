package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mpsp-digital/jurist-prompts-hub/internal/config"
	"github.com/mpsp-digital/jurist-prompts-hub/internal/infra/client"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Resources holds the process-wide connections: the GORM handle with its
// underlying pool, and the optional Redis client used for rate limiting.
type Resources struct {
	Flags config.RuntimeFlags
	GORM  *gorm.DB
	SQL   *sql.DB
	Redis *redis.Client
}

// Bootstrap loads env files and opens the storage connections for the
// configured mode: sqlite for local, MySQL otherwise. Redis is optional in
// both modes; the caller falls back to an in-memory limiter without it.
func Bootstrap(ctx context.Context, logger *zap.SugaredLogger) (*Resources, error) {
	config.LoadEnvFiles()
	flags := config.LoadRuntimeFlags()

	resources := &Resources{Flags: flags}

	if flags.Mode == config.ModeLocal {
		gormDB, sqlDB, err := client.NewGORMSQLite(flags.Local.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		resources.GORM = gormDB
		resources.SQL = sqlDB
		logger.Infow("local mode storage ready", "path", flags.Local.DBPath)
	} else {
		mysqlCfg, err := client.LoadMySQLConfig()
		if err != nil {
			return nil, fmt.Errorf("load mysql config: %w", err)
		}
		gormDB, sqlDB, err := client.NewGORMMySQL(mysqlCfg)
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		resources.GORM = gormDB
		resources.SQL = sqlDB
		logger.Infow("mysql connected", "host", mysqlCfg.Host, "database", mysqlCfg.Database)
	}

	redisOpts, err := client.NewDefaultRedisOptions()
	if err != nil {
		logger.Infow("redis not configured, rate limiting falls back to memory", "reason", err)
	} else {
		redisClient, err := client.NewRedisClient(redisOpts)
		if err != nil {
			logger.Warnw("redis unreachable, rate limiting falls back to memory", "error", err)
		} else {
			resources.Redis = redisClient
		}
	}

	return resources, nil
}

// Close releases every connection Bootstrap opened.
func (r *Resources) Close() error {
	if r == nil {
		return nil
	}
	var firstErr error
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil {
			firstErr = err
		}
	}
	if r.SQL != nil {
		if err := r.SQL.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DB returns the GORM handle.
func (r *Resources) DB() *gorm.DB {
	if r == nil {
		return nil
	}
	return r.GORM
}
