package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nutrichef/internal/config"
	"nutrichef/internal/logger"
)

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.Storage) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case config.BackendFile, "":
		s, err = openFile(cfg.DataDir)
	case config.BackendSQL:
		s, err = openSQL(cfg.Driver, cfg.DSN)
	case config.BackendRedis:
		s, err = openRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("store opened", zap.String("backend", cfg.Backend))
	return s, nil
}

func openFile(dir string) (Store, error) {
	s, err := NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQL(driver, dsn string) (Store, error) {
	s, err := NewSQLStore(driver, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRedis(ctx context.Context, url, prefix string) (Store, error) {
	s, err := NewRedisStore(ctx, url, prefix)
	if err != nil {
		return nil, err
	}
	return s, nil
}
