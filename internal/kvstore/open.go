package kvstore

import (
	"context"
	"fmt"

	"github.com/vladimiradmaev/ai-trainer/internal/config"
	"github.com/vladimiradmaev/ai-trainer/internal/database"
	"github.com/vladimiradmaev/ai-trainer/internal/logger"
)

// Open builds the configured backend, wrapped with encryption when a key is
// set and namespaced with the configured prefix.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		store = NewMemoryStore()
	case config.BackendSQLite:
		store, err = NewSQLiteStore(cfg.Storage.SQLitePath)
	case config.BackendPostgres:
		db, dbErr := database.NewPostgresDB(cfg.DB)
		if dbErr != nil {
			return nil, dbErr
		}
		store = NewPostgresStore(db)
	case config.BackendRedis:
		client, redisErr := NewRedisClient(cfg.Redis)
		if redisErr != nil {
			return nil, redisErr
		}
		store = NewRedisStore(client, true)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Storage.EncryptionKey != "" {
		encrypted, encErr := NewEncryptedStore(store, cfg.Storage.EncryptionKey)
		if encErr != nil {
			store.Close()
			return nil, encErr
		}
		store = encrypted
	} else {
		logger.WithContext(ctx).Warn("Storage encryption key is not set, values are stored in plain text")
	}

	logger.WithContext(ctx).Info("Key-value store opened",
		"backend", cfg.Storage.Backend,
		"encrypted", cfg.Storage.EncryptionKey != "",
		"prefix", cfg.Storage.Prefix)

	if cfg.Storage.Prefix != "" {
		return &closingPrefixed{prefixed: prefixed{inner: store, prefix: cfg.Storage.Prefix}}, nil
	}
	return store, nil
}

// closingPrefixed is a prefixed store that owns its inner store.
type closingPrefixed struct {
	prefixed
}

func (c *closingPrefixed) Close() error { return c.inner.Close() }
