package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-routeguard/config"
	"github.com/target/mmk-routeguard/internal/adapters/filestore"
	"github.com/target/mmk-routeguard/internal/adapters/memory"
	"github.com/target/mmk-routeguard/internal/adapters/postgres"
	redisstore "github.com/target/mmk-routeguard/internal/adapters/redis"
	"github.com/target/mmk-routeguard/internal/ports"
)

// Store is an opened durable key-value backend for the auth state.
type Store struct {
	KV      ports.KeyValueStore
	Backend config.StorageBackend

	// Ping probes the backend; nil for local backends.
	Ping func(ctx context.Context) error

	closers []func() error
}

// Close releases backend connections.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StoreDeps groups the inputs of OpenStore.
type StoreDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger

	// Optional pre-built clients (tests, shared pools).
	Redis redis.UniversalClient
	DB    *sql.DB
}

// OpenStore selects and connects the configured storage backend.
// Postgres migrations run here when enabled.
func OpenStore(ctx context.Context, deps StoreDeps) (*Store, error) {
	if deps.Config == nil {
		return nil, errors.New("store config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	var (
		st  *Store
		err error
	)
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		st = &Store{KV: memory.NewKVStore()}
	case config.StorageRedis:
		st, err = openRedisStore(ctx, deps, logger)
	case config.StoragePostgres:
		st, err = openPostgresStore(ctx, deps, logger)
	case config.StorageFile, "":
		var fs *filestore.KVStore
		fs, err = filestore.NewKVStore(cfg.Storage.FilePath)
		st = &Store{KV: fs}
	default:
		err = fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	st.Backend = cfg.Storage.Backend
	if st.Backend == "" {
		st.Backend = config.StorageFile
	}
	logger.InfoContext(ctx, "auth state storage ready", "backend", st.Backend)
	return st, nil
}

func openRedisStore(ctx context.Context, deps StoreDeps, logger *slog.Logger) (*Store, error) {
	client := deps.Redis
	st := &Store{}
	if client == nil {
		c, err := ConnectRedis(ctx, deps.Config.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		client = c
		st.closers = append(st.closers, c.Close)
	}
	st.KV = redisstore.NewKVStoreWithPrefix(client, deps.Config.Storage.KeyPrefix)
	st.Ping = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return st, nil
}

func openPostgresStore(ctx context.Context, deps StoreDeps, logger *slog.Logger) (*Store, error) {
	db := deps.DB
	st := &Store{}
	if db == nil {
		d, err := ConnectDB(ctx, deps.Config.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		db = d
		st.closers = append(st.closers, d.Close)
	}

	if deps.Config.Postgres.RunMigrationsOnStart {
		if err := RunMigrations(ctx, db, logger); err != nil {
			return nil, errors.Join(err, st.Close())
		}
	} else {
		logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
	}

	st.KV = postgres.NewKVStore(postgres.KVStoreOptions{
		DB:     db,
		Prefix: deps.Config.Storage.KeyPrefix,
		Logger: logger,
	})
	st.Ping = db.PingContext
	return st, nil
}
