package config

import (
	"errors"
	"fmt"
	"strings"
)

// StorageBackend selects where the auth state is persisted.
type StorageBackend string

const (
	StorageFile     StorageBackend = "file"
	StorageRedis    StorageBackend = "redis"
	StoragePostgres StorageBackend = "postgres"
	StorageMemory   StorageBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := StorageBackend(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case StorageFile, StorageRedis, StoragePostgres, StorageMemory:
		*b = v
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: file, redis, postgres, memory)", string(text))
	}
}

// StorageConfig controls the durable key-value store behind the auth state.
type StorageConfig struct {
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`

	// FilePath is the JSON state file used by the file backend.
	FilePath string `env:"STORAGE_FILE_PATH" envDefault:".routeguard/state.json"`

	// KeyPrefix namespaces keys in shared Redis/Postgres backends.
	// Empty keeps the bare jwtToken/userRole/userData names.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:""`

	// RefreshOnRead re-hydrates the auth state before every navigation decision.
	// Enable it when several processes share one backend.
	RefreshOnRead bool `env:"STORAGE_REFRESH_ON_READ" envDefault:"false"`
}

// Sanitize normalises storage settings.
func (c *StorageConfig) Sanitize() {
	c.FilePath = strings.TrimSpace(c.FilePath)
	c.KeyPrefix = strings.TrimSpace(c.KeyPrefix)
	if c.Backend == "" {
		c.Backend = StorageFile
	}
}

// Validate reports storage settings that cannot work.
func (c *StorageConfig) Validate() error {
	if c.Backend == StorageFile && c.FilePath == "" {
		return errors.New("STORAGE_FILE_PATH is required for the file backend")
	}
	return nil
}

// IsShared reports whether the backend may be shared across processes.
func (c *StorageConfig) IsShared() bool {
	return c.Backend == StorageRedis || c.Backend == StoragePostgres
}
