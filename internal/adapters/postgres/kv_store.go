// Package postgres provides a PostgreSQL-backed durable store for the auth state.
// The connection is opened through the pgx stdlib driver by internal/bootstrap.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	apperrors "github.com/target/mmk-routeguard/internal/errors"
	"github.com/target/mmk-routeguard/internal/ports"
)

var _ ports.KeyValueStore = (*KVStore)(nil)

const upsertQuery = `INSERT INTO auth_state (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

// KVStore stores each key as a row of the auth_state table.
// Writes of several keys share one transaction.
type KVStore struct {
	db     *sql.DB
	prefix string
	logger *slog.Logger
}

// KVStoreOptions groups dependencies for KVStore.
type KVStoreOptions struct {
	DB     *sql.DB
	Prefix string
	Logger *slog.Logger
}

// NewKVStore constructs a new Postgres KV store.
func NewKVStore(opts KVStoreOptions) *KVStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KVStore{db: opts.DB, prefix: opts.Prefix, logger: logger.With("component", "postgres_kv")}
}

func (s *KVStore) key(k string) string { return s.prefix + k }

// inClause renders "$start, $start+1, ..." for n placeholders.
func inClause(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

func (s *KVStore) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	byFull := make(map[string]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		full := s.key(k)
		byFull[full] = k
		args[i] = full
	}

	//nolint:gosec // placeholders only; values are bound
	query := "SELECT key, value FROM auth_state WHERE key IN (" + inClause(1, len(keys)) + ")"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("select auth state: %w", err))
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "close rows failed", "error", cerr)
		}
	}()

	for rows.Next() {
		var k, v string
		if scanErr := rows.Scan(&k, &v); scanErr != nil {
			return nil, apperrors.MapDBError(fmt.Errorf("scan auth state: %w", scanErr))
		}
		out[byFull[k]] = v
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("iterate auth state: %w", rowsErr))
	}
	return out, nil
}

func (s *KVStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys) // stable lock order across writers

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.MapDBError(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
	}()

	for _, k := range keys {
		if _, execErr := tx.ExecContext(ctx, upsertQuery, s.key(k), values[k]); execErr != nil {
			return apperrors.MapDBError(fmt.Errorf("upsert %s: %w", k, execErr))
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return apperrors.MapDBError(fmt.Errorf("commit auth state: %w", commitErr))
	}
	return nil
}

func (s *KVStore) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = s.key(k)
	}

	//nolint:gosec // placeholders only; values are bound
	query := "DELETE FROM auth_state WHERE key IN (" + inClause(1, len(keys)) + ")"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return apperrors.MapDBError(fmt.Errorf("delete auth state: %w", err))
	}
	return nil
}
