package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/MHafidafandi/sipeduli-console/internal/core/domain"
	"github.com/MHafidafandi/sipeduli-console/internal/core/port"
)

const (
	storageTable          = "console.client_storage"
	defaultStorageChannel = "console_storage_events"
	eventBuffer           = 64
)

const createStorageSchema = `
CREATE SCHEMA IF NOT EXISTS console;
CREATE TABLE IF NOT EXISTS console.client_storage (
	scope      TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      TEXT        NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ,
	PRIMARY KEY (scope, key)
);`

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NotificationConn is the subset of *pgx.Conn used for LISTEN.
type NotificationConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
}

// ListenFunc hands out a dedicated connection for LISTEN and a release callback.
type ListenFunc func(ctx context.Context) (NotificationConn, func(), error)

// StorageConfig tunes the Postgres client-storage repository.
type StorageConfig struct {
	Channel string
	TTL     time.Duration
}

// Storage persists scoped client storage in PostgreSQL and publishes changes with pg_notify.
type Storage struct {
	exec    pgExecutor
	listen  ListenFunc
	builder squirrel.StatementBuilderType
	cfg     StorageConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewStorage constructs a repository backed by the supplied executor. A nil listen func
// disables Subscribe.
func NewStorage(exec pgExecutor, listen ListenFunc, cfg StorageConfig, logger *zap.Logger) *Storage {
	if cfg.Channel == "" {
		cfg.Channel = defaultStorageChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{
		exec:    exec,
		listen:  listen,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// NewPoolStorage wires a pgx pool for both statements and LISTEN connections.
func NewPoolStorage(pool *pgxpool.Pool, cfg StorageConfig, logger *zap.Logger) *Storage {
	listen := func(ctx context.Context) (NotificationConn, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("acquire listen connection: %w", err)
		}
		return conn.Conn(), conn.Release, nil
	}
	return NewStorage(pool, listen, cfg, logger)
}

// EnsureSchema creates the storage table when it does not exist.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.exec.Exec(ctx, createStorageSchema); err != nil {
		return fmt.Errorf("ensure client storage schema: %w", err)
	}
	return nil
}

// Get loads key for scope, ignoring expired rows.
func (s *Storage) Get(ctx context.Context, scope, key string) (string, bool, error) {
	stmt, args, err := s.builder.
		Select("value").
		From(storageTable).
		Where(squirrel.Eq{"scope": scope}).
		Where(squirrel.Eq{"key": key}).
		Where(squirrel.Or{
			squirrel.Eq{"expires_at": nil},
			squirrel.Gt{"expires_at": s.now().UTC()},
		}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build select storage sql: %w", err)
	}

	var value string
	if err := s.exec.QueryRow(ctx, stmt, args...).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select storage value: %w", err)
	}
	return value, true, nil
}

// Set upserts value and notifies listeners once the transaction commits.
func (s *Storage) Set(ctx context.Context, scope, key, value string) error {
	now := s.now().UTC()
	var expiresAt any
	if s.cfg.TTL > 0 {
		expiresAt = now.Add(s.cfg.TTL)
	}

	stmt, args, err := s.builder.
		Insert(storageTable).
		Columns("scope", "key", "value", "updated_at", "expires_at").
		Values(scope, key, value, now, expiresAt).
		Suffix("ON CONFLICT (scope, key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert storage sql: %w", err)
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("upsert storage value: %w", err)
		}
		return s.notify(ctx, tx, domain.StorageEvent{Scope: scope, Key: key})
	})
}

// Remove deletes keys for scope and emits one notification per key.
func (s *Storage) Remove(ctx context.Context, scope string, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	stmt, args, err := s.builder.
		Delete(storageTable).
		Where(squirrel.Eq{"scope": scope}).
		Where(squirrel.Eq{"key": keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete storage sql: %w", err)
	}

	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("delete storage values: %w", err)
		}
		for _, key := range keys {
			if err := s.notify(ctx, tx, domain.StorageEvent{Scope: scope, Key: key, Removed: true}); err != nil {
				return err
			}
		}
		return nil
	})
}

// Subscribe LISTENs on the change channel using a dedicated connection until ctx is done.
func (s *Storage) Subscribe(ctx context.Context) (<-chan domain.StorageEvent, error) {
	if s.listen == nil {
		return nil, errors.New("postgres storage: listen connection not configured")
	}

	conn, release, err := s.listen(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.cfg.Channel}.Sanitize()); err != nil {
		release()
		return nil, fmt.Errorf("listen storage channel: %w", err)
	}

	out := make(chan domain.StorageEvent, eventBuffer)
	go func() {
		defer close(out)
		defer release()

		for {
			notification, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Error("Storage notification stream stopped", zap.Error(err))
				}
				return
			}

			var event domain.StorageEvent
			if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
				s.logger.Warn("Discarding malformed storage notification",
					zap.String("channel", notification.Channel),
					zap.Error(err),
				)
				continue
			}

			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// HealthCheck verifies the database answers a trivial query.
func (s *Storage) HealthCheck(ctx context.Context) error {
	var one int
	if err := s.exec.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres storage health check: %w", err)
	}
	return nil
}

func (s *Storage) notify(ctx context.Context, tx pgx.Tx, event domain.StorageEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal storage event: %w", err)
	}
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", s.cfg.Channel, string(payload)); err != nil {
		return fmt.Errorf("notify storage event: %w", err)
	}
	return nil
}

func (s *Storage) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.exec.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin storage tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit storage tx: %w", err)
	}
	return nil
}

var (
	_ port.Storage        = (*Storage)(nil)
	_ port.ChangeNotifier = (*Storage)(nil)
	_ port.HealthChecker  = (*Storage)(nil)
)
