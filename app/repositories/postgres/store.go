// Package postgres stores posts and comments in two relational tables through
// a pgx connection pool. The schema is applied with goose on Open.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloudcanvas/app/log"
	"cloudcanvas/app/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config selects the database and pool size.
type Config struct {
	DSN      string
	MaxConns int32
}

// Store implements repositories.Store on PostgreSQL.
type Store struct {
	pool     *pgxpool.Pool
	log      *zap.Logger
	now      func() time.Time
	posts    *PostRepository
	comments *CommentRepository
}

// Open connects, pings and migrates the database.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	logger = log.OrNop(logger)
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := NewStore(pool, logger)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing pool without migrating.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	s := &Store{pool: pool, log: log.OrNop(logger).Named("postgres"), now: time.Now}
	s.posts = &PostRepository{s: s}
	s.comments = &CommentRepository{s: s}
	return s
}

func (s *Store) Posts() repositories.PostRepository       { return s.posts }
func (s *Store) Comments() repositories.CommentRepository { return s.comments }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// gooseLogger routes migration output through zap.
type gooseLogger struct{ *zap.SugaredLogger }

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(strings.TrimSpace(format), v...)
}

// Migrate applies every pending embedded migration.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{s.log.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// parseID converts a store id to the table's bigint key. Ids that are not
// integers cannot exist in the table.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	return n, err == nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// storeErr maps pgx.ErrNoRows to ErrNotFound and marks anything else as a
// store failure.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, repositories.ErrNotFound):
		return repositories.ErrNotFound
	default:
		return fmt.Errorf("failed to %s: %w: %w", op, repositories.ErrStoreFailure, err)
	}
}
