package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"cloudcanvas/app/config"
	"cloudcanvas/app/repositories"
	"cloudcanvas/app/repositories/memory"
	"cloudcanvas/app/repositories/postgres"
	"cloudcanvas/app/repositories/remote"

	"go.uber.org/zap"
)

// badgerDir is the local store directory below the store path.
const badgerDir = "badger"

// LocalPath is where the local store keeps its Badger files.
func LocalPath(opts *config.Options) string {
	return filepath.Join(opts.Store.Path, badgerDir)
}

// BackupDir is where backup writes its files.
func BackupDir(opts *config.Options) string {
	return filepath.Join(opts.Store.Path, "backups")
}

// OpenStore opens the store named by the store-driver option. The postgres
// store is migrated before it is returned.
func OpenStore(ctx context.Context, opts *config.Options, logger *zap.Logger) (repositories.Store, error) {
	var (
		store repositories.Store
		err   error
	)
	switch opts.Store.Driver {
	case config.DriverMemory:
		if !opts.Store.Seed {
			return memory.NewStore(), nil
		}
		var s *memory.Store
		if s, err = memory.NewSeededStore(ctx, time.Now()); err == nil {
			store = s
		}
	case config.DriverLocal:
		var s *repositories.Repository
		if s, err = repositories.NewRepository(LocalPath(opts)); err == nil {
			store = s
		}
	case config.DriverRemote:
		var s *remote.Store
		s, err = remote.NewStore(remote.Config{
			URL:     opts.Remote.URL,
			APIKey:  opts.Remote.APIKey,
			Timeout: opts.Remote.Timeout,
		}, logger)
		if err == nil {
			store = s
		}
	case config.DriverPostgres:
		var s *postgres.Store
		s, err = postgres.Open(ctx, postgres.Config{
			DSN:      opts.Postgres.DSN,
			MaxConns: opts.Postgres.MaxConns,
		}, logger)
		if err == nil {
			store = s
		}
	default:
		err = fmt.Errorf("unknown store driver %q", opts.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
