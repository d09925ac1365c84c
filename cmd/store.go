package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/office-atlas/atlas-cli/internal/repo"
)

// initRepo builds the configured listing repository and runs its migration
// when the backend has one.
func initRepo(ctx context.Context) (repo.Repository, error) {
	switch cfg.Store.Driver {
	case "file", "":
		return repo.NewFile(cfg.Store.Path), nil

	case "sqlite":
		r, err := repo.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if err := r.Migrate(ctx); err != nil {
			r.Close() //nolint:errcheck,gosec
			return nil, err
		}
		return r, nil

	case "postgres":
		r, err := repo.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := r.Migrate(ctx); err != nil {
			r.Close() //nolint:errcheck,gosec
			return nil, err
		}
		return r, nil

	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
