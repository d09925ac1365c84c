package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/office-atlas/atlas-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the repository uses. pgxmock satisfies
// it, so tests run against an expectation-driven fake.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresRepository implements Repository using a pgx connection pool.
type PostgresRepository struct {
	pool Pool
}

// NewPostgres connects a PostgresRepository to the given database URL.
func NewPostgres(ctx context.Context, connString string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresRepository{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests.
func NewPostgresFromPool(pool Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id               UUID PRIMARY KEY,
	name             TEXT NOT NULL,
	address          TEXT NOT NULL DEFAULT '',
	lat              DOUBLE PRECISION NOT NULL,
	lng              DOUBLE PRECISION NOT NULL,
	grade            TEXT NOT NULL DEFAULT '',
	price            BIGINT,
	area             DOUBLE PRECISION,
	floors           INTEGER,
	year             INTEGER,
	months_on_market INTEGER,
	single_floor     BOOLEAN,
	source           TEXT NOT NULL,
	source_url       TEXT NOT NULL DEFAULT '',
	scraped_at       TEXT NOT NULL,
	inserted_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source);
`

// Migrate creates the listings table if needed.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Load implements Repository.
func (r *PostgresRepository) Load(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, address, lat, lng, grade, price, area, floors, year,
		       months_on_market, single_floor, source, source_url, scraped_at
		FROM listings ORDER BY inserted_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select listings")
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		if err := rows.Scan(
			&l.Name, &l.Address, &l.Latitude, &l.Longitude, &l.Grade,
			&l.Price, &l.Area, &l.Floors, &l.Year,
			&l.MonthsOnMarket, &l.SingleFloor, &l.Source, &l.SourceURL, &l.ScrapedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan listing")
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate listings")
	}
	return listings, nil
}

// Save implements Repository with a replace-all transaction.
func (r *PostgresRepository) Save(ctx context.Context, listings []model.Listing) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM listings`); err != nil {
		return eris.Wrap(err, "postgres: clear listings")
	}

	for _, l := range listings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO listings (id, name, address, lat, lng, grade, price, area,
				floors, year, months_on_market, single_floor, source, source_url, scraped_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			uuid.New().String(), l.Name, l.Address, l.Latitude, l.Longitude,
			l.Grade, l.Price, l.Area, l.Floors, l.Year,
			l.MonthsOnMarket, l.SingleFloor, string(l.Source), l.SourceURL, l.ScrapedAt,
		); err != nil {
			return eris.Wrap(err, "postgres: insert listing")
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

// Close implements Repository.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
