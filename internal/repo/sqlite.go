package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/office-atlas/atlas-cli/internal/model"
)

// SQLiteRepository implements Repository using modernc.org/sqlite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck,gosec
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS listings (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	address          TEXT NOT NULL DEFAULT '',
	lat              REAL NOT NULL,
	lng              REAL NOT NULL,
	grade            TEXT NOT NULL DEFAULT '',
	price            INTEGER,
	area             REAL,
	floors           INTEGER,
	year             INTEGER,
	months_on_market INTEGER,
	single_floor     INTEGER,
	source           TEXT NOT NULL,
	source_url       TEXT NOT NULL DEFAULT '',
	scraped_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source);
`

// Migrate creates the listings table if needed.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Load implements Repository.
func (r *SQLiteRepository) Load(ctx context.Context) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, address, lat, lng, grade, price, area, floors, year,
		       months_on_market, single_floor, source, source_url, scraped_at
		FROM listings ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select listings")
	}
	defer rows.Close() //nolint:errcheck

	listings := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		var singleFloor *int
		if err := rows.Scan(
			&l.Name, &l.Address, &l.Latitude, &l.Longitude, &l.Grade,
			&l.Price, &l.Area, &l.Floors, &l.Year,
			&l.MonthsOnMarket, &singleFloor, &l.Source, &l.SourceURL, &l.ScrapedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan listing")
		}
		if singleFloor != nil {
			v := *singleFloor != 0
			l.SingleFloor = &v
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate listings")
	}
	return listings, nil
}

// Save implements Repository with a replace-all transaction.
func (r *SQLiteRepository) Save(ctx context.Context, listings []model.Listing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings`); err != nil {
		return eris.Wrap(err, "sqlite: clear listings")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (id, name, address, lat, lng, grade, price, area,
			floors, year, months_on_market, single_floor, source, source_url, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, l := range listings {
		var singleFloor *int
		if l.SingleFloor != nil {
			v := 0
			if *l.SingleFloor {
				v = 1
			}
			singleFloor = &v
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), l.Name, l.Address, l.Latitude, l.Longitude,
			l.Grade, l.Price, l.Area, l.Floors, l.Year,
			l.MonthsOnMarket, singleFloor, string(l.Source), l.SourceURL, l.ScrapedAt,
		); err != nil {
			return eris.Wrap(err, "sqlite: insert listing")
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Close implements Repository.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
