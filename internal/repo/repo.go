// Package repo persists the accumulated listing collection. The collection is
// read in full at merge time and replaced in full at save time; no backend
// supports partial updates, matching the append-merge lifecycle of listings.
package repo

import (
	"context"

	"github.com/office-atlas/atlas-cli/internal/model"
)

// Repository is the storage contract for the listing collection.
type Repository interface {
	// Load returns the full persisted collection. A store that has never
	// been written returns an empty slice, not an error.
	Load(ctx context.Context) ([]model.Listing, error)

	// Save atomically replaces the persisted collection.
	Save(ctx context.Context, listings []model.Listing) error

	Close() error
}
