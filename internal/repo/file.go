package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/office-atlas/atlas-cli/internal/model"
)

// FileRepository stores the collection as a single JSON array document.
// Vietnamese text is written as-is, not ASCII-escaped.
type FileRepository struct {
	path string
}

// NewFile creates a FileRepository at the given path.
func NewFile(path string) *FileRepository {
	return &FileRepository{path: path}
}

// Load implements Repository. A missing file is an empty collection; a file
// that exists but does not parse is an error, left to the caller to degrade.
func (r *FileRepository) Load(_ context.Context) ([]model.Listing, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Listing{}, nil
		}
		return nil, eris.Wrapf(err, "repo: read %s", r.path)
	}

	var listings []model.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, eris.Wrapf(err, "repo: parse %s", r.path)
	}
	return listings, nil
}

// Save implements Repository. The document is written to a temp file in the
// same directory and renamed over the target, so a crash mid-write never
// leaves a truncated collection.
func (r *FileRepository) Save(_ context.Context, listings []model.Listing) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "repo: create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "repo: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return eris.Wrap(err, "repo: encode listings")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "repo: close temp file")
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return eris.Wrapf(err, "repo: rename into %s", r.path)
	}
	return nil
}

// Close implements Repository.
func (r *FileRepository) Close() error { return nil }
