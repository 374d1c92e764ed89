// Package links keeps the local materialized copy of remote links. The
// cache backs offline listing, optimistic updates, and the title lookups
// the sync engine needs when rewriting star markers.
package links

import (
	"context"

	"github.com/andrejsm/readsync/internal/models"
)

// Repository is the local link cache.
type Repository interface {
	// Upsert inserts or replaces the cached copy by id.
	Upsert(ctx context.Context, link *models.Link) error

	// GetByID returns the cached link, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Link, error)

	// GetByRawURL returns the cached link with that raw URL, or
	// common.ErrNotFound.
	GetByRawURL(ctx context.Context, rawURL string) (*models.Link, error)

	// List returns cached links matching filter, newest first.
	List(ctx context.Context, filter models.Filter, limit int) ([]models.Link, error)

	// SetStatus updates only the cached status.
	SetStatus(ctx context.Context, id string, status models.Status) error

	// SetTitle updates only the cached title.
	SetTitle(ctx context.Context, id string, title *string) error

	// DeleteByID drops the cached copy. Absent ids are not an error.
	DeleteByID(ctx context.Context, id string) error
}
