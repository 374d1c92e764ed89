package services

import (
	"context"
	"sync"

	"github.com/andrejsm/readsync/internal/models"
	"github.com/andrejsm/readsync/internal/postgrest"
)

// ListAPI is the read side of the backend client.
type ListAPI interface {
	ListLinks(ctx context.Context, token string, q postgrest.Query) ([]models.Link, error)
}

// Pager pages through the filtered remote collection with a compound
// keyset cursor ordered by (updated_at desc, id desc). Keyset paging stays
// correct while concurrent writes bump updated_at: a mutated row jumps
// ahead of the cursor and cannot reappear on a later page.
type Pager struct {
	api      ListAPI
	pageSize int

	mu      sync.Mutex
	filter  models.Filter
	cursor  *models.PageCursor
	hasMore bool
}

func NewPager(api ListAPI, pageSize int) *Pager {
	return &Pager{api: api, pageSize: pageSize, hasMore: true}
}

// Reset points the pager at the start of the result set for filter,
// discarding the previous cursor.
func (p *Pager) Reset(filter models.Filter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.filter = filter
	p.cursor = nil
	p.hasMore = true
}

// Filter returns the active filter.
func (p *Pager) Filter() models.Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// HasMore reports whether another page may exist. A page shorter than the
// requested size is read as the end of the result set; that is a known
// approximation, not a guarantee.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// NextPage fetches the page after the current cursor and advances it.
// Returns the page and whether more pages may follow.
func (p *Pager) NextPage(ctx context.Context, token, ownerID string) ([]models.Link, bool, error) {
	p.mu.Lock()
	q := postgrest.Query{
		OwnerID: ownerID,
		Status:  p.filter.Status,
		Cursor:  p.cursor,
		Limit:   p.pageSize,
	}
	p.mu.Unlock()

	items, err := p.api.ListLinks(ctx, token, q)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(items) == p.pageSize
	var cursor *models.PageCursor
	if len(items) > 0 {
		last := items[len(items)-1]
		if last.UpdatedAt != nil {
			cursor = &models.PageCursor{UpdatedAt: *last.UpdatedAt, ID: last.ID}
		} else {
			// rows without the ordering timestamp sort last; once the
			// page ends on one there is nothing left to key the cursor on
			hasMore = false
		}
	}

	p.mu.Lock()
	if cursor != nil {
		p.cursor = cursor
	}
	p.hasMore = hasMore
	p.mu.Unlock()

	return items, hasMore, nil
}
