package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/models"
	"github.com/andrejsm/readsync/internal/postgrest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeListAPI serves pages out of an in-memory collection, applying the
// same ordering and cursor predicate the backend would.
type fakeListAPI struct {
	mu    sync.Mutex
	links []models.Link
	err   error

	queries []postgrest.Query
}

func (f *fakeListAPI) ListLinks(ctx context.Context, token string, q postgrest.Query) ([]models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}

	var out []models.Link
	for _, l := range f.links {
		if q.Status != nil && l.Status != *q.Status {
			continue
		}
		if q.Cursor != nil && !beforeCursor(l, q.Cursor) {
			continue
		}
		out = append(out, l)
	}
	sortByCursorOrder(out)
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// beforeCursor mirrors or=(updated_at.lt.ts,and(updated_at.eq.ts,id.lt.id)).
func beforeCursor(l models.Link, c *models.PageCursor) bool {
	if l.UpdatedAt == nil {
		return false
	}
	if l.UpdatedAt.Before(c.UpdatedAt) {
		return true
	}
	return l.UpdatedAt.Equal(c.UpdatedAt) && l.ID < c.ID
}

// sortByCursorOrder orders updated_at desc nulls last, id desc.
func sortByCursorOrder(ls []models.Link) {
	for i := 1; i < len(ls); i++ {
		for j := i; j > 0 && cursorLess(ls[j-1], ls[j]); j-- {
			ls[j-1], ls[j] = ls[j], ls[j-1]
		}
	}
}

func cursorLess(a, b models.Link) bool {
	switch {
	case a.UpdatedAt == nil && b.UpdatedAt == nil:
		return a.ID < b.ID
	case a.UpdatedAt == nil:
		return true
	case b.UpdatedAt == nil:
		return false
	case !a.UpdatedAt.Equal(*b.UpdatedAt):
		return a.UpdatedAt.Before(*b.UpdatedAt)
	default:
		return a.ID < b.ID
	}
}

func makeLinks(n int, base time.Time) []models.Link {
	out := make([]models.Link, n)
	for i := 0; i < n; i++ {
		ts := base.Add(-time.Duration(i) * time.Minute)
		out[i] = models.Link{
			ID:        fmt.Sprintf("id-%03d", n-i),
			RawURL:    fmt.Sprintf("https://example.com/%d", i),
			Status:    models.StatusUnread,
			UpdatedAt: &ts,
		}
	}
	return out
}

// ---- TESTS ----

func TestPager_WalksAllPagesExactlyOnce(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(23, base)}
	p := NewPager(api, 10)
	ctx := context.Background()

	seen := map[string]int{}
	pages := 0
	for p.HasMore() {
		items, _, err := p.NextPage(ctx, "tok", "owner1")
		require.NoError(t, err)
		pages++
		for _, l := range items {
			seen[l.ID]++
		}
		require.LessOrEqual(t, pages, 4, "pager did not terminate")
	}

	assert.Equal(t, 3, pages) // 10 + 10 + 3
	assert.Len(t, seen, 23)
	for id, n := range seen {
		assert.Equalf(t, 1, n, "link %s returned %d times", id, n)
	}
}

func TestPager_ShortPageEndsSet(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(4, base)}
	p := NewPager(api, 10)

	items, hasMore, err := p.NextPage(context.Background(), "tok", "owner1")
	require.NoError(t, err)
	assert.Len(t, items, 4)
	assert.False(t, hasMore)
	assert.False(t, p.HasMore())
}

func TestPager_FullPageKeepsGoingEvenWhenSetIsExhausted(t *testing.T) {
	// exactly one full page: the heuristic reads it as "maybe more",
	// and the follow-up page comes back empty
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(10, base)}
	p := NewPager(api, 10)
	ctx := context.Background()

	items, hasMore, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.True(t, hasMore)

	items, hasMore, err = p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, hasMore)
}

func TestPager_CursorSentToBackend(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(23, base)}
	p := NewPager(api, 10)
	ctx := context.Background()

	first, _, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)
	_, _, err = p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)

	require.Len(t, api.queries, 2)
	assert.Nil(t, api.queries[0].Cursor)
	require.NotNil(t, api.queries[1].Cursor)
	last := first[len(first)-1]
	assert.Equal(t, last.ID, api.queries[1].Cursor.ID)
	assert.True(t, last.UpdatedAt.Equal(api.queries[1].Cursor.UpdatedAt))
	assert.Equal(t, "owner1", api.queries[1].OwnerID)
}

func TestPager_ErrorLeavesCursorInPlace(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(23, base)}
	p := NewPager(api, 10)
	ctx := context.Background()

	first, _, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)

	api.mu.Lock()
	api.err = common.ErrUnavailable
	api.mu.Unlock()
	_, _, err = p.NextPage(ctx, "tok", "owner1")
	assert.True(t, errors.Is(err, common.ErrUnavailable))
	assert.True(t, p.HasMore(), "a failed fetch must not end the set")

	// retry resumes exactly after the last delivered row
	api.mu.Lock()
	api.err = nil
	api.mu.Unlock()
	second, _, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)
	require.NotEmpty(t, second)
	assert.Less(t, second[0].ID, first[len(first)-1].ID)
}

func TestPager_ResetStartsOver(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(23, base)}
	p := NewPager(api, 10)
	ctx := context.Background()

	_, _, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)

	read := models.StatusRead
	p.Reset(models.Filter{Status: &read})
	assert.True(t, p.HasMore())
	assert.Equal(t, models.Filter{Status: &read}, p.Filter())

	_, _, err = p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)

	q := api.queries[len(api.queries)-1]
	assert.Nil(t, q.Cursor, "reset must discard the cursor")
	require.NotNil(t, q.Status)
	assert.Equal(t, models.StatusRead, *q.Status)
}

func TestPager_FilterNarrowsResults(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	ls := makeLinks(6, base)
	for i := range ls {
		if i%2 == 0 {
			ls[i].Status = models.StatusRead
		}
	}
	api := &fakeListAPI{links: ls}
	p := NewPager(api, 10)
	read := models.StatusRead
	p.Reset(models.Filter{Status: &read})

	items, _, err := p.NextPage(context.Background(), "tok", "owner1")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	for _, l := range items {
		assert.Equal(t, models.StatusRead, l.Status)
	}
}

func TestPager_NullUpdatedAtOnLastRowEndsSet(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	ls := makeLinks(10, base)
	ls[9].UpdatedAt = nil // sorts last
	api := &fakeListAPI{links: ls}
	p := NewPager(api, 10)

	items, hasMore, err := p.NextPage(context.Background(), "tok", "owner1")
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.False(t, hasMore, "no timestamp to key the next cursor on")
}

func TestPager_MutatedRowDoesNotReappear(t *testing.T) {
	base := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	api := &fakeListAPI{links: makeLinks(20, base)}
	p := NewPager(api, 10)
	ctx := context.Background()

	first, _, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)

	// a row already delivered gets touched between pages: its updated_at
	// jumps ahead of the cursor, so the keyset predicate excludes it
	api.mu.Lock()
	bumped := base.Add(time.Hour)
	for i := range api.links {
		if api.links[i].ID == first[3].ID {
			api.links[i].UpdatedAt = &bumped
		}
	}
	api.mu.Unlock()

	second, _, err := p.NextPage(ctx, "tok", "owner1")
	require.NoError(t, err)
	for _, l := range second {
		assert.NotEqual(t, first[3].ID, l.ID, "mutated row must not be delivered twice")
	}
}
