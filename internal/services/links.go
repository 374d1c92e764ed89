package services

import (
	"context"
	"sync"
	"time"

	"github.com/andrejsm/readsync/internal/logging"
	"github.com/andrejsm/readsync/internal/models"
	"github.com/andrejsm/readsync/internal/repositories/links"
	"github.com/andrejsm/readsync/internal/repositories/queue"
	"github.com/google/uuid"
)

// LinkService is the composition root the UI collaborator talks to: it
// wires the pager, the sync engine and the credential manager together and
// owns the accumulated list of materialized links.
type LinkService struct {
	engine *SyncEngine
	pager  *Pager
	creds  TokenSource
	queue  queue.Repository
	cache  links.Repository
	log    logging.Logger

	// drainTimeout bounds the best-effort drain attempted around user
	// actions; the full drain keeps running in the background.
	drainTimeout time.Duration
	device       string

	now   func() time.Time
	newID func() string

	mu    sync.Mutex
	items []models.Link
	seen  map[string]struct{}
}

func NewLinkService(engine *SyncEngine, pager *Pager, creds TokenSource,
	q queue.Repository, cache links.Repository, log logging.Logger,
	drainTimeout time.Duration, device string) *LinkService {
	return &LinkService{
		engine:       engine,
		pager:        pager,
		creds:        creds,
		queue:        q,
		cache:        cache,
		log:          log,
		drainTimeout: drainTimeout,
		device:       device,
		now:          time.Now,
		newID:        uuid.NewString,
		seen:         map[string]struct{}{},
	}
}

// CurrentItems returns a copy of the accumulated list.
func (s *LinkService) CurrentItems() []models.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Link, len(s.items))
	copy(out, s.items)
	return out
}

// SetFilter switches the active filter, invalidating the cursor and the
// accumulated items. A no-op when the filter is unchanged.
func (s *LinkService) SetFilter(filter models.Filter) {
	if s.pager.Filter().Equal(filter) {
		return
	}
	s.pager.Reset(filter)
	s.mu.Lock()
	s.items = nil
	s.seen = map[string]struct{}{}
	s.mu.Unlock()
}

// Refresh restarts the current filter from the top and loads the first page.
func (s *LinkService) Refresh(ctx context.Context) ([]models.Link, error) {
	s.pager.Reset(s.pager.Filter())
	s.mu.Lock()
	s.items = nil
	s.seen = map[string]struct{}{}
	s.mu.Unlock()
	return s.FetchPage(ctx)
}

// FetchPage drains the queue first, so local intent is reflected before
// the remote read, then fetches the next page, refreshes the cache and
// appends the new links to the accumulated list. On failure the previous
// items are retained for the caller to keep showing.
func (s *LinkService) FetchPage(ctx context.Context) ([]models.Link, error) {
	if err := s.engine.Drain(ctx); err != nil {
		// a failed drain is not fatal to the read; queued records wait
		// for the next pass
		s.log.Warn(ctx, "drain before fetch failed", "error", err)
	}

	token, err := s.creds.ValidAccessToken(ctx)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.creds.OwnerID(ctx)
	if err != nil {
		return nil, err
	}

	page, _, err := s.pager.NextPage(ctx, token, ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]models.Link, 0, len(page))
	for i := range page {
		link := page[i]
		if err := s.cache.Upsert(ctx, &link); err != nil {
			s.log.Warn(ctx, "cache refresh failed", "id", link.ID, "error", err)
		}
		// a link mutated mid-listing can surface again on a later page;
		// the accumulated list keeps the copy the user already saw
		if _, ok := s.seen[link.ID]; ok {
			continue
		}
		s.seen[link.ID] = struct{}{}
		added = append(added, link)
	}
	s.items = append(s.items, added...)
	return added, nil
}

// PendingCount reports how many mutation records still wait for delivery.
func (s *LinkService) PendingCount(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

// HasMore proxies the pager's end-of-set approximation.
func (s *LinkService) HasMore() bool {
	return s.pager.HasMore()
}

// CachedItems lists links from the local cache only; the offline view.
func (s *LinkService) CachedItems(ctx context.Context, limit int) ([]models.Link, error) {
	return s.cache.List(ctx, s.pager.Filter(), limit)
}

// Save enqueues a save intent for rawURL. The link id is generated client
// side so a retried upsert lands on the same row.
func (s *LinkService) Save(ctx context.Context, rawURL, title string, status models.Status) error {
	kind := models.MutationSaveUnread
	if status == models.StatusRead {
		kind = models.MutationSaveRead
	}

	id := s.newID()
	if cached, err := s.cache.GetByRawURL(ctx, rawURL); err == nil {
		id = cached.ID
	}

	rec := &models.MutationRecord{
		ID:         s.newID(),
		Kind:       kind,
		RawURL:     rawURL,
		LinkID:     id,
		Title:      title,
		Status:     status,
		EnqueuedAt: s.now(),
	}
	if err := s.enqueue(ctx, rec); err != nil {
		return err
	}

	now := s.now()
	link := &models.Link{
		ID:          id,
		RawURL:      rawURL,
		Status:      status,
		DeviceSaved: s.device,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if title != "" {
		t := title
		link.Title = &t
	}
	if err := s.cache.Upsert(ctx, link); err != nil {
		s.log.Warn(ctx, "optimistic save not cached", "url", rawURL, "error", err)
	}

	s.drainBestEffort(ctx)
	return nil
}

// SetStatus enqueues a read/unread toggle and updates the local copy.
func (s *LinkService) SetStatus(ctx context.Context, id string, status models.Status) error {
	rec := &models.MutationRecord{
		ID:         s.newID(),
		Kind:       models.MutationSetStatus,
		LinkID:     id,
		Status:     status,
		EnqueuedAt: s.now(),
	}
	if err := s.enqueue(ctx, rec); err != nil {
		return err
	}

	if err := s.cache.SetStatus(ctx, id, status); err != nil {
		s.log.Warn(ctx, "optimistic status not cached", "id", id, "error", err)
	}
	s.updateItem(id, func(l *models.Link) { l.Status = status })

	s.drainBestEffort(ctx)
	return nil
}

// SetStarred enqueues a star toggle and rewrites the cached title, keeping
// the rest of the title verbatim.
func (s *LinkService) SetStarred(ctx context.Context, id string, starred bool) error {
	rec := &models.MutationRecord{
		ID:         s.newID(),
		Kind:       models.MutationSetStarred,
		LinkID:     id,
		Starred:    starred,
		EnqueuedAt: s.now(),
	}
	if err := s.enqueue(ctx, rec); err != nil {
		return err
	}

	current := ""
	if cached, err := s.cache.GetByID(ctx, id); err == nil && cached.Title != nil {
		current = *cached.Title
	}
	title := models.StripStar(current)
	if starred {
		title = models.WithStar(title)
	}
	if err := s.cache.SetTitle(ctx, id, &title); err != nil {
		s.log.Warn(ctx, "optimistic star not cached", "id", id, "error", err)
	}
	s.updateItem(id, func(l *models.Link) { t := title; l.Title = &t })

	s.drainBestEffort(ctx)
	return nil
}

// Delete enqueues a delete intent and drops the local copy.
func (s *LinkService) Delete(ctx context.Context, id string) error {
	rec := &models.MutationRecord{
		ID:         s.newID(),
		Kind:       models.MutationDelete,
		LinkID:     id,
		EnqueuedAt: s.now(),
	}
	if err := s.enqueue(ctx, rec); err != nil {
		return err
	}

	if err := s.cache.DeleteByID(ctx, id); err != nil {
		s.log.Warn(ctx, "optimistic delete not cached", "id", id, "error", err)
	}
	s.removeItem(id)

	s.drainBestEffort(ctx)
	return nil
}

// EnqueueMutation records an already-built intent; the entry point used by
// share surfaces that construct records themselves.
func (s *LinkService) EnqueueMutation(ctx context.Context, rec *models.MutationRecord) error {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	if rec.EnqueuedAt.IsZero() {
		rec.EnqueuedAt = s.now()
	}
	if err := s.enqueue(ctx, rec); err != nil {
		return err
	}
	s.drainBestEffort(ctx)
	return nil
}

// enqueue persists the record durably. A persist failure is a hard failure
// for this user action: the optimistic update must not be shown as final.
func (s *LinkService) enqueue(ctx context.Context, rec *models.MutationRecord) error {
	return s.queue.Append(ctx, rec)
}

func (s *LinkService) drainBestEffort(ctx context.Context) {
	if err := s.engine.DrainWithTimeout(ctx, s.drainTimeout); err != nil {
		s.log.Debug(ctx, "best-effort drain failed, record left queued", "error", err)
	}
}

func (s *LinkService) updateItem(id string, fn func(*models.Link)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			fn(&s.items[i])
			return
		}
	}
}

func (s *LinkService) removeItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}
