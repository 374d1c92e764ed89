// Package services contains the application services: the sync engine that
// drains the mutation queue, the keyset pager over the remote collection,
// and the link service the UI talks to.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/logging"
	"github.com/andrejsm/readsync/internal/models"
	"github.com/andrejsm/readsync/internal/postgrest"
	"github.com/andrejsm/readsync/internal/repositories/links"
	"github.com/andrejsm/readsync/internal/repositories/queue"
	"golang.org/x/sync/singleflight"
)

// RestAPI is the subset of the backend client the engine writes through.
type RestAPI interface {
	UpsertLink(ctx context.Context, token string, link *models.Link) error
	PatchLinkByID(ctx context.Context, token, id string, patch postgrest.LinkPatch) error
	PatchLinkByOwnerURL(ctx context.Context, token, ownerID, rawURL string, patch postgrest.LinkPatch) error
	DeleteLink(ctx context.Context, token, id string) error
}

// TokenSource produces a usable bearer token and the owner id derived
// from it.
type TokenSource interface {
	ValidAccessToken(ctx context.Context) (string, error)
	OwnerID(ctx context.Context) (string, error)
}

// SyncEngine applies pending mutation records to the backend. Records are
// removed only after a confirmed server response, so delivery is
// at-least-once and every applied operation is idempotent.
type SyncEngine struct {
	api   RestAPI
	creds TokenSource
	queue queue.Repository
	cache links.Repository
	log   logging.Logger

	sf singleflight.Group
}

func NewSyncEngine(api RestAPI, creds TokenSource, q queue.Repository, cache links.Repository, log logging.Logger) *SyncEngine {
	return &SyncEngine{api: api, creds: creds, queue: q, cache: cache, log: log}
}

// Drain applies every pending record in FIFO order. Reentrant-safe: a call
// made while a drain is running joins the in-flight drain's completion
// instead of submitting the same records twice. Another process draining
// the same persisted queue is fine: a record it removes first simply
// disappears from this process's next snapshot.
func (e *SyncEngine) Drain(ctx context.Context) error {
	_, err, _ := e.sf.Do("drain", func() (any, error) {
		return nil, e.drainOnce(context.WithoutCancel(ctx))
	})
	return err
}

// DrainWithTimeout races Drain against d for callers that need bounded
// latency. When the timeout wins only the wait is abandoned: the drain
// keeps running in the background and unapplied records stay queued, so
// the queue still converges on a later pass.
func (e *SyncEngine) DrainWithTimeout(ctx context.Context, d time.Duration) error {
	done := make(chan error, 1)
	go func() { done <- e.Drain(ctx) }()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		e.log.Debug(ctx, "drain still running, proceeding without it")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *SyncEngine) drainOnce(ctx context.Context) error {
	snapshot, err := e.queue.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("queue snapshot: %w", err)
	}
	if len(snapshot) == 0 {
		return nil
	}

	token, err := e.creds.ValidAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	ownerID, err := e.creds.OwnerID(ctx)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}

	applied := 0
	for i := range snapshot {
		rec := &snapshot[i]

		err := e.apply(ctx, token, ownerID, rec)
		switch {
		case err == nil:
			if err := e.queue.Remove(ctx, rec.ID); err != nil {
				return err
			}
			applied++
		case postgrest.IsDefinitiveReject(err):
			// the server will never accept this record; keeping it
			// would wedge the queue
			e.log.Warn(ctx, "mutation rejected by server, dropping",
				"kind", rec.Kind, "target", rec.Target(), "error", err)
			if err := e.queue.Remove(ctx, rec.ID); err != nil {
				return err
			}
		default:
			// transient: stop the pass here so later intents never
			// overtake this one; everything left stays queued in order
			e.log.Info(ctx, "drain interrupted, records left queued",
				"applied", applied, "left", len(snapshot)-i, "error", err)
			return fmt.Errorf("apply %s: %w", rec.Kind, err)
		}
	}

	e.log.Debug(ctx, "drain finished", "applied", applied)
	return nil
}

func (e *SyncEngine) apply(ctx context.Context, token, ownerID string, rec *models.MutationRecord) error {
	switch rec.Kind {
	case models.MutationSaveUnread, models.MutationSaveRead:
		return e.applySave(ctx, token, ownerID, rec)
	case models.MutationSetStatus:
		status := rec.Status
		return e.api.PatchLinkByID(ctx, token, rec.LinkID, postgrest.LinkPatch{Status: &status})
	case models.MutationSetStarred:
		return e.applyStar(ctx, token, rec)
	case models.MutationDelete:
		return e.api.DeleteLink(ctx, token, rec.LinkID)
	default:
		// unknown kind, likely written by a newer version; leave it alone
		return fmt.Errorf("unknown mutation kind %q", rec.Kind)
	}
}

// applySave turns the non-idempotent create into an upsert over the
// (owner_id, raw_url) constraint. If the server answers 409 instead of
// merging, an explicit status patch scoped to the same pair lands the
// intent; either 2xx confirms the record.
func (e *SyncEngine) applySave(ctx context.Context, token, ownerID string, rec *models.MutationRecord) error {
	status := models.StatusUnread
	if rec.Kind == models.MutationSaveRead {
		status = models.StatusRead
	}

	link := &models.Link{
		ID:      rec.LinkID,
		OwnerID: ownerID,
		RawURL:  rec.RawURL,
		Status:  status,
	}
	if rec.Title != "" {
		title := rec.Title
		link.Title = &title
	}
	if cached, err := e.cache.GetByRawURL(ctx, rec.RawURL); err == nil {
		link.DeviceSaved = cached.DeviceSaved
		link.CreatedAt = cached.CreatedAt
	}

	err := e.api.UpsertLink(ctx, token, link)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return err
	}

	e.log.Debug(ctx, "upsert conflict, patching by owner and url", "url", rec.RawURL)
	return e.api.PatchLinkByOwnerURL(ctx, token, ownerID, rec.RawURL,
		postgrest.LinkPatch{Status: &status})
}

// applyStar rewrites the title with the star marker added or stripped.
// The current title comes from the latest known local copy, never a blind
// overwrite of whatever the server has.
func (e *SyncEngine) applyStar(ctx context.Context, token string, rec *models.MutationRecord) error {
	current := ""
	if cached, err := e.cache.GetByID(ctx, rec.LinkID); err == nil && cached.Title != nil {
		current = *cached.Title
	}

	var title string
	if rec.Starred {
		title = models.WithStar(models.StripStar(current))
	} else {
		title = models.StripStar(current)
	}
	return e.api.PatchLinkByID(ctx, token, rec.LinkID, postgrest.LinkPatch{Title: &title})
}
