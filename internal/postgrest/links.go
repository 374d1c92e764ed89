package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/models"
	"github.com/sethvargo/go-retry"
)

// LinkPatch is a partial update. Nil fields are omitted from the body and
// left untouched on the server.
type LinkPatch struct {
	Status *models.Status `json:"status,omitempty"`
	Title  *string        `json:"title,omitempty"`
}

// ListLinks fetches one page of links. Reads are idempotent, so transient
// transport failures are retried a couple of times with a short pause
// before surfacing common.ErrUnavailable.
func (c *Client) ListLinks(ctx context.Context, token string, q Query) ([]models.Link, error) {
	var result []models.Link

	backoff := retry.WithMaxRetries(2, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := c.newRequest(callCtx, http.MethodGet, c.restURL("/links?"+q.Values().Encode()), token, nil)
		if err != nil {
			return err
		}

		status, data, err := c.do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		if err := checkStatus(status, data); err != nil {
			if errors.Is(err, common.ErrUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}

		result = result[:0]
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("decode links page: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type upsertLinkBody struct {
	ID          string        `json:"id,omitempty"`
	OwnerID     string        `json:"owner_id"`
	RawURL      string        `json:"raw_url"`
	Title       *string       `json:"title,omitempty"`
	Status      models.Status `json:"status"`
	DeviceSaved string        `json:"device_saved,omitempty"`
	CreatedAt   *time.Time    `json:"created_at,omitempty"`
}

// UpsertLink saves a link with merge-on-conflict semantics over the
// (owner_id, raw_url) uniqueness constraint. If the server reports the
// conflict instead of merging, common.ErrConflict comes back and the caller
// falls back to an explicit patch.
func (c *Client) UpsertLink(ctx context.Context, token string, link *models.Link) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := upsertLinkBody{
		ID:          link.ID,
		OwnerID:     link.OwnerID,
		RawURL:      link.RawURL,
		Title:       link.Title,
		Status:      link.Status,
		DeviceSaved: link.DeviceSaved,
		CreatedAt:   link.CreatedAt,
	}

	req, err := c.newRequest(ctx, http.MethodPost,
		c.restURL("/links?on_conflict="+url.QueryEscape("owner_id,raw_url")), token, body)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	status, data, err := c.do(req)
	if err != nil {
		return fmt.Errorf("upsert link: %w", err)
	}
	return checkStatus(status, data)
}

// PatchLinkByID partially updates one link by primary key.
func (c *Client) PatchLinkByID(ctx context.Context, token, id string, patch LinkPatch) error {
	return c.patch(ctx, token, "/links?id=eq."+url.QueryEscape(id), patch)
}

// PatchLinkByOwnerURL partially updates the link identified by the
// (owner_id, raw_url) uniqueness pair; used when the server id is unknown,
// e.g. as the 409 fallback for an upsert.
func (c *Client) PatchLinkByOwnerURL(ctx context.Context, token, ownerID, rawURL string, patch LinkPatch) error {
	q := "/links?owner_id=eq." + url.QueryEscape(ownerID) + "&raw_url=eq." + url.QueryEscape(rawURL)
	return c.patch(ctx, token, q, patch)
}

func (c *Client) patch(ctx context.Context, token, pathAndQuery string, patch LinkPatch) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodPatch, c.restURL(pathAndQuery), token, patch)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	status, data, err := c.do(req)
	if err != nil {
		return fmt.Errorf("patch link: %w", err)
	}
	return checkStatus(status, data)
}

// DeleteLink removes one link by primary key. Deleting a row that is
// already gone matches zero rows and still succeeds.
func (c *Client) DeleteLink(ctx context.Context, token, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodDelete, c.restURL("/links?id=eq."+url.QueryEscape(id)), token, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")

	status, data, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return checkStatus(status, data)
}
