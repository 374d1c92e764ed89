package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/logging"
	"github.com/andrejsm/readsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "anon-key", 2*time.Second, testLogger())
}

func TestPasswordGrant_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "me@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at1",
			"refresh_token": "rt1",
			"expires_in":    3600,
			"user":          map[string]string{"id": "owner1"},
		})
	})

	tr, err := c.PasswordGrant(context.Background(), "me@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at1", tr.AccessToken)
	assert.Equal(t, "rt1", tr.RefreshToken)
	assert.Equal(t, int64(3600), tr.ExpiresIn)
	assert.Equal(t, "owner1", tr.User.ID)
}

func TestPasswordGrant_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})

	_, err := c.PasswordGrant(context.Background(), "me@example.com", "wrong")
	assert.True(t, errors.Is(err, common.ErrInvalidCredentials))
}

func TestRefreshGrant_RejectedVsUnavailable(t *testing.T) {
	// auth rejection
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusUnauthorized)
	})
	_, err := c.RefreshGrant(context.Background(), "stale")
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	assert.False(t, errors.Is(err, common.ErrUnavailable))

	// transient failure: server down
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	down := New(srv.URL, "anon-key", time.Second, testLogger())
	_, err = down.RefreshGrant(context.Background(), "rt")
	assert.True(t, errors.Is(err, common.ErrUnavailable))
	assert.False(t, errors.Is(err, common.ErrUnauthorized))
}

func TestListLinks_BuildsRequestAndDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/links", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "eq.owner1", r.URL.Query().Get("owner_id"))
		assert.Equal(t, "updated_at.desc.nullslast,id.desc", r.URL.Query().Get("order"))

		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "l1", "owner_id": "owner1", "raw_url": "https://a.com", "status": "unread",
				"updated_at": "2026-08-30T10:00:00Z"},
		})
	})

	got, err := c.ListLinks(context.Background(), "tok", Query{OwnerID: "owner1", Limit: 25})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "l1", got[0].ID)
	assert.Equal(t, models.StatusUnread, got[0].Status)
	require.NotNil(t, got[0].UpdatedAt)
}

func TestListLinks_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})

	got, err := c.ListLinks(context.Background(), "tok", Query{OwnerID: "owner1", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListLinks_UnauthorizedNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusUnauthorized)
	})

	_, err := c.ListLinks(context.Background(), "tok", Query{OwnerID: "owner1", Limit: 5})
	assert.True(t, errors.Is(err, common.ErrUnauthorized))
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpsertLink_SendsMergePreference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/links", r.URL.Path)
		assert.Equal(t, "owner_id,raw_url", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://a.com", body["raw_url"])
		assert.Equal(t, "unread", body["status"])
		assert.Equal(t, "owner1", body["owner_id"])

		w.WriteHeader(http.StatusCreated)
	})

	err := c.UpsertLink(context.Background(), "tok", &models.Link{
		ID: "l1", OwnerID: "owner1", RawURL: "https://a.com", Status: models.StatusUnread,
	})
	require.NoError(t, err)
}

func TestUpsertLink_ConflictMapped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"23505"}`, http.StatusConflict)
	})

	err := c.UpsertLink(context.Background(), "tok", &models.Link{
		OwnerID: "owner1", RawURL: "https://a.com", Status: models.StatusUnread,
	})
	assert.True(t, errors.Is(err, common.ErrConflict))
}

func TestPatchLinkByOwnerURL_ScopesByPair(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.owner1", r.URL.Query().Get("owner_id"))
		assert.Equal(t, "eq.https://a.com", r.URL.Query().Get("raw_url"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "read"}, body)

		w.WriteHeader(http.StatusNoContent)
	})

	read := models.StatusRead
	err := c.PatchLinkByOwnerURL(context.Background(), "tok", "owner1", "https://a.com",
		LinkPatch{Status: &read})
	require.NoError(t, err)
}

func TestPatchLinkByID_OmitsUnsetFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.l1", r.URL.Query().Get("id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// only title present: status must not be overwritten
		assert.Equal(t, map[string]any{"title": "⭐ T"}, body)

		w.WriteHeader(http.StatusNoContent)
	})

	title := "⭐ T"
	require.NoError(t, c.PatchLinkByID(context.Background(), "tok", "l1", LinkPatch{Title: &title}))
}

func TestDeleteLink(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "eq.l1", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.DeleteLink(context.Background(), "tok", "l1"))
}

func TestStatusError_DefinitiveReject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})

	err := c.DeleteLink(context.Background(), "tok", "l1")
	require.Error(t, err)
	assert.True(t, IsDefinitiveReject(err))

	assert.False(t, IsDefinitiveReject(common.ErrUnavailable))
	assert.False(t, IsDefinitiveReject(nil))
}
