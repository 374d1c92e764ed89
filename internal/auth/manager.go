// Package auth implements the credential manager: it owns the access and
// refresh token pair, transparently re-authenticates when the pair goes
// stale, and persists every change to the secure store so independent
// processes share one session.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/andrejsm/readsync/internal/common"
	"github.com/andrejsm/readsync/internal/dbx"
	"github.com/andrejsm/readsync/internal/logging"
	"github.com/andrejsm/readsync/internal/models"
	"github.com/andrejsm/readsync/internal/postgrest"
	"github.com/andrejsm/readsync/internal/repositories/secrets"
	"golang.org/x/sync/singleflight"
)

// TokenSafetyMargin is how long before expiry a token stops counting as
// valid, so a token handed out now survives the request it is used for.
const TokenSafetyMargin = 60 * time.Second

// TokenAPI is the subset of the backend client the manager needs.
type TokenAPI interface {
	PasswordGrant(ctx context.Context, email, password string) (*postgrest.TokenResponse, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*postgrest.TokenResponse, error)
}

// Manager owns the session. Constructed explicitly with its dependencies;
// each process entry point builds its own Manager over the same persisted
// store rather than sharing a process-wide singleton.
type Manager struct {
	api TokenAPI
	db  *sql.DB
	log logging.Logger
	now func() time.Time

	mu      sync.Mutex
	session *models.Session

	sf singleflight.Group
}

func NewManager(api TokenAPI, db *sql.DB, log logging.Logger) *Manager {
	return &Manager{api: api, db: db, log: log, now: time.Now}
}

func (m *Manager) secretsRepo(db dbx.DBTX) secrets.Repository {
	return secrets.NewSQLiteRepository(db)
}

// ValidAccessToken returns a token valid for at least TokenSafetyMargin,
// refreshing or re-logging-in as needed. Concurrent callers share a single
// in-flight renewal instead of racing duplicate network calls.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	if s := m.currentSession(ctx); s != nil && s.ValidAt(m.now(), TokenSafetyMargin) {
		return s.AccessToken, nil
	}

	// The renewal outlives any single caller: one caller timing out must
	// not cancel the network call everyone else is waiting on.
	v, err, _ := m.sf.Do("renew", func() (any, error) {
		return m.renew(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// currentSession returns the cached session, loading it from the secure
// store on first use (another process may have logged in already).
func (m *Manager) currentSession(ctx context.Context) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		return m.session
	}

	repo := m.secretsRepo(m.db)
	access, err := repo.Get(ctx, common.SecretAccessToken)
	if err != nil {
		return nil
	}
	refresh, _ := repo.Get(ctx, common.SecretRefreshToken)
	expiresText, _ := repo.Get(ctx, common.SecretExpiresAt)

	s := &models.Session{AccessToken: access, RefreshToken: refresh}
	if sec, err := strconv.ParseInt(expiresText, 10, 64); err == nil {
		s.ExpiresAt = time.Unix(sec, 0)
	}
	m.session = s
	return s
}

func (m *Manager) renew(ctx context.Context) (string, error) {
	// another caller may have renewed while this one queued on singleflight
	s := m.currentSession(ctx)
	if s != nil && s.ValidAt(m.now(), TokenSafetyMargin) {
		return s.AccessToken, nil
	}

	if s != nil && s.RefreshToken != "" {
		tr, err := m.api.RefreshGrant(ctx, s.RefreshToken)
		switch {
		case err == nil:
			if err := m.persistSession(ctx, tr); err != nil {
				return "", err
			}
			return tr.AccessToken, nil
		case errors.Is(err, common.ErrUnauthorized) || errors.Is(err, common.ErrInvalidCredentials):
			// definitive rejection: the refresh token is dead, drop it
			// and fall through to a password login
			m.log.Warn(ctx, "refresh token rejected, falling back to login")
			if err := m.dropRefreshToken(ctx); err != nil {
				return "", err
			}
		default:
			// transient failure: surface it without forcing
			// re-authentication, the caller retries later
			return "", fmt.Errorf("%w: %w", common.ErrRefreshFailed, err)
		}
	}

	token, err := m.login(ctx)
	if err != nil && s != nil {
		// there was a session; it aged out and could not be renewed
		return "", fmt.Errorf("%w: %w", common.ErrTokenExpired, err)
	}
	return token, err
}

func (m *Manager) login(ctx context.Context) (string, error) {
	repo := m.secretsRepo(m.db)

	email, err := repo.Get(ctx, common.SecretAccountEmail)
	if err != nil {
		return "", fmt.Errorf("%w: no stored account", common.ErrInvalidCredentials)
	}
	password, err := repo.Get(ctx, common.SecretAccountPass)
	if err != nil {
		return "", fmt.Errorf("%w: no stored account", common.ErrInvalidCredentials)
	}

	tr, err := m.api.PasswordGrant(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if err := m.persistSession(ctx, tr); err != nil {
		return "", err
	}
	m.log.Info(ctx, "logged in", "owner", tr.User.ID)
	return tr.AccessToken, nil
}

// LoginWith performs an explicit password login and stores the account so
// later automatic re-logins can use it. Credentials are persisted only
// after the server accepted them.
func (m *Manager) LoginWith(ctx context.Context, email, password string) error {
	tr, err := m.api.PasswordGrant(ctx, email, password)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.secretsRepo(tx)
		if err := repo.Set(ctx, common.SecretAccountEmail, email); err != nil {
			return err
		}
		return repo.Set(ctx, common.SecretAccountPass, password)
	})
	if err != nil {
		return err
	}
	return m.persistSession(ctx, tr)
}

// persistSession writes the whole token pair and expiry in one transaction
// and only then replaces the in-memory cache: a failed write leaves both
// the store and the cache on the previous session.
func (m *Manager) persistSession(ctx context.Context, tr *postgrest.TokenResponse) error {
	expiresAt := m.now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	err := dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := m.secretsRepo(tx)
		if err := repo.Set(ctx, common.SecretAccessToken, tr.AccessToken); err != nil {
			return err
		}
		if err := repo.Set(ctx, common.SecretRefreshToken, tr.RefreshToken); err != nil {
			return err
		}
		return repo.Set(ctx, common.SecretExpiresAt, strconv.FormatInt(expiresAt.Unix(), 10))
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.session = &models.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt,
	}
	m.mu.Unlock()
	return nil
}

func (m *Manager) dropRefreshToken(ctx context.Context) error {
	if err := m.secretsRepo(m.db).Delete(ctx, common.SecretRefreshToken); err != nil {
		return err
	}
	m.mu.Lock()
	if m.session != nil {
		m.session.RefreshToken = ""
	}
	m.mu.Unlock()
	return nil
}

// OwnerID derives the authenticated user's id from a valid access token.
func (m *Manager) OwnerID(ctx context.Context) (string, error) {
	token, err := m.ValidAccessToken(ctx)
	if err != nil {
		return "", err
	}
	return OwnerIDFromToken(token)
}

// ClearAll erases the session from the secure store and the in-memory
// cache; used for explicit sign-out.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.secretsRepo(m.db).Clear(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

// StartPrefetch renews the token ahead of expiry on a fixed interval.
// Blocks until ctx is cancelled; run it in its own goroutine tied to the
// owning component's lifetime.
func (m *Manager) StartPrefetch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			if _, err := m.ValidAccessToken(callCtx); err != nil {
				m.log.Warn(ctx, "token prefetch failed", "error", err)
			}
			cancel()
		case <-ctx.Done():
			return
		}
	}
}
