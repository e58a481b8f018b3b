package livespace

import (
	"context"
	"net/url"
	"sync"

	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
	"github.com/angelmondragon/livespace-sdk/pkg/logger"
	"github.com/angelmondragon/livespace-sdk/pkg/metrics"
)

const authMethodKey = "key"

// Credentials is one authenticated session. Values are replaced on refresh,
// never modified.
type Credentials struct {
	AuthMethod string `json:"_api_auth"`
	APIKey     string `json:"_api_key"`
	Signature  string `json:"_api_sha"`
	SessionID  string `json:"_api_session"`
}

func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

// apply returns params overlaid with the credential fields.
func (c Credentials) apply(params Params) Params {
	var creds Params
	creds.Set("_api_auth", String(c.AuthMethod))
	creds.Set("_api_key", String(c.APIKey))
	creds.Set("_api_sha", String(c.Signature))
	creds.Set("_api_session", String(c.SessionID))
	return params.Merge(creds)
}

// SessionManager owns the single cached session of a Client. All reads and
// writes of the cache, including the auth round-trip, hold mu.
type SessionManager struct {
	mu     sync.Mutex
	cached *Credentials

	apiKey    string
	apiSecret string
	authURL   string

	transport *transport
	store     CredentialStore
	logger    *logger.Logger
	metrics   *metrics.CallMetrics
}

// Credentials returns the cached session, authenticating when there is none
// or when force is set.
func (m *SessionManager) Credentials(ctx context.Context, force bool) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !force {
		if m.cached != nil {
			return *m.cached, nil
		}
		if creds, ok := m.loadStored(ctx); ok {
			m.cached = &creds
			return creds, nil
		}
		return m.authenticate(ctx, "initial")
	}
	return m.authenticate(ctx, "forced")
}

// Invalidate drops the cached session so the next Credentials call performs
// a fresh auth round-trip.
func (m *SessionManager) Invalidate(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cached = nil
	m.deleteStored(ctx)
}

// Renew replaces stale after the server rejected it. When another caller has
// already swapped in a different session, that session is returned without a
// new auth round-trip.
func (m *SessionManager) Renew(ctx context.Context, stale Credentials) (Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil && *m.cached != stale {
		return *m.cached, nil
	}
	m.cached = nil
	if creds, ok := m.loadStored(ctx); ok && creds != stale {
		m.cached = &creds
		return creds, nil
	}
	m.deleteStored(ctx)
	return m.authenticate(ctx, "expired")
}

func (m *SessionManager) authenticate(ctx context.Context, reason string) (Credentials, error) {
	form := url.Values{}
	form.Set("_api_auth", authMethodKey)
	form.Set("_api_key", m.apiKey)

	body, err := m.transport.postForm(ctx, m.authURL, form)
	if err != nil {
		return Credentials{}, err
	}
	resp, err := ParseResponse(body)
	if err != nil {
		return Credentials{}, err
	}
	if err := resp.Err(); err != nil {
		// An expired session has no meaning on the auth endpoint itself.
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeSessionExpired {
			return Credentials{}, pkgerrors.NewResult(pkgerrors.CodeAuth, typed.Result(), typed.Message()).
				WithDetails(typed.Details())
		}
		return Credentials{}, err
	}

	token := resp.Get("token").String()
	sessionID := resp.Get("session_id").String()
	if token == "" || sessionID == "" {
		return Credentials{}, pkgerrors.New(pkgerrors.CodeDeserialize, "auth response missing token or session_id")
	}

	signature, err := Sign(m.apiKey, token, m.apiSecret)
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{
		AuthMethod: authMethodKey,
		APIKey:     m.apiKey,
		Signature:  signature,
		SessionID:  sessionID,
	}
	m.cached = &creds
	m.saveStored(ctx, creds)
	m.metrics.IncRefresh(reason)
	m.logger.Info(m.logger.WithField(ctx, "reason", reason), "livespace session established")
	return creds, nil
}

func (m *SessionManager) loadStored(ctx context.Context) (Credentials, bool) {
	if m.store == nil {
		return Credentials{}, false
	}
	creds, ok, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "error", err.Error()), "failed to load stored livespace session")
		return Credentials{}, false
	}
	if ok && creds.APIKey != m.apiKey {
		return Credentials{}, false
	}
	return creds, ok
}

func (m *SessionManager) saveStored(ctx context.Context, creds Credentials) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, creds); err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "error", err.Error()), "failed to store livespace session")
	}
}

func (m *SessionManager) deleteStored(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.Delete(ctx); err != nil {
		m.logger.Warn(m.logger.WithField(ctx, "error", err.Error()), "failed to delete stored livespace session")
	}
}
