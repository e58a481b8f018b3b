package livespace

import (
	"context"
	"errors"
	"sync"
	"testing"

	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
)

type memoryStore struct {
	mu      sync.Mutex
	creds   Credentials
	ok      bool
	loadErr error
	saves   int
	deletes int
}

func (s *memoryStore) Load(context.Context) (Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return Credentials{}, false, s.loadErr
	}
	return s.creds, s.ok, nil
}

func (s *memoryStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.ok = true
	s.saves++
	return nil
}

func (s *memoryStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	s.ok = false
	s.deletes++
	return nil
}

func TestCredentialsAuthenticatesOnce(t *testing.T) {
	api := newFakeAPI(t)
	sessions := newTestClient(t, api).Sessions()

	first, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	second, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached credentials, got %+v and %+v", first, second)
	}
	want := Credentials{
		AuthMethod: "key",
		APIKey:     "K",
		Signature:  "fc1f16d8e01e3c2bd7f708cd9a9261715f0ca919",
		SessionID:  "SID",
	}
	if first != want {
		t.Fatalf("credentials = %+v, want %+v", first, want)
	}
	if api.authCount() != 1 {
		t.Fatalf("expected one auth call, got %d", api.authCount())
	}
}

func TestCredentialsForceRefreshes(t *testing.T) {
	api := newFakeAPI(t)
	sessions := newTestClient(t, api).Sessions()

	if _, err := sessions.Credentials(context.Background(), false); err != nil {
		t.Fatalf("credentials: %v", err)
	}
	forced, err := sessions.Credentials(context.Background(), true)
	if err != nil {
		t.Fatalf("forced credentials: %v", err)
	}
	if forced.SessionID != "SID2" {
		t.Fatalf("expected a new session, got %+v", forced)
	}
	if api.authCount() != 2 {
		t.Fatalf("expected two auth calls, got %d", api.authCount())
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	api := newFakeAPI(t)
	sessions := newTestClient(t, api).Sessions()

	if _, err := sessions.Credentials(context.Background(), false); err != nil {
		t.Fatalf("credentials: %v", err)
	}
	sessions.Invalidate(context.Background())
	creds, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.SessionID != "SID2" || api.authCount() != 2 {
		t.Fatalf("expected re-authentication, got %+v after %d calls", creds, api.authCount())
	}
}

func TestRenewReturnsNewerSession(t *testing.T) {
	api := newFakeAPI(t)
	sessions := newTestClient(t, api).Sessions()

	stale, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	fresh, err := sessions.Credentials(context.Background(), true)
	if err != nil {
		t.Fatalf("forced credentials: %v", err)
	}

	renewed, err := sessions.Renew(context.Background(), stale)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed != fresh {
		t.Fatalf("expected the already refreshed session, got %+v", renewed)
	}
	if api.authCount() != 2 {
		t.Fatalf("renew should not authenticate again, got %d calls", api.authCount())
	}
}

func TestRenewReplacesStaleSession(t *testing.T) {
	api := newFakeAPI(t)
	sessions := newTestClient(t, api).Sessions()

	stale, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	renewed, err := sessions.Renew(context.Background(), stale)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.SessionID != "SID2" {
		t.Fatalf("expected new session, got %+v", renewed)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	api := newFakeAPI(t)
	api.auth = func(int) (string, error) {
		return `{"status":true,"result":200,"data":{"session_id":"SID"},"error":null}`, nil
	}
	sessions := newTestClient(t, api).Sessions()

	_, err := sessions.Credentials(context.Background(), false)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDeserialize {
		t.Fatalf("expected DESERIALIZE_ERROR, got %v", err)
	}
}

func TestAuthenticateNumericSessionID(t *testing.T) {
	api := newFakeAPI(t)
	api.auth = func(int) (string, error) {
		return `{"status":true,"result":200,"data":{"token":"T","session_id":12345},"error":null}`, nil
	}
	sessions := newTestClient(t, api).Sessions()

	creds, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.SessionID != "12345" {
		t.Fatalf("unexpected session id %q", creds.SessionID)
	}
}

func TestAuthenticateExpiredBecomesAuthError(t *testing.T) {
	api := newFakeAPI(t)
	api.auth = func(int) (string, error) {
		return expiredBody, nil
	}
	sessions := newTestClient(t, api).Sessions()

	_, err := sessions.Credentials(context.Background(), false)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeAuth {
		t.Fatalf("expected AUTH_ERROR, got %v", err)
	}
}

func TestAuthenticateTransportError(t *testing.T) {
	boom := errors.New("dial tcp: refused")
	api := newFakeAPI(t)
	api.auth = func(int) (string, error) {
		return "", boom
	}
	sessions := newTestClient(t, api).Sessions()

	_, err := sessions.Credentials(context.Background(), false)
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCredentialsLoadedFromStore(t *testing.T) {
	stored := Credentials{AuthMethod: "key", APIKey: "K", Signature: "abc", SessionID: "SHARED"}
	store := &memoryStore{creds: stored, ok: true}
	api := newFakeAPI(t)
	sessions := newTestClient(t, api, WithCredentialStore(store)).Sessions()

	creds, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds != stored {
		t.Fatalf("expected stored credentials, got %+v", creds)
	}
	if api.authCount() != 0 {
		t.Fatalf("expected no auth call, got %d", api.authCount())
	}
}

func TestCredentialsIgnoreStoreForOtherKey(t *testing.T) {
	store := &memoryStore{creds: Credentials{AuthMethod: "key", APIKey: "OTHER", SessionID: "X"}, ok: true}
	api := newFakeAPI(t)
	sessions := newTestClient(t, api, WithCredentialStore(store)).Sessions()

	creds, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if creds.SessionID != "SID" || api.authCount() != 1 {
		t.Fatalf("expected fresh auth, got %+v", creds)
	}
}

func TestCredentialsStoreErrorFallsBackToAuth(t *testing.T) {
	store := &memoryStore{loadErr: errors.New("redis down")}
	api := newFakeAPI(t)
	sessions := newTestClient(t, api, WithCredentialStore(store)).Sessions()

	if _, err := sessions.Credentials(context.Background(), false); err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if api.authCount() != 1 {
		t.Fatalf("expected auth after store failure, got %d", api.authCount())
	}
}

func TestRenewUpdatesStore(t *testing.T) {
	store := &memoryStore{}
	api := newFakeAPI(t)
	sessions := newTestClient(t, api, WithCredentialStore(store)).Sessions()

	stale, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if store.saves != 1 || store.creds != stale {
		t.Fatalf("expected session to be stored, got %+v", store.creds)
	}

	renewed, err := sessions.Renew(context.Background(), stale)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if store.deletes != 1 || store.saves != 2 || store.creds != renewed {
		t.Fatalf("unexpected store state %+v", store)
	}
}

func TestRenewPicksUpSessionSharedThroughStore(t *testing.T) {
	store := &memoryStore{}
	api := newFakeAPI(t)
	sessions := newTestClient(t, api, WithCredentialStore(store)).Sessions()

	stale, err := sessions.Credentials(context.Background(), false)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	shared := Credentials{AuthMethod: "key", APIKey: "K", Signature: "other", SessionID: "PEER"}
	store.creds = shared

	renewed, err := sessions.Renew(context.Background(), stale)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed != shared || api.authCount() != 1 {
		t.Fatalf("expected session written by another process, got %+v", renewed)
	}
}

func TestApplyKeepsUserParamsFirst(t *testing.T) {
	var params Params
	params.Set("foo", String("bar"))
	creds := Credentials{AuthMethod: "key", APIKey: "K", Signature: "sig", SessionID: "SID"}

	merged := creds.apply(params)
	keys := merged.Keys()
	want := []string{"foo", "_api_auth", "_api_key", "_api_sha", "_api_session"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
	if params.Len() != 1 {
		t.Fatalf("apply must not mutate the caller's params")
	}
}
