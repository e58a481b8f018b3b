package livespace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/livespace-sdk/pkg/redis"
)

// CredentialStore persists the active session outside the process so that
// several clients for the same account can share it. The session manager
// keeps its own in-memory copy; the store is consulted only when that copy
// is empty.
type CredentialStore interface {
	Load(ctx context.Context) (Credentials, bool, error)
	Save(ctx context.Context, creds Credentials) error
	Delete(ctx context.Context) error
}

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(fingerprint string) string
}

// RedisStore keeps credentials in Redis under a key derived from the API
// endpoint and key.
type RedisStore struct {
	kv  kvStore
	key string
	ttl time.Duration
}

// NewRedisStore builds a store for one account. ttl bounds how long a stored
// session is trusted; zero keeps it until it is invalidated.
func NewRedisStore(client *redisclient.Client, baseURL, apiKey string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newRedisStore(client, client, baseURL, apiKey, ttl), nil
}

func newRedisStore(kv kvStore, keyer sessionKeyer, baseURL, apiKey string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		kv:  kv,
		key: keyer.SessionKey(fingerprint(baseURL, apiKey)),
		ttl: ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context) (Credentials, bool, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, redisclient.ErrNotFound) {
			return Credentials{}, false, nil
		}
		return Credentials{}, false, err
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return Credentials{}, false, fmt.Errorf("decode stored credentials: %w", err)
	}
	if creds.IsZero() {
		return Credentials{}, false, nil
	}
	return creds, true, nil
}

func (s *RedisStore) Save(ctx context.Context, creds Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key, string(raw), s.ttl)
}

func (s *RedisStore) Delete(ctx context.Context) error {
	return s.kv.Del(ctx, s.key)
}

func fingerprint(baseURL, apiKey string) string {
	sum := sha256.Sum256([]byte(baseURL + "\x00" + apiKey))
	return hex.EncodeToString(sum[:12])
}
