package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ecobank:idemp:"

const (
	statePending = "pending"
	stateDone    = "done"
)

// storedResponse is what a request id maps to in Redis: a pending marker
// while the handler runs, then the response to replay.
type storedResponse struct {
	State       string    `json:"state"`
	Fingerprint string    `json:"fingerprint"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	RequestAt   time.Time `json:"request_at"`
	StoredAt    time.Time `json:"stored_at"`
}

func (s storedResponse) replayable() bool { return s.State == stateDone && s.Status != 0 }

// fingerprint binds a request id to one exact payload.
func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// responseKey scopes a request id to the route pattern and the caller, so two
// accounts can never collide on the same id.
func responseKey(method, route, actorID, requestID string) string {
	return keyPrefix + actorID + ":" + method + ":" + route + ":" + requestID
}

type responseStore struct {
	rdb redis.Cmdable
	// bounds how long a crashed handler can block its request id
	pendingTTL time.Duration
	ttl        time.Duration
}

// reserve claims key for a new request. It reports false when the key is
// already pending or done.
func (s *responseStore) reserve(ctx context.Context, key string, r storedResponse) (bool, error) {
	r.State = statePending
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, s.pendingTTL).Result()
}

// lookup returns the stored entry; redis.Nil surfaces when it expired in
// between.
func (s *responseStore) lookup(ctx context.Context, key string) (storedResponse, error) {
	var r storedResponse
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, errors.Join(errors.New("corrupt idempotency entry"), err)
	}
	return r, nil
}

func (s *responseStore) complete(ctx context.Context, key string, r storedResponse) error {
	r.State = stateDone
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

func (s *responseStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
