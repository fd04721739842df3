package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"presence/internal/nonce/models"
	"presence/pkg/platform/sentinel"
)

// nonceKeyPrefix namespaces nonce records in Redis.
const nonceKeyPrefix = "nonce:"

// redisNonce is the wire form stored in Redis. Instants are unix milliseconds
// so the consume script can compare them without date parsing.
type redisNonce struct {
	ID           string `json:"id"`
	NodeID       string `json:"nodeId"`
	IssuedAtMs   int64  `json:"issuedAtMs"`
	ExpiresAtMs  int64  `json:"expiresAtMs"`
	ConsumedAtMs int64  `json:"consumedAtMs,omitempty"`
}

func (r redisNonce) toModel() *models.Nonce {
	n := &models.Nonce{
		ID:        r.ID,
		NodeID:    r.NodeID,
		IssuedAt:  time.UnixMilli(r.IssuedAtMs),
		ExpiresAt: time.UnixMilli(r.ExpiresAtMs),
	}
	if r.ConsumedAtMs != 0 {
		at := time.UnixMilli(r.ConsumedAtMs)
		n.ConsumedAt = &at
	}
	return n
}

// consumeScript performs the check-then-set atomically on the Redis side.
// Expiry is checked before the used flag, matching the store contract.
// Returns {status, payload} where payload is the record JSON when present.
var consumeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return {'NOT_FOUND', ''}
end
local rec = cjson.decode(raw)
local now = tonumber(ARGV[1])
if rec.expiresAtMs <= now then
  return {'EXPIRED', raw}
end
if rec.consumedAtMs then
  return {'ALREADY_USED', raw}
end
rec.consumedAtMs = now
local updated = cjson.encode(rec)
local ttl = redis.call('PTTL', KEYS[1])
if ttl > 0 then
  redis.call('SET', KEYS[1], updated, 'PX', ttl)
else
  redis.call('SET', KEYS[1], updated)
end
return {'OK', updated}
`)

// RedisStore is the Redis-backed nonce registry for multi-instance
// deployments. Keys carry a ttl+grace expiry so Redis itself performs the
// sweep; within the grace window an expired record still answers ErrExpired.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed nonce store. The client lifecycle is
// managed by the caller.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, nodeID string, ttl time.Duration) (*models.Nonce, error) {
	now := time.Now()
	rec := redisNonce{
		ID:          uuid.NewString(),
		NodeID:      nodeID,
		IssuedAtMs:  now.UnixMilli(),
		ExpiresAtMs: now.Add(ttl).UnixMilli(),
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal nonce: %w", err)
	}

	// NX guards against the (negligible) id collision: a collision surfaces
	// as an invariant violation rather than silently overwriting a record.
	set, err := s.client.SetNX(ctx, nonceKeyPrefix+rec.ID, payload, ttl+models.SweepGrace).Result()
	if err != nil {
		return nil, fmt.Errorf("store nonce: %w", err)
	}
	if !set {
		return nil, fmt.Errorf("nonce id collision %s: %w", rec.ID, sentinel.ErrInvalidState)
	}
	return rec.toModel(), nil
}

func (s *RedisStore) Consume(ctx context.Context, id string, now time.Time) (*models.Nonce, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{nonceKeyPrefix + id}, now.UnixMilli()).Slice()
	if err != nil {
		return nil, fmt.Errorf("consume nonce: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("consume script returned %d values: %w", len(res), sentinel.ErrInvalidState)
	}

	status, _ := res[0].(string)
	raw, _ := res[1].(string)

	var record *models.Nonce
	if raw != "" {
		var rec redisNonce
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode nonce record: %w", err)
		}
		record = rec.toModel()
	}

	switch status {
	case "OK":
		return record, nil
	case "NOT_FOUND":
		return nil, fmt.Errorf("nonce %s: %w", id, sentinel.ErrNotFound)
	case "EXPIRED":
		return record, fmt.Errorf("nonce %s: %w", id, sentinel.ErrExpired)
	case "ALREADY_USED":
		return record, fmt.Errorf("nonce %s: %w", id, sentinel.ErrAlreadyUsed)
	default:
		return nil, fmt.Errorf("consume script status %q: %w", status, sentinel.ErrInvalidState)
	}
}

// Sweep is a no-op for the Redis backend: keys are written with a ttl+grace
// expiry and Redis removes them itself. Kept on the interface so the sweeper
// runs identically against either backend.
func (s *RedisStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
