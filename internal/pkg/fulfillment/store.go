package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefixes, one index per record kind
	transactionKeyPrefix = "txn_"
	tokenKeyPrefix       = "token_"
)

// TransactionRecord marks a transaction as processed. Its presence is the
// idempotency gate: a transaction with a record is never fulfilled twice.
type TransactionRecord struct {
	DownloadToken string    `json:"download_token"`
	CreatedAt     time.Time `json:"created_at"`
}

// TokenRecord grants time-bounded access to one object in blob storage.
type TokenRecord struct {
	ResourceKey string    `json:"resource_key"`
	ProductID   string    `json:"product_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token grants access at the given time. The
// boundary is strict: a token is already invalid at exactly ExpiresAt.
func (r *TokenRecord) Valid(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}

// TokenStore is the durable key-value map behind fulfillment. It provides
// two independent indices with no cross-key transaction guarantee; a missing
// key is reported as a nil record, never as an error. Because there is no
// check-and-set, two concurrent first deliveries of one transaction can both
// pass the idempotency gate and mint independent tokens; both grant the same
// object, so the race is tolerated.
type TokenStore interface {
	GetTransaction(ctx context.Context, transactionID string) (*TransactionRecord, error)
	PutTransaction(ctx context.Context, transactionID string, rec TransactionRecord) error
	GetToken(ctx context.Context, token string) (*TokenRecord, error)
	PutToken(ctx context.Context, token string, rec TokenRecord) error
}

// RedisStore is the production TokenStore, storing JSON records under
// prefixed keys with no TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a TokenStore backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) GetTransaction(ctx context.Context, transactionID string) (*TransactionRecord, error) {
	var rec TransactionRecord
	ok, err := s.getJSON(ctx, transactionKeyPrefix+transactionID, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) PutTransaction(ctx context.Context, transactionID string, rec TransactionRecord) error {
	return s.putJSON(ctx, transactionKeyPrefix+transactionID, rec)
}

func (s *RedisStore) GetToken(ctx context.Context, token string) (*TokenRecord, error) {
	var rec TokenRecord
	ok, err := s.getJSON(ctx, tokenKeyPrefix+token, &rec)
	if err != nil || !ok {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) PutToken(ctx context.Context, token string, rec TokenRecord) error {
	return s.putJSON(ctx, tokenKeyPrefix+token, rec)
}

func (s *RedisStore) getJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("store decode %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisStore) putJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("store put %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process TokenStore for tests.
type MemoryStore struct {
	mu           sync.RWMutex
	transactions map[string]TransactionRecord
	tokens       map[string]TokenRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transactions: make(map[string]TransactionRecord),
		tokens:       make(map[string]TokenRecord),
	}
}

func (s *MemoryStore) GetTransaction(_ context.Context, transactionID string) (*TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.transactions[transactionID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) PutTransaction(_ context.Context, transactionID string, rec TransactionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[transactionID] = rec
	return nil
}

func (s *MemoryStore) GetToken(_ context.Context, token string) (*TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) PutToken(_ context.Context, token string, rec TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = rec
	return nil
}

// TokenCount reports how many token records exist; test helper.
func (s *MemoryStore) TokenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
