// Package session tracks issued bearer tokens in Valkey so they can be
// revoked before they expire. Each token's ID (the JWT "jti") maps to a
// small JSON record whose Valkey TTL matches the token lifetime.
//
// A Store without a client is disabled: every signed token counts as
// active and logout only discards the token on the client side.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"dominicanews/internal/models"
)

const (
	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "session:"

	// userPrefix holds the set of session IDs belonging to one user.
	userPrefix = "user-sessions:"
)

// Data holds the session payload stored in Valkey.
type Data struct {
	UserID    uuid.UUID   `json:"userId"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Store manages token sessions in Valkey.
type Store struct {
	client *redis.Client
}

// NewStore creates a session store backed by the given Valkey client.
// A nil client yields a disabled store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Enabled reports whether sessions are persisted.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Create records the session id for ttl.
func (s *Store) Create(ctx context.Context, id string, data *Data, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}

	data.CreatedAt = time.Now()
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	userKey := userPrefix + data.UserID.String()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+id, payload, ttl)
	pipe.SAdd(ctx, userKey, id)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Get returns the session for id, or nil if it expired or was revoked.
func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	if !s.Enabled() {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &data, nil
}

// Active reports whether the token with the given id may still be used.
// On a disabled store every token is active.
func (s *Store) Active(ctx context.Context, id string) (bool, error) {
	if !s.Enabled() {
		return true, nil
	}
	n, err := s.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("session exists: %w", err)
	}
	return n == 1, nil
}

// Destroy revokes a single session. Destroying an unknown id is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if !s.Enabled() {
		return nil
	}

	data, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keyPrefix+id)
	if data != nil {
		pipe.SRem(ctx, userPrefix+data.UserID.String(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	return nil
}

// DestroyUser revokes every session of a user except keep, which may be
// empty. It returns how many sessions were revoked.
func (s *Store) DestroyUser(ctx context.Context, userID uuid.UUID, keep string) (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	userKey := userPrefix + userID.String()
	ids, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("session list: %w", err)
	}

	var revoked []string
	for _, id := range ids {
		if id != keep {
			revoked = append(revoked, id)
		}
	}
	if len(revoked) == 0 {
		return 0, nil
	}

	keys := make([]string, len(revoked))
	members := make([]any, len(revoked))
	for i, id := range revoked {
		keys[i] = keyPrefix + id
		members[i] = id
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, userKey, members...)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("session destroy user: %w", err)
	}
	return len(revoked), nil
}
