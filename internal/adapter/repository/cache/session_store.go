package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix   = "session:"
	userSessionsPrefix = "user_sessions:"
)

// SessionStore records issued token IDs in Redis. A token is live while its key exists.
type SessionStore struct {
	client *redis.Client
}

func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Register(ctx context.Context, tokenID, userID string, ttl time.Duration) error {
	setKey := userSessionsPrefix + userID
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKeyPrefix+tokenID, userID, ttl)
		pipe.SAdd(ctx, setKey, tokenID)
		pipe.Expire(ctx, setKey, ttl)
		return nil
	})
	return err
}

func (s *SessionStore) IsActive(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SessionStore) Revoke(ctx context.Context, tokenID string) error {
	key := sessionKeyPrefix + tokenID
	userID, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, userSessionsPrefix+userID, tokenID)
		return nil
	})
	return err
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	setKey := userSessionsPrefix + userID
	tokenIDs, err := s.client.SMembers(ctx, setKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, sessionKeyPrefix+id)
	}
	keys = append(keys, setKey)
	return s.client.Del(ctx, keys...).Err()
}
