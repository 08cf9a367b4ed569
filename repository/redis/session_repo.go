package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/gameday/domain"
	"github.com/fastygo/gameday/repository"
)

const (
	sessionKeyPrefix   = "gameday:session:"
	userSessionsPrefix = "gameday:user-sessions:"
)

// sessionRepository stores each session as a JSON string with its own TTL and
// keeps a per-identity set of session ids so a logout can revoke them all.
// The index may briefly hold ids whose session already expired; ListUser
// prunes them.
type sessionRepository struct {
	client redislib.UniversalClient
	ttl    time.Duration
}

// NewSessionRepository creates a Redis-backed session repository. ttl applies
// when a caller passes none.
func NewSessionRepository(client redislib.UniversalClient, ttl time.Duration) repository.SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &sessionRepository{client: client, ttl: ttl}
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redislib.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) Save(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(ttl)
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
		pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
		return nil
	})
	return err
}

// Extend rewrites a live session, typically with a later ExpiresAt, and
// restarts its TTL. A session that is already gone is not recreated.
func (r *sessionRepository) Extend(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ok, err := r.client.SetXX(ctx, sessionKey(session.ID), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.Get(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, userSessionsKey(session.UserID), id)
		return nil
	})
	return err
}

// ListUser returns the sessions of userID that Redis still holds and drops
// index entries whose session key already expired.
func (r *sessionRepository) ListUser(ctx context.Context, userID string) ([]domain.Session, error) {
	index := userSessionsKey(userID)
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(values))
	var stale []interface{}
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var session domain.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			stale = append(stale, ids[i])
			continue
		}
		sessions = append(sessions, session)
	}
	if len(stale) > 0 {
		if err := r.client.SRem(ctx, index, stale...).Err(); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// RevokeUser deletes every session issued to userID and reports how many were live.
func (r *sessionRepository) RevokeUser(ctx context.Context, userID string) (int, error) {
	index := userSessionsKey(userID)
	ids, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	removed, err := r.client.Del(ctx, append(keys, index)...).Result()
	if err != nil {
		return 0, err
	}
	// DEL also counted the index key.
	return int(removed) - 1, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func userSessionsKey(userID string) string {
	return userSessionsPrefix + userID
}
