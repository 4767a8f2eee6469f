package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tablecall/tablecall/internal/dependencies/clock"
	"github.com/tablecall/tablecall/internal/domain/session"
)

// SessionStore keeps sessions in Redis as JSON with a sliding TTL.
type SessionStore struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

var _ session.Store = (*SessionStore)(nil)

// New connects to Redis and verifies the connection.
func New(cfg Config, clk clock.Clock) (*SessionStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, cfg, clk), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *SessionStore {
	return &SessionStore{client: client, cfg: cfg, clock: clk}
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) Load(ctx context.Context, chatID int64) (*session.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.New(chatID), nil
		}
		return nil, err
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	sess.ChatID = chatID
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	stored := sess.Clone()
	stored.UpdatedAt = s.clock.Now()
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(sess.ChatID), data, s.cfg.SessionTTL).Err()
}

func (s *SessionStore) Clear(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, sessionKey(chatID)).Err()
}
