// Package redissession keeps sessions in Redis so they survive restarts and are shared between instances.
package redissession

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/slps/canteen/core"
	"github.com/slps/canteen/core/account"
)

const keyPrefix = "canteen:session:"

type Store struct {
	client *redis.Client
}

var _ account.SessionStore = (*Store)(nil)

// Open connects to Redis and pings it.
func Open(ctx context.Context, conf core.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return &Store{client: client}, nil
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Save(ctx context.Context, sess account.Session, ttl time.Duration) error {
	data, err := json.Marshal(sessionRecord{ID: sess.ID, Session: sess})
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	return errors.Wrap(s.client.Set(ctx, keyPrefix+sess.ID, data, ttl).Err(), "saving session")
}

func (s *Store) Get(ctx context.Context, id string) (account.Session, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return account.Session{}, account.ErrSessionNotFound
	} else if err != nil {
		return account.Session{}, errors.Wrap(err, "reading session")
	}

	var rec sessionRecord
	if err = json.Unmarshal(data, &rec); err != nil {
		return account.Session{}, errors.Wrap(err, "decoding session")
	}
	rec.Session.ID = rec.ID
	return rec.Session, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return errors.Wrap(s.client.Del(ctx, keyPrefix+id).Err(), "deleting session")
}

// sessionRecord carries the ID that account.Session keeps out of its JSON.
type sessionRecord struct {
	ID string `json:"id"`
	account.Session
}
