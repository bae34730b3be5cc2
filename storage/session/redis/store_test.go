package redissession

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/slps/canteen/core/account"
)

// newTestStore connects to REDIS_URL; tests are skipped without it.
func newTestStore(t *testing.T) *Store {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("redis.ParseURL() failed: %v", err)
	}
	client := redis.NewClient(opts)
	if err = client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("Ping() failed: %v", err)
	}
	s := NewStore(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := account.Session{ID: uuid.NewString(), LoggedIn: true, UserID: "7", Role: account.RoleStudent, Name: "Ravi", ClassName: "5A"}
	if err := s.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := s.Get(ctx, sess.ID)
	if err != nil || got != sess {
		t.Errorf("Get() = %v, %v; want %v", got, err, sess)
	}
	if ttl := s.client.TTL(ctx, keyPrefix+sess.ID).Val(); ttl <= 0 || ttl > time.Hour {
		t.Errorf("TTL = %v, want (0, 1h]", ttl)
	}

	if err = s.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = s.Get(ctx, sess.ID); err != account.ErrSessionNotFound {
		t.Errorf("Get() deleted error = %v, want %v", err, account.ErrSessionNotFound)
	}
	if err = s.Delete(ctx, sess.ID); err != nil {
		t.Errorf("Delete() twice error = %v", err)
	}
}

func TestStore_expiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := account.Session{ID: uuid.NewString(), LoggedIn: true, UserID: "T-01", Role: account.RoleTeacher}
	if err := s.Save(ctx, sess, time.Second); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := s.Get(ctx, sess.ID); err != nil {
		t.Fatalf("Get() before expiry error = %v", err)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := s.Get(ctx, sess.ID); err != account.ErrSessionNotFound {
		t.Errorf("Get() expired error = %v, want %v", err, account.ErrSessionNotFound)
	}
}
