package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/adaptation"
)

func newTestStore(t *testing.T, cfg Config) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_PutGet(t *testing.T) {
	s, mr := newTestStore(t, Config{})
	ctx := context.Background()

	want := models.NeurodiversityProfile{Autism: true, Anxiety: true}
	if err := s.Put(ctx, "user-1", want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Get(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
	if !mr.Exists("sense:profile:user-1") {
		t.Error("expected key with default prefix")
	}
}

func TestRedisStore_NotFound(t *testing.T) {
	s, _ := newTestStore(t, Config{})

	_, err := s.Get(context.Background(), "nobody")
	if !errors.Is(err, adaptation.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestRedisStore_CorruptValue(t *testing.T) {
	s, mr := newTestStore(t, Config{Prefix: "p:"})
	if err := mr.Set("p:user-1", "not json"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(context.Background(), "user-1"); err == nil {
		t.Error("expected a decode error")
	}
}

func TestRedisStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, Config{TTL: time.Minute})
	ctx := context.Background()

	if err := s.Put(ctx, "user-1", models.NeurodiversityProfile{ADHD: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ttl := mr.TTL("sense:profile:user-1"); ttl != time.Minute {
		t.Errorf("expected ttl 1m, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := s.Get(ctx, "user-1"); !errors.Is(err, adaptation.ErrProfileNotFound) {
		t.Errorf("expected expired profile to be gone, got %v", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	s, _ := newTestStore(t, Config{})
	ctx := context.Background()

	_ = s.Put(ctx, "user-1", models.NeurodiversityProfile{Dyslexia: true})
	if err := s.Delete(ctx, "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete(ctx, "user-1"); err != nil {
		t.Errorf("expected deleting a missing profile to succeed, got %v", err)
	}
	if _, err := s.Get(ctx, "user-1"); !errors.Is(err, adaptation.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestDial_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Dial(ctx, addr, "", 0, Config{}); err == nil {
		t.Error("expected an error dialing a closed server")
	}
}

func TestDial_OK(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := Dial(context.Background(), mr.Addr(), "", 0, Config{Prefix: "x:"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()
	if s.prefix != "x:" {
		t.Errorf("expected prefix x:, got %s", s.prefix)
	}
}
