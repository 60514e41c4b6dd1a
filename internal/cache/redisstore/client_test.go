package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates new store connected to miniredis for testing
func newMini(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	s, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestNew_RequiresAddr(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, ""); err == nil {
		t.Fatalf("expected error for empty address")
	}
}

func TestGetSetDel(t *testing.T) {
	s, _ := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("miss: found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, err := s.Get(ctx, "k1")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(v) != "v1" {
		t.Fatalf("Get=%q want v1", v)
	}

	if err := s.Del(ctx, "k1"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, found, _ := s.Get(ctx, "k1"); found {
		t.Fatalf("k1 should be gone after Del")
	}
}

func TestTTL(t *testing.T) {
	s, mr := newMini(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.Set(ctx, "k", []byte("v"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(time.Minute)
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("entry should have expired")
	}
}

func TestReadiness(t *testing.T) {
	s, mr := newMini(t)
	if ok, backend := s.Readiness(); !ok || backend != "redis" {
		t.Fatalf("Readiness=%v,%q want true,redis", ok, backend)
	}
	mr.Close()
	if ok, _ := s.Readiness(); ok {
		t.Fatalf("Readiness must fail after server shutdown")
	}
}
