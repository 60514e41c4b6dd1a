package lrustore

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	s := New(8, time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("empty store: found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if string(v) != "v" {
		t.Fatalf("Get=%q want v", v)
	}
}

func TestSizeBound(t *testing.T) {
	s := New(4, time.Minute)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := s.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	// Oldest entries must have been evicted.
	if _, found, _ := s.Get(ctx, "k0"); found {
		t.Fatalf("k0 should have been evicted")
	}
	if _, found, _ := s.Get(ctx, "k9"); !found {
		t.Fatalf("k9 should still be cached")
	}
}

func TestTTLExpiry(t *testing.T) {
	s := New(8, 20*time.Millisecond)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatalf("entry should have expired")
	}
}
