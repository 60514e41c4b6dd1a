// Package lrustore is the in-process covering cache: a size-bounded LRU
// with per-entry TTL expiry.
package lrustore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultSize = 4096

type Store struct {
	lru *expirable.LRU[string, []byte]
}

// New builds a store evicting beyond size entries or after ttl. The ttl
// applies store-wide; per-call TTLs passed to Set are ignored, matching the
// deterministic nature of covering values.
func New(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = defaultSize
	}
	return &Store{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

func (s *Store) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	s.lru.Add(key, val)
	return nil
}

func (s *Store) Close() error {
	s.lru.Purge()
	return nil
}

func (s *Store) Readiness() (bool, string) { return true, "lru" }
