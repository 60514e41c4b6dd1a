// Package cache defines the covering-result cache consumed by the service
// layer. The engine itself stays pure; memoization lives out here.
package cache

import (
	"context"
	"time"
)

// Store is a byte-value cache keyed by covering fingerprints. Get reports
// a miss with found=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}
