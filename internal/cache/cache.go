// Package cache provides the key/value store used for short-lived state such
// as the admin stats snapshot and rejected payment signatures.
package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store with expiry.
type Cache interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// Noop is a cache that stores nothing. Every Get misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error)        { return "", false, nil }
func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }
func (Noop) Del(context.Context, ...string) error                     { return nil }
func (Noop) Close() error                                             { return nil }
