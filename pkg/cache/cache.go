// Package cache provides the byte cache behind the enhancement client.
//
// Enhanced tiles are expensive: every one is a round trip to the remote
// super-sampler. The pipeline hashes each raw tile and looks the result
// up here first, so re-running a job over the same coordinates only pays
// for tiles it has not seen.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: JSON entries on local disk, for the CLI
//   - [RedisCache]: shared cache for several pipeline hosts
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer]. [WithPrefix] namespaces them so several
// deployments can share one Redis without collisions.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs.
const (
	// TTLEnhanced is how long enhanced tiles are kept.
	TTLEnhanced = 7 * 24 * time.Hour

	// TTLRender is how long raw renders are kept.
	TTLRender = 24 * time.Hour
)

// NullCache never stores anything. Every Get is a miss.
type NullCache struct{}

// NewNullCache returns the disabled cache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
