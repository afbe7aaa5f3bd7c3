// Package cache provides the response cache used between runs.
//
// Fetched ticket payloads are stored under a key derived from the request
// signature (subdomain, group, status filter, date window), so a repeated
// run with identical parameters can skip the API entirely. Entries carry a
// TTL; stale entries are treated as misses.
//
// Two real backends exist: a file-backed cache for normal single-operator
// use, and a Redis-backed cache for operators who already run Redis and
// want to share the cache across machines. [NullCache] disables caching.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores raw response payloads keyed by request signature.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss
	// (including expired entries).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Key generates a cache key by hashing the signature components.
// The key format is: prefix:hash(parts...)
func Key(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
