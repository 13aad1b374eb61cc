package github

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores fetch results for a bounded time.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Add(key K, value V)
	Remove(key K)
	Purge()
}

// NewCache returns an expiring LRU cache holding at most size entries.
func NewCache[K comparable, V any](size int, ttl time.Duration) Cache[K, V] {
	return &lruCache[K, V]{lru: expirable.NewLRU[K, V](size, nil, ttl)}
}

type lruCache[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

func (c *lruCache[K, V]) Get(key K) (V, bool) { return c.lru.Get(key) }
func (c *lruCache[K, V]) Add(key K, value V) { c.lru.Add(key, value) }
func (c *lruCache[K, V]) Remove(key K) { c.lru.Remove(key) }
func (c *lruCache[K, V]) Purge() { c.lru.Purge() }

// NoCache never stores anything.
type NoCache[K comparable, V any] struct{}

func (NoCache[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}
func (NoCache[K, V]) Add(K, V) {}
func (NoCache[K, V]) Remove(K) {}
func (NoCache[K, V]) Purge() {}

// Cache lifetimes and sizes.
const (
	TreeTTL   = 30 * time.Minute
	BranchTTL = time.Hour
	GistTTL   = 30 * time.Minute

	cacheSize = 128
)

type repoKey struct{ owner, repo string }

type treeKey struct{ owner, repo, branch string }
