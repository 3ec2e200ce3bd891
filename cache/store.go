// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cache

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"go.trai.ch/zerr"
)

// ErrComputePanicked is returned to callers that waited on a computation
// which panicked instead of returning.
var ErrComputePanicked = zerr.New("cache computation panicked")

// ComputeFunc produces the value for a missing hash. owned reports whether
// the value exclusively owns its resources and must be released through
// the release hook.
type ComputeFunc[V any] func() (value V, owned bool, err error)

// Entry is one cached value. The hash and value never change; reference
// count, ownership and staleness are guarded by the owning Store.
type Entry[V any] struct {
	store *Store[V]
	hash  uint64
	value V

	refs  int
	owned bool
	stale bool
}

// Hash returns the content hash the entry was computed for.
func (e *Entry[V]) Hash() uint64 { return e.hash }

// Value returns the cached value.
func (e *Entry[V]) Value() V { return e.value }

// Refs returns the number of outstanding acquisitions.
func (e *Entry[V]) Refs() int {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.refs
}

// Owned reports whether releasing the entry destroys its resources.
func (e *Entry[V]) Owned() bool {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.owned
}

// Stale reports whether the entry has been detached from the index.
func (e *Entry[V]) Stale() bool {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	return e.stale
}

// call is an in-flight computation for one hash.
type call[V any] struct {
	done    chan struct{}
	waiters int
	entry   *Entry[V]
	err     error
}

// Stats holds store counters.
type Stats struct {
	Hits       uint64 // acquisitions served from the index
	Misses     uint64 // acquisitions that started a computation
	Shared     uint64 // acquisitions that joined an in-flight computation
	Failures   uint64 // computations that returned an error
	Supersedes uint64 // indexed entries replaced after failing the liveness probe
	Releases   uint64 // entries whose last holder released them
	Transfers  uint64 // entries handed to a new owner
}

// Store is a content-hash keyed, reference-counted cache.
//
// Store is safe for concurrent use.
type Store[V any] struct {
	mu       sync.Mutex
	index    map[uint64]*Entry[V]
	inflight map[uint64]*call[V]

	alive   func(V) bool
	release func(V, bool)
	logger  *slog.Logger

	hits, misses, shared, failures  atomic.Uint64
	supersedes, releases, transfers atomic.Uint64
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithLiveness sets the probe run on every hit. A cached value that fails
// the probe, e.g. because its resources were destroyed externally, is
// superseded by a fresh computation. The probe runs under the store lock
// and must not call back into the store.
func WithLiveness[V any](alive func(V) bool) Option[V] {
	return func(s *Store[V]) { s.alive = alive }
}

// WithRelease sets the hook run once when an entry's last holder releases
// it. owned is false for values that reuse resources owned elsewhere or
// were transferred.
func WithRelease[V any](release func(value V, owned bool)) Option[V] {
	return func(s *Store[V]) { s.release = release }
}

// WithLogger sets the logger for cache events.
func WithLogger[V any](l *slog.Logger) Option[V] {
	return func(s *Store[V]) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store.
func New[V any](opts ...Option[V]) *Store[V] {
	s := &Store[V]{
		index:    make(map[uint64]*Entry[V]),
		inflight: make(map[uint64]*call[V]),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire returns the live entry for hash, computing it on a miss, and
// counts the caller as a holder. Every successful Acquire must be matched
// by one Release.
//
// If compute fails nothing is inserted and the error is returned to the
// caller and to every caller that joined the same computation.
func (s *Store[V]) Acquire(hash uint64, compute ComputeFunc[V]) (*Entry[V], error) {
	s.mu.Lock()
	if e, ok := s.index[hash]; ok {
		if s.alive == nil || s.alive(e.value) {
			e.refs++
			refs := e.refs
			s.mu.Unlock()
			s.hits.Add(1)
			s.logger.Debug("cache hit", "hash", hash, "refs", refs)
			return e, nil
		}
		s.detach(e)
		s.supersedes.Add(1)
		s.logger.Debug("cache entry superseded", "hash", hash)
	}

	if c, ok := s.inflight[hash]; ok {
		c.waiters++
		s.mu.Unlock()
		s.shared.Add(1)
		<-c.done
		if c.err != nil {
			return nil, c.err
		}
		return c.entry, nil
	}

	c := &call[V]{done: make(chan struct{})}
	s.inflight[hash] = c
	s.mu.Unlock()
	s.misses.Add(1)
	s.logger.Debug("cache miss", "hash", hash)

	completed := false
	defer func() {
		if completed {
			return
		}
		// compute panicked: release the waiters with an error and let the
		// panic continue in this caller.
		s.mu.Lock()
		delete(s.inflight, hash)
		c.err = zerr.With(zerr.Wrap(ErrComputePanicked, "computation did not return"), "hash", hash)
		s.mu.Unlock()
		close(c.done)
		s.failures.Add(1)
	}()
	value, owned, err := compute()
	completed = true

	s.mu.Lock()
	delete(s.inflight, hash)
	if err != nil {
		c.err = err
	} else {
		c.entry = &Entry[V]{
			store: s,
			hash:  hash,
			value: value,
			refs:  1 + c.waiters,
			owned: owned,
		}
		s.index[hash] = c.entry
	}
	s.mu.Unlock()
	close(c.done)

	if err != nil {
		s.failures.Add(1)
		return nil, err
	}
	return c.entry, nil
}

// Supersede detaches e if it is still indexed, as a failed liveness probe
// would. Holders keep e until they release it; the next Acquire for its
// hash computes a new entry. Reports whether e was indexed.
func (s *Store[V]) Supersede(e *Entry[V]) bool {
	if e == nil || e.store != s {
		return false
	}
	s.mu.Lock()
	indexed := s.index[e.hash] == e
	s.detach(e)
	s.mu.Unlock()
	if indexed {
		s.supersedes.Add(1)
		s.logger.Debug("cache entry superseded", "hash", e.hash)
	}
	return indexed
}

// Release drops one holder of e. When the last holder releases, the entry
// leaves the index (if it is still indexed as e) and the release hook runs
// exactly once. Releasing an entry with no holders is a no-op and reports
// false.
func (s *Store[V]) Release(e *Entry[V]) bool {
	if e == nil || e.store != s {
		return false
	}

	s.mu.Lock()
	if e.refs == 0 {
		s.mu.Unlock()
		return false
	}
	e.refs--
	if e.refs > 0 {
		s.mu.Unlock()
		return true
	}
	s.detach(e)
	owned := e.owned
	s.mu.Unlock()

	s.releases.Add(1)
	if s.release != nil {
		s.release(e.value, owned)
	}
	return true
}

// Transfer hands the value of e to a new owner. The entry is detached so
// no later Acquire can return it, and its ownership flag is cleared so the
// final Release does not destroy the transferred resources. Holders must
// still Release the entry.
func (s *Store[V]) Transfer(e *Entry[V]) V {
	s.mu.Lock()
	s.detach(e)
	e.owned = false
	s.mu.Unlock()
	s.transfers.Add(1)
	return e.value
}

// Invalidate detaches the entry indexed for hash. Current holders keep the
// entry until they release it; the next Acquire computes a new one.
// Reports whether an entry was indexed.
func (s *Store[V]) Invalidate(hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[hash]
	if ok {
		s.detach(e)
	}
	return ok
}

// Lookup returns the entry indexed for hash without acquiring it.
func (s *Store[V]) Lookup(hash uint64) (*Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[hash]
	return e, ok
}

// Len returns the number of indexed entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.index)
}

// Stats returns a snapshot of the store counters.
func (s *Store[V]) Stats() Stats {
	return Stats{
		Hits:       s.hits.Load(),
		Misses:     s.misses.Load(),
		Shared:     s.shared.Load(),
		Failures:   s.failures.Load(),
		Supersedes: s.supersedes.Load(),
		Releases:   s.releases.Load(),
		Transfers:  s.transfers.Load(),
	}
}

// detach marks e stale and removes it from the index if it is indexed.
// s.mu must be held.
func (s *Store[V]) detach(e *Entry[V]) {
	e.stale = true
	if s.index[e.hash] == e {
		delete(s.index, e.hash)
	}
}
