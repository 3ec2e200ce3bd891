package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/recolor/cache"
)

// resource stands in for a derived texture/material pair.
type resource struct {
	name string
	dead atomic.Bool
}

type releaseLog struct {
	mu    sync.Mutex
	calls []releaseCall
}

type releaseCall struct {
	r     *resource
	owned bool
}

func (l *releaseLog) hook(r *resource, owned bool) {
	l.mu.Lock()
	l.calls = append(l.calls, releaseCall{r, owned})
	l.mu.Unlock()
}

func (l *releaseLog) snapshot() []releaseCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]releaseCall(nil), l.calls...)
}

func newStore(log *releaseLog) *cache.Store[*resource] {
	return cache.New(
		cache.WithLiveness(func(r *resource) bool { return !r.dead.Load() }),
		cache.WithRelease(log.hook),
	)
}

func compute(name string, owned bool, counter *atomic.Int32) cache.ComputeFunc[*resource] {
	return func() (*resource, bool, error) {
		if counter != nil {
			counter.Add(1)
		}
		return &resource{name: name}, owned, nil
	}
}

func TestAcquireReleaseRestoresRefs(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	e, err := s.Acquire(1, compute("a", true, nil))
	require.NoError(t, err)
	assert.Equal(t, 1, e.Refs())
	assert.Equal(t, 1, s.Len())
	assert.True(t, e.Owned())

	assert.True(t, s.Release(e))
	assert.Equal(t, 0, e.Refs())
	assert.Equal(t, 0, s.Len())
	assert.True(t, e.Stale())

	calls := log.snapshot()
	require.Len(t, calls, 1)
	assert.Same(t, e.Value(), calls[0].r)
	assert.True(t, calls[0].owned)
}

func TestAcquireSameHashIsShared(t *testing.T) {
	var log releaseLog
	s := newStore(&log)
	var computes atomic.Int32

	a, err := s.Acquire(7, compute("a", true, &computes))
	require.NoError(t, err)
	b, err := s.Acquire(7, compute("b", true, &computes))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 2, a.Refs())
	assert.Equal(t, int32(1), computes.Load())
	assert.Equal(t, "a", b.Value().name)

	s.Release(a)
	assert.Equal(t, 1, s.Len(), "entry must stay indexed while held")
	assert.Empty(t, log.snapshot())

	s.Release(b)
	assert.Equal(t, 0, s.Len())
	assert.Len(t, log.snapshot(), 1)

	st := s.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
	assert.Equal(t, uint64(1), st.Releases)
}

func TestDoubleReleaseIsNoop(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	e, err := s.Acquire(1, compute("a", true, nil))
	require.NoError(t, err)

	assert.True(t, s.Release(e))
	assert.False(t, s.Release(e))
	assert.False(t, s.Release(nil))
	assert.Len(t, log.snapshot(), 1)
	assert.Equal(t, 0, e.Refs())
}

func TestReleaseForeignEntryIsNoop(t *testing.T) {
	var log releaseLog
	s1, s2 := newStore(&log), newStore(&log)

	e, err := s1.Acquire(1, compute("a", true, nil))
	require.NoError(t, err)
	assert.False(t, s2.Release(e))
	assert.Equal(t, 1, e.Refs())
}

func TestComputeFailureInsertsNothing(t *testing.T) {
	var log releaseLog
	s := newStore(&log)
	boom := errors.New("boom")

	e, err := s.Acquire(3, func() (*resource, bool, error) { return nil, false, boom })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, e)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, uint64(1), s.Stats().Failures)

	var computes atomic.Int32
	e, err = s.Acquire(3, compute("ok", true, &computes))
	require.NoError(t, err)
	assert.Equal(t, int32(1), computes.Load(), "failed hash must be recomputed")
	s.Release(e)
}

func TestDeadEntryIsSuperseded(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	old, err := s.Acquire(5, compute("old", true, nil))
	require.NoError(t, err)
	old.Value().dead.Store(true)

	fresh, err := s.Acquire(5, compute("fresh", true, nil))
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.True(t, old.Stale())
	assert.False(t, fresh.Stale())
	assert.Equal(t, 1, fresh.Refs())
	assert.Equal(t, uint64(1), s.Stats().Supersedes)

	// The old holder still releases its entry, exactly once, without
	// touching the entry that replaced it.
	s.Release(old)
	idx, ok := s.Lookup(5)
	require.True(t, ok)
	assert.Same(t, fresh, idx)
	calls := log.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "old", calls[0].r.name)

	s.Release(fresh)
	assert.Len(t, log.snapshot(), 2)
	assert.Equal(t, 0, s.Len())
}

func TestUnownedValueReleasedWithoutOwnership(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	e, err := s.Acquire(9, compute("reused", false, nil))
	require.NoError(t, err)
	s.Release(e)

	calls := log.snapshot()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].owned)
}

func TestTransfer(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	e, err := s.Acquire(2, compute("baked", true, nil))
	require.NoError(t, err)

	v := s.Transfer(e)
	assert.Same(t, e.Value(), v)
	assert.True(t, e.Stale())
	assert.False(t, e.Owned())
	assert.Equal(t, 0, s.Len())

	var computes atomic.Int32
	next, err := s.Acquire(2, compute("next", true, &computes))
	require.NoError(t, err)
	assert.NotSame(t, e, next)
	assert.Equal(t, int32(1), computes.Load())

	s.Release(e)
	calls := log.snapshot()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].owned, "transferred value must not be destroyed")
	s.Release(next)
}

func TestInvalidate(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	e, err := s.Acquire(4, compute("a", true, nil))
	require.NoError(t, err)
	assert.True(t, s.Invalidate(4))
	assert.False(t, s.Invalidate(4))
	assert.True(t, e.Stale())

	_, ok := s.Lookup(4)
	assert.False(t, ok)

	s.Release(e)
	assert.Len(t, log.snapshot(), 1)
}

func TestConcurrentMissesShareOneComputation(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	const n = 32
	var computes atomic.Int32
	slow := func() (*resource, bool, error) {
		computes.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &resource{name: "shared"}, true, nil
	}

	entries := make([]*cache.Entry[*resource], n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.Acquire(11, slow)
			if err == nil {
				entries[i] = e
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), computes.Load())
	for i := range entries {
		require.NotNil(t, entries[i])
		assert.Same(t, entries[0], entries[i])
	}
	assert.Equal(t, n, entries[0].Refs())

	for _, e := range entries {
		s.Release(e)
	}
	assert.Equal(t, 0, s.Len())
	assert.Len(t, log.snapshot(), 1)
}

func TestConcurrentFailureReachesEveryWaiter(t *testing.T) {
	s := cache.New[*resource]()
	boom := errors.New("boom")
	release := make(chan struct{})
	started := make(chan struct{})

	var leaderErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, leaderErr = s.Acquire(1, func() (*resource, bool, error) {
			close(started)
			<-release
			return nil, false, boom
		})
	}()
	<-started

	waiterDone := make(chan error, 1)
	go func() {
		_, err := s.Acquire(1, compute("late", true, nil))
		waiterDone <- err
	}()

	// Let the waiter either join the in-flight call or arrive after it.
	time.Sleep(10 * time.Millisecond)
	close(release)
	<-done

	assert.ErrorIs(t, leaderErr, boom)
	err := <-waiterDone
	if err != nil {
		assert.ErrorIs(t, err, boom)
	}
}

func TestDifferentHashesComputeConcurrently(t *testing.T) {
	s := cache.New[*resource]()

	var arrived sync.WaitGroup
	arrived.Add(2)
	barrier := make(chan struct{})
	go func() {
		arrived.Wait()
		close(barrier)
	}()

	blocking := func() (*resource, bool, error) {
		arrived.Done()
		select {
		case <-barrier:
			return &resource{}, true, nil
		case <-time.After(5 * time.Second):
			return nil, false, errors.New("computations were serialized")
		}
	}

	errs := make(chan error, 2)
	for h := range uint64(2) {
		go func() {
			_, err := s.Acquire(h, blocking)
			errs <- err
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.Equal(t, 2, s.Len())
}

func TestPanickingComputeReleasesHash(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	started := make(chan struct{})
	unblock := make(chan struct{})
	go func() {
		defer func() { _ = recover() }()
		_, _ = s.Acquire(9, func() (*resource, bool, error) {
			close(started)
			<-unblock
			panic("engine bug")
		})
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, err := s.Acquire(9, compute("never", true, nil))
		waiterErr <- err
	}()
	require.Eventually(t, func() bool { return s.Stats().Shared == 1 }, time.Second, time.Millisecond)
	close(unblock)

	select {
	case err := <-waiterErr:
		assert.ErrorIs(t, err, cache.ErrComputePanicked)
	case <-time.After(time.Second):
		t.Fatal("waiter still blocked after the computation panicked")
	}

	next := make(chan *cache.Entry[*resource], 1)
	go func() {
		e, err := s.Acquire(9, compute("fresh", true, nil))
		assert.NoError(t, err)
		next <- e
	}()
	select {
	case e := <-next:
		require.NotNil(t, e)
		assert.Equal(t, "fresh", e.Value().name)
		s.Release(e)
	case <-time.After(time.Second):
		t.Fatal("hash stayed blocked after the computation panicked")
	}
	assert.Equal(t, uint64(1), s.Stats().Failures)
	assert.Equal(t, 0, s.Len())
}

func TestSupersedeEntry(t *testing.T) {
	var log releaseLog
	s := newStore(&log)

	e, err := s.Acquire(12, compute("a", true, nil))
	require.NoError(t, err)
	assert.True(t, s.Supersede(e))
	assert.False(t, s.Supersede(e))
	assert.True(t, e.Stale())
	assert.Equal(t, uint64(1), s.Stats().Supersedes)

	_, ok := s.Lookup(12)
	assert.False(t, ok)

	s.Release(e)
	calls := log.snapshot()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].owned)
}
