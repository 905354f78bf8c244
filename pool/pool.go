// Package pool is a generic free-list pool for record values: the registry's
// receive path decodes one value per incoming message, and a hot connection
// reusing those allocations needs a pool, not a fresh make() every time.
//
// Grounded on the teacher's encoding/bam FreePool: sharded local/shared
// queues sized off GOMAXPROCS, with power-of-two-choices load balancing on
// Put. The teacher pins goroutines to their P via go:linkname into the
// runtime scheduler to pick a shard for free; that trick is version-fragile
// and specific to pre-generics Go avoiding interface{} boxing. Since this
// pool is generic (FreePool[T]), the boxing problem it worked around does
// not apply, so shard selection here is a plain atomic round-robin counter
// instead of a runtime-internal call.
package pool

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

const maxPrivateElems = 4

type shard[T any] struct {
	mu      sync.Mutex
	private [maxPrivateElems]*T
	nlocal  int
	shared  []*T
	nshared int64
	_       [120]byte // avoid false sharing between shards
}

// FreePool is a sharded pool of *T, reused across Get/Put pairs to avoid
// per-message allocation on the receive path.
type FreePool[T any] struct {
	shards  []shard[T]
	maxSize int64
	new     func() *T
	counter uint64
}

// New returns a FreePool bounded to approximately maxSize elements across
// all shards, using newFn to allocate a fresh *T when the pool is empty.
// nshards should track expected concurrency (e.g. runtime.GOMAXPROCS(0),
// which is what registry.RegisterRecord passes).
func New[T any](nshards int, maxSize int64, newFn func() *T) *FreePool[T] {
	if nshards < 1 {
		nshards = 1
	}
	maxLocal := int64(-1)
	if maxSize > 0 {
		maxLocal = maxSize / int64(nshards)
		if maxLocal <= 0 {
			maxLocal = 1
		}
	}
	return &FreePool[T]{
		shards:  make([]shard[T], nshards),
		maxSize: maxLocal,
		new:     newFn,
	}
}

func (p *FreePool[T]) pick() *shard[T] {
	i := atomic.AddUint64(&p.counter, 1) % uint64(len(p.shards))
	return &p.shards[i]
}

// Get removes a value from the pool, allocating a new one via the pool's
// newFn if it is empty. It starts at the next round-robin shard and moves
// on to the other shards when that one holds nothing.
func (p *FreePool[T]) Get() *T {
	start := atomic.AddUint64(&p.counter, 1)
	n := uint64(len(p.shards))
	var x *T
	for i := uint64(0); x == nil && i < n; i++ {
		s := &p.shards[(start+i)%n]
		s.mu.Lock()
		if s.nlocal > 0 {
			s.nlocal--
			x = s.private[s.nlocal]
			s.private[s.nlocal] = nil
		} else if last := len(s.shared) - 1; last >= 0 {
			x = s.shared[last]
			s.shared = s.shared[:last]
			atomic.AddInt64(&s.nshared, -1)
		}
		s.mu.Unlock()
	}
	if x == nil {
		x = p.new()
	}
	return x
}

// Put returns x to the pool. The caller must not touch x again. Put
// balances across shards with power-of-two-choices: it compares the target
// shard's occupancy against one other random shard and adds to whichever is
// smaller, bounding worst-case imbalance at O(log log n) shards.
func (p *FreePool[T]) Put(x *T) {
	s := p.pick()
	s.mu.Lock()
	if s.nlocal < maxPrivateElems {
		s.private[s.nlocal] = x
		s.nlocal++
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	other := &p.shards[rand.Intn(len(p.shards))]
	target := s
	if atomic.LoadInt64(&other.nshared) < atomic.LoadInt64(&s.nshared) {
		target = other
	}
	target.mu.Lock()
	if p.maxSize < 0 || target.nshared < p.maxSize {
		target.shared = append(target.shared, x)
		atomic.AddInt64(&target.nshared, 1)
	}
	target.mu.Unlock()
}

// Len reports the approximate number of values currently held by the pool,
// for tests.
func (p *FreePool[T]) Len() int {
	n := 0
	for i := range p.shards {
		s := &p.shards[i]
		s.mu.Lock()
		n += s.nlocal + len(s.shared)
		s.mu.Unlock()
	}
	return n
}
