// Package pool provides bounded recyclers for fixed-size byte slices, used to
// avoid repeated trips into the Go allocator for short-lived buffers that are
// allocated and freed in bursts.
package pool

import "sync"

// LimitedBytes is a bounded, size-classed recycler of []byte. Unlike
// sync.Pool, a LimitedBytes never drops its free list under GC pressure and
// only recycles buffers of bufSize capacity (a request larger than bufSize
// gets a fresh buffer that bypasses the free list), which makes it suitable for
// backing fixed-size slabs (arena chunks, WAL encode buffers) where the
// caller always asks for the same size and wants a hard cap on how much idle
// memory the recycler can hoard.
type LimitedBytes struct {
	mu      sync.Mutex
	free    [][]byte
	max     int
	bufSize int
}

// NewLimitedBytes returns a recycler that holds on to at most max buffers of
// bufSize bytes each.
func NewLimitedBytes(max int, bufSize int) *LimitedBytes {
	return &LimitedBytes{
		max:     max,
		bufSize: bufSize,
	}
}

// Get returns a buffer of length sz. When sz is at most the pool's bufSize,
// the buffer is recycled from the free list (or freshly allocated) with
// capacity bufSize and truncated to sz; when sz exceeds bufSize, a fresh
// sz-byte buffer is allocated and the free list is not touched.
func (p *LimitedBytes) Get(sz int) []byte {
	if sz > p.bufSize {
		return make([]byte, sz)
	}

	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		return make([]byte, sz, p.bufSize)
	}
	buf := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.mu.Unlock()

	return buf[:sz]
}

// Put returns a buffer to the pool. Buffers that are undersized for this
// pool's bufSize, or that would push the free list past its high-water mark,
// are discarded rather than retained.
func (p *LimitedBytes) Put(buf []byte) {
	if cap(buf) < p.bufSize {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free) >= p.max {
		return
	}
	p.free = append(p.free, buf[:cap(buf)])
}

// Len reports the number of buffers currently held by the pool. Intended for
// tests and diagnostics.
func (p *LimitedBytes) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
