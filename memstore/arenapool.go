package memstore

import "github.com/influxdata/memstore/pkg/pool"

// ArenaPool is a process-wide cache of free arena chunks, shared by every
// MemStore that has arena use enabled. It is built directly on top of
// pkg/pool.LimitedBytes: an arena chunk is just a fixed-size byte slice, and
// checkout/check-in is exactly the bounded recycler that package provides.
type ArenaPool struct {
	chunks    *pool.LimitedBytes
	chunkSize int
}

// NewArenaPool returns a pool that recycles chunkSize-byte chunks, retaining
// at most maxChunks of them between uses.
func NewArenaPool(chunkSize, maxChunks int) *ArenaPool {
	return &ArenaPool{
		chunks:    pool.NewLimitedBytes(maxChunks, chunkSize),
		chunkSize: chunkSize,
	}
}

// CheckOut returns a chunkSize-byte buffer, recycled from a prior check-in
// if one is available.
func (p *ArenaPool) CheckOut() []byte {
	return p.chunks.Get(p.chunkSize)
}

// CheckIn returns buf to the pool for reuse, subject to the pool's
// high-water mark.
func (p *ArenaPool) CheckIn(buf []byte) {
	p.chunks.Put(buf)
}

// Disabled reports whether arena use is switched off, in which case Arena
// construction is skipped entirely and cells keep their caller-provided
// bytes.
func (p *ArenaPool) Disabled() bool {
	return p == nil
}
