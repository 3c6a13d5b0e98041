package memstore

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DeepOverhead is the fixed heap overhead attributed to an empty MemStore:
// its lock, its counters, and the two (empty) OrderedCellSets it always
// holds. heapSize() never reports less than this.
const DeepOverhead int64 = 256

// MemStore is the in-memory write buffer for a single column family of a
// single region. Writers add/delete/updateColumnValue into its live set;
// a flusher periodically calls Snapshot to move the live set aside and
// ClearSnapshot once the flushed copy has safely reached disk. Readers
// obtain a MemStoreScanner that merges the live and snapshot sets under a
// single MVCC read point.
//
// MemStore's RWMutex read side is held by every writer and every reader
// (Add, Delete, UpdateColumnValue, GetNextRow, GetRowKeyAtOrBefore,
// GetScanners); only Snapshot and ClearSnapshot take the write side, and
// only for the brief time needed to rotate references.
type MemStore struct {
	cmp  Comparator
	mvcc *MVCC
	pool *ArenaPool
	cfg  Config

	logger  *zap.Logger
	metrics *Metrics

	lock sync.RWMutex

	liveSet     *OrderedCellSet
	snapshotSet *OrderedCellSet

	liveArena     *Arena
	snapshotArena *Arena

	liveTimeRange     *TimeRangeTracker
	snapshotTimeRange *TimeRangeTracker

	heapSize         atomic.Int64
	snapshotHeapSize atomic.Int64
	smallestWriteSeq atomic.Uint64

	deletesInLive     atomic.Uint64
	deletesInSnapshot atomic.Uint64

	flushStart time.Time // guarded by lock; zero when no flush is outstanding
}

// New returns a MemStore for one column family, using cmp as its cell
// ordering and mvcc as the process-wide MVCC controller. pool is the
// process-wide ArenaPool; it is only consulted when cfg.UseArena is true,
// and a private pool is created if pool is nil in that case. path labels
// the MemStore's metrics.
func New(cfg Config, cmp Comparator, mvcc *MVCC, pool *ArenaPool, path string) *MemStore {
	cfg.WithDefaults()

	m := &MemStore{
		cmp:     cmp,
		mvcc:    mvcc,
		pool:    pool,
		cfg:     cfg,
		logger:  zap.NewNop(),
		metrics: NewMetrics(path),
	}
	m.liveSet = NewOrderedCellSet(cmp, cfg.RowPrefixBloomLength)
	m.snapshotSet = NewOrderedCellSet(cmp, cfg.RowPrefixBloomLength)
	m.liveTimeRange = NewTimeRangeTracker()
	m.snapshotTimeRange = NewTimeRangeTracker()
	m.smallestWriteSeq.Store(^uint64(0))
	m.heapSize.Store(DeepOverhead)

	if cfg.UseArena {
		if m.pool == nil {
			m.pool = NewArenaPool(cfg.ArenaChunkBytes, cfg.ArenaPoolMaxChunks)
		}
		m.liveArena = NewArena(m.pool, cfg.ArenaChunkBytes)
	}
	return m
}

// WithLogger attaches l to the MemStore, tagged with its component name.
func (m *MemStore) WithLogger(l *zap.Logger) *MemStore {
	m.logger = l.With(zap.String("service", "memstore"))
	return m
}

// Collectors returns the MemStore's prometheus collectors, for
// registration with a prometheus.Registerer.
func (m *MemStore) Collectors() []prometheus.Collector {
	return m.metrics.Collectors()
}

// Add inserts cell into the live set under seqNum, the write sequence
// already assigned to it by the WAL append path (MemStore never calls
// MVCC.AssignWriteSeq itself). It returns the number of heap bytes the
// insert added, or 0 if an equal cell was already present.
func (m *MemStore) Add(cell *Cell, seqNum uint64) int64 {
	return m.insert(cell, seqNum)
}

// Delete inserts a delete-marker cell along exactly the same path as Add;
// the delete semantics live entirely in cell.Type.
func (m *MemStore) Delete(cell *Cell, seqNum uint64) int64 {
	return m.insert(cell, seqNum)
}

func (m *MemStore) insert(cell *Cell, seqNum uint64) int64 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	stored := cell
	if m.liveArena != nil {
		if clone, ok := m.liveArena.CloneCell(cell); ok {
			stored = clone
		}
	}
	stored.WriteSeq = seqNum

	if !m.liveSet.Add(stored) {
		return 0
	}

	delta := int64(stored.HeapSize())
	m.heapSize.Add(delta)
	m.liveTimeRange.Update(stored.Timestamp)
	if stored.Type.IsDelete() {
		m.deletesInLive.Add(1)
	}
	shrinkToward(&m.smallestWriteSeq, seqNum)
	m.metrics.heapSize.Set(float64(m.heapSize.Load()))
	return delta
}

// shrinkToward CAS-loops v down to seqNum whenever seqNum is smaller than
// v's current value, implementing "CAS-shrink smallestWriteSeq toward
// seqNum" without ever needing a separate lock.
func shrinkToward(v *atomic.Uint64, seqNum uint64) {
	for {
		cur := v.Load()
		if seqNum >= cur {
			return
		}
		if v.CompareAndSwap(cur, seqNum) {
			return
		}
	}
}

// UpdateColumnValue implements the in-place counter upsert: it inserts a
// new Put cell carrying newValue (encoded as an 8-byte big-endian int64,
// the smallest faithful wire form for a counter) with WriteSeq 0 -- so the
// write is immediately visible to every reader regardless of MVCC read
// point -- and then, within the same read-lock scope, retires every prior
// Put for the exact same (row, family, qualifier). Delete cells and cells
// of other qualifiers are left untouched; the walk stops at the first
// different row.
func (m *MemStore) UpdateColumnValue(row, family, qualifier []byte, newValue, now int64, seqNum uint64) int64 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	newCell := NewCell(row, family, qualifier, now, TypePut, encodeCounter(newValue))
	newCell.WriteSeq = 0

	stored := newCell
	if m.liveArena != nil {
		if clone, ok := m.liveArena.CloneCell(newCell); ok {
			stored = clone
		}
	}

	var delta int64
	if m.liveSet.Add(stored) {
		delta += int64(stored.HeapSize())
		m.liveTimeRange.Update(stored.Timestamp)
		shrinkToward(&m.smallestWriteSeq, stored.WriteSeq)
	}

	probe := CreateFirstOnRow(row, family, qualifier)
	for _, c := range m.liveSet.TailRange(probe) {
		if !bytes.Equal(c.Row, row) {
			break
		}
		if c == stored {
			continue
		}
		if c.Type != TypePut || !sameQualifier(c, stored) {
			continue
		}
		m.liveSet.remove(c)
		delta -= int64(c.HeapSize())
	}

	m.heapSize.Add(delta)
	m.metrics.heapSize.Set(float64(m.heapSize.Load()))
	return delta
}

func encodeCounter(v int64) []byte {
	u := uint64(v)
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}

// GetNextRow returns the smallest cell, across both sets, whose row is
// strictly greater than cell.Row, or the globally smallest cell if cell
// is nil.
func (m *MemStore) GetNextRow(cell *Cell) *Cell {
	m.lock.RLock()
	defer m.lock.RUnlock()

	var probe *Cell
	if cell == nil {
		probe = &Cell{}
	} else {
		probe = CreateFirstOnRow(nextRowAfter(cell.Row), nil, nil)
	}

	var best *Cell
	for _, set := range [2]*OrderedCellSet{m.liveSet, m.snapshotSet} {
		tail := set.TailRange(probe)
		if len(tail) == 0 {
			continue
		}
		c := tail[0]
		if best == nil || m.cmp.Compare(c, best) < 0 {
			best = c
		}
	}
	return best
}

// nextRowAfter returns the lexicographically smallest byte string strictly
// greater than row: row with a trailing zero byte appended. No string
// exists between the two under bytewise comparison.
func nextRowAfter(row []byte) []byte {
	next := make([]byte, len(row)+1)
	copy(next, row)
	return next
}

// GetRowKeyAtOrBefore implements the closest-row-at-or-before probe,
// delegating the actual forward/backward walk to rowkey.go's
// getRowKeyAtOrBefore so this file stays about MemStore state management.
func (m *MemStore) GetRowKeyAtOrBefore(tracker TrackerState) *Cell {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return getRowKeyAtOrBefore(m.liveSet, m.snapshotSet, tracker)
}

// Snapshot moves the live set aside for flushing. If a snapshot is already
// outstanding, or the live set is empty, it is a no-op; the former case
// logs a warning since it likely means the flusher fell behind.
func (m *MemStore) Snapshot() {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.snapshotSet.IsEmpty() {
		m.logger.Warn("snapshot requested while a previous snapshot is still outstanding; ignoring")
		return
	}
	if m.liveSet.IsEmpty() {
		return
	}

	m.snapshotSet = m.liveSet
	m.snapshotTimeRange = m.liveTimeRange
	m.snapshotArena = m.liveArena
	m.snapshotHeapSize.Store(m.heapSize.Load() - DeepOverhead)
	m.deletesInSnapshot.Store(m.deletesInLive.Load())

	m.liveSet = NewOrderedCellSet(m.cmp, m.cfg.RowPrefixBloomLength)
	m.liveTimeRange = NewTimeRangeTracker()
	m.liveArena = nil
	if m.cfg.UseArena {
		m.liveArena = NewArena(m.pool, m.cfg.ArenaChunkBytes)
	}
	m.heapSize.Store(DeepOverhead)
	m.deletesInLive.Store(0)
	m.smallestWriteSeq.Store(^uint64(0))

	m.flushStart = time.Now()
	m.metrics.snapshotCount.Set(1)
	m.metrics.flushableSize.Set(float64(m.snapshotHeapSize.Load()))
	m.metrics.heapSize.Set(float64(m.heapSize.Load()))
	m.logger.Info("memstore snapshot taken",
		zap.String("flushable", humanize.Bytes(uint64(m.snapshotHeapSize.Load()))))
}

// GetSnapshot returns the current snapshot set reference, for the flusher
// to read and eventually pass back to ClearSnapshot.
func (m *MemStore) GetSnapshot() *OrderedCellSet {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.snapshotSet
}

// ClearSnapshot retires the snapshot identified by ref, once its flush has
// landed on disk. It returns ErrUnexpectedSnapshot without changing any
// state if ref is not the MemStore's current snapshot set. The stolen
// Arena is closed outside the write lock: closing may eventually talk to
// the ArenaPool, which must never happen while the lock that excludes
// every writer and reader is held.
func (m *MemStore) ClearSnapshot(ref *OrderedCellSet) error {
	m.lock.Lock()

	if ref != m.snapshotSet {
		m.lock.Unlock()
		return ErrUnexpectedSnapshot
	}

	stolen := m.snapshotArena
	m.snapshotSet = NewOrderedCellSet(m.cmp, m.cfg.RowPrefixBloomLength)
	m.snapshotTimeRange = NewTimeRangeTracker()
	m.snapshotArena = nil
	m.snapshotHeapSize.Store(0)
	m.deletesInSnapshot.Store(0)

	var flushDuration time.Duration
	if !m.flushStart.IsZero() {
		flushDuration = time.Since(m.flushStart)
		m.flushStart = time.Time{}
	}
	m.metrics.snapshotCount.Set(0)
	m.metrics.flushableSize.Set(0)
	m.metrics.flushes.Inc()
	m.metrics.flushSeconds.Add(flushDuration.Seconds())

	m.lock.Unlock()

	stolen.Close()
	return nil
}

// GetScanners builds one MemStoreScanner over the current live and
// snapshot sets, under the read lock, and returns it in a single-element
// slice, leaving room for a future multi-scanner split without changing
// the call signature.
func (m *MemStore) GetScanners() []*MemStoreScanner {
	m.lock.RLock()
	defer m.lock.RUnlock()

	s := newMemStoreScanner(
		m.cmp, m.mvcc,
		m.liveSet, m.snapshotSet,
		m.liveArena, m.snapshotArena,
		m.liveTimeRange, m.snapshotTimeRange,
		m.deletesInLive.Load(), m.deletesInSnapshot.Load(),
		m.cfg.MemstoreReseekLinearLimit,
	)
	return []*MemStoreScanner{s}
}

// shouldSeek reports whether a scan over [lo, hi] needs to consult a
// memstore whose live and snapshot time ranges are given by liveTR and
// snapshotTR: true iff their union intersects [lo, hi] and the
// larger of the two maxima is at least oldestUnexpiredTs.
func shouldSeek(liveTR, snapshotTR *TimeRangeTracker, lo, hi, oldestUnexpiredTs int64) bool {
	if !liveTR.Intersects(lo, hi) && !snapshotTR.Intersects(lo, hi) {
		return false
	}
	return unionMax(liveTR, snapshotTR) >= oldestUnexpiredTs
}

// ShouldSeek is the MemStore-level entry point for shouldSeek, guarded by
// the read lock since it reads both time-range trackers' current state.
func (m *MemStore) ShouldSeek(lo, hi, oldestUnexpiredTs int64) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return shouldSeek(m.liveTimeRange, m.snapshotTimeRange, lo, hi, oldestUnexpiredTs)
}

// HeapSize returns the live set's current heap accounting, including
// DeepOverhead.
func (m *MemStore) HeapSize() int64 {
	return m.heapSize.Load()
}

// KeySize returns the live set's heap accounting excluding DeepOverhead.
func (m *MemStore) KeySize() int64 {
	return m.heapSize.Load() - DeepOverhead
}

// FlushableSize returns the snapshot's frozen heap size while a flush is
// outstanding, or the live set's KeySize otherwise.
func (m *MemStore) FlushableSize() int64 {
	if sh := m.snapshotHeapSize.Load(); sh > 0 {
		return sh
	}
	return m.KeySize()
}

// GetSmallestWriteSeq returns the minimum write sequence currently held in
// the live set, or math.MaxUint64 if the live set is empty.
func (m *MemStore) GetSmallestWriteSeq() uint64 {
	return m.smallestWriteSeq.Load()
}

// GetSnapshotTimeRange returns the snapshot set's time-range tracker.
func (m *MemStore) GetSnapshotTimeRange() *TimeRangeTracker {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.snapshotTimeRange
}
