package memstore

import "sync/atomic"

// MVCC is the process-wide multiversion concurrency control service: it
// assigns each writer a monotonically increasing write sequence number and
// tells readers the largest sequence number they're permitted to observe.
//
// Go has no supported notion of "the calling thread" -- goroutines migrate
// between OS threads freely, and parsing a goroutine ID out of a stack
// trace to fake thread-local storage is explicitly unsupported and
// discouraged. The idiomatic Go shape for "ambient per-thread state" is an
// explicit handle the caller carries, so readers hold the *MVCC explicitly
// and call ReadPoint() on it, rather than relying on implicit thread-local
// state. MemStoreScanner holds the handle and re-reads ReadPoint() at every
// Seek and Reseek.
type MVCC struct {
	writeSeq atomic.Uint64
}

// NewMVCC returns an MVCC controller with no writes yet assigned.
func NewMVCC() *MVCC {
	return &MVCC{}
}

// AssignWriteSeq returns the next write sequence number. MemStore never
// calls this itself; it receives seqNum as a parameter from the writer
// that already called AssignWriteSeq (typically the WAL append path, an
// external collaborator).
func (m *MVCC) AssignWriteSeq() uint64 {
	return m.writeSeq.Add(1)
}

// ReadPoint returns the largest write sequence number visible to a reader
// starting a scan now: every write whose AssignWriteSeq call happened
// before this one is visible, every write assigned after is not. A cell
// with WriteSeq > readPoint must be treated as invisible to that reader.
func (m *MVCC) ReadPoint() uint64 {
	return m.writeSeq.Load()
}
