package memstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMVCCAssignWriteSeqIsMonotonic(t *testing.T) {
	m := NewMVCC()
	first := m.AssignWriteSeq()
	second := m.AssignWriteSeq()
	assert.Less(t, first, second)
}

func TestMVCCReadPointReflectsLastAssignedSeq(t *testing.T) {
	m := NewMVCC()
	assert.Equal(t, uint64(0), m.ReadPoint())

	seq := m.AssignWriteSeq()
	assert.Equal(t, seq, m.ReadPoint())
}

func TestMVCCAssignWriteSeqConcurrentCallersGetDistinctValues(t *testing.T) {
	m := NewMVCC()
	const n = 500
	seqs := make(chan uint64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seqs <- m.AssignWriteSeq()
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[uint64]bool, n)
	for s := range seqs {
		assert.False(t, seen[s], "write sequence %d assigned twice", s)
		seen[s] = true
	}
	assert.Len(t, seen, n)
}
