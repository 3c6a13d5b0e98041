package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArenaPoolRecyclesCheckedInChunks(t *testing.T) {
	p := NewArenaPool(64, 2)

	buf := p.CheckOut()
	assert.Len(t, buf, 64)
	p.CheckIn(buf)

	assert.Equal(t, 1, p.chunks.Len())
	again := p.CheckOut()
	assert.Len(t, again, 64)
}

func TestArenaPoolDisabledReportsNilReceiver(t *testing.T) {
	var p *ArenaPool
	assert.True(t, p.Disabled())

	enabled := NewArenaPool(64, 2)
	assert.False(t, enabled.Disabled())
}
