package memstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDecodesTOMLAndFillsDefaults(t *testing.T) {
	doc := `
use-arena = true
arena-chunk-bytes = 4096
row-prefix-bloom-length = 16
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	require.NoError(t, err)

	assert.True(t, cfg.UseArena)
	assert.Equal(t, 4096, cfg.ArenaChunkBytes)
	assert.Equal(t, 16, cfg.RowPrefixBloomLength)
	// Fields absent from the document fall back to WithDefaults.
	assert.Equal(t, DefaultArenaPoolMaxChunks, cfg.ArenaPoolMaxChunks)
	assert.Equal(t, DefaultReseekLinearLimit, cfg.MemstoreReseekLinearLimit)
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("use-arena = [unterminated"))
	assert.Error(t, err)
}
