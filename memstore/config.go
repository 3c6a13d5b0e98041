package memstore

import (
	"io"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable a MemStore recognizes. It is ordinarily
// decoded from a larger per-store TOML document with LoadConfig.
type Config struct {
	// UseArena enables the per-memstore Arena. Disabled, cells keep the
	// caller's original byte slices instead of being copied into slabs.
	UseArena bool `toml:"use-arena"`

	// ArenaChunkBytes is the slab size each Arena chunk allocates.
	ArenaChunkBytes int `toml:"arena-chunk-bytes"`

	// ArenaPoolMaxChunks is the ArenaPool's high-water mark: the number of
	// free chunks it will hold onto between uses before discarding further
	// check-ins.
	ArenaPoolMaxChunks int `toml:"arena-pool-max-chunks"`

	// MemstoreReseekLinearLimit is maxLinearReseeks: the step budget a
	// MemStoreScanner.Reseek spends walking forward linearly before
	// falling back to a logarithmic Seek.
	MemstoreReseekLinearLimit int `toml:"memstore-reseek-linear-limit"`

	// RowPrefixBloomLength is the row-prefix Bloom filter length. It is a
	// per-column-family option rather than a store-wide one, but it lives
	// here because every OrderedCellSet a MemStore creates needs it at
	// construction time. -1 disables the Bloom filter.
	RowPrefixBloomLength int `toml:"row-prefix-bloom-length"`
}

// NewConfig returns a Config populated with WithDefaults().
func NewConfig() Config {
	c := Config{}
	c.WithDefaults()
	return c
}

// LoadConfig decodes a Config from r, which must hold a TOML document
// whose keys match Config's `toml` tags, and fills in any field the
// document left zero-valued with its default.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	if _, err := toml.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, err
	}
	c.WithDefaults()
	return c, nil
}

// WithDefaults fills in zero-valued fields with their defaults and returns
// the receiver, so it composes with a TOML struct literal decode rather
// than requiring a separate constructor.
func (c *Config) WithDefaults() *Config {
	if c.ArenaChunkBytes == 0 {
		c.ArenaChunkBytes = DefaultArenaChunkBytes
	}
	if c.ArenaPoolMaxChunks == 0 {
		c.ArenaPoolMaxChunks = DefaultArenaPoolMaxChunks
	}
	if c.MemstoreReseekLinearLimit == 0 {
		c.MemstoreReseekLinearLimit = DefaultReseekLinearLimit
	}
	if c.RowPrefixBloomLength == 0 {
		c.RowPrefixBloomLength = DefaultRowPrefixBloomLength
	}
	return c
}

const (
	// DefaultArenaPoolMaxChunks is the default ArenaPool high-water mark.
	DefaultArenaPoolMaxChunks = 64

	// DefaultReseekLinearLimit is the default maxLinearReseeks.
	DefaultReseekLinearLimit = 64

	// DefaultRowPrefixBloomLength disables the row-prefix Bloom filter by
	// default; callers opt in per column family.
	DefaultRowPrefixBloomLength = -1
)
