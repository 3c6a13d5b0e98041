// Package memstore implements the in-memory write buffer that sits in
// front of an immutable on-disk store in a log-structured,
// column-family-oriented table engine. It absorbs writes for a single
// column family of a single region, serves reads by merging its contents
// with on-disk files through a scanner interface, and periodically hands
// its accumulated contents to a flush subsystem.
//
// The write-ahead log, the on-disk file reader/writer, the higher-level
// store scanner, and region/cluster coordination are external
// collaborators this package does not implement.
package memstore
