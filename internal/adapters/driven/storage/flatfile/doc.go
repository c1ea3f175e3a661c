// Package flatfile persists the flat vector index as two files: index.bin,
// a little-endian float32 blob behind a small header, and metadata.json,
// the reference documents in insertion order.
//
// The format is stable across restarts. Position i in index.bin and
// metadata.json describes the same entry.
package flatfile
