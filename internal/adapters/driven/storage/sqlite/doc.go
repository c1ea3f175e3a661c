// Package sqlite persists the flat vector index in a single SQLite file
// using the pure Go modernc.org/sqlite driver.
//
// Each reference document is a row of reference_documents keyed by its
// insertion position. Embeddings are little-endian float32 blobs next to
// their dimension count. Schema changes live in migrations/ as numbered
// .up.sql/.down.sql pairs and are applied on open, one transaction each.
//
// The database opens in WAL mode with a busy timeout, so a reader in
// another process does not block appends.
package sqlite
