package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/vpm/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "reference.db"

const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

var _ driven.VectorPersistence = (*Store)(nil)

// Store keeps reference documents and their embeddings in one SQLite table,
// ordered by insertion position.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) dataDir/reference.db and applies any
// pending migrations. An empty dataDir means ~/.vpm/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".vpm", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := migrate(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Version reports the applied schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	return schemaVersion(ctx, s.db)
}

func (s *Store) Close() error { return s.db.Close() }

// Load returns every stored entry in insertion order.
func (s *Store) Load(ctx context.Context) ([]domain.VectorEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, metadata, embedding, dimensions FROM reference_documents ORDER BY position")
	if err != nil {
		return nil, s.fail("load", err)
	}
	defer rows.Close()

	out := []domain.VectorEntry{}
	for rows.Next() {
		var (
			e    domain.VectorEntry
			meta string
			blob []byte
			dims int
		)
		if err := rows.Scan(&e.Document.ID, &e.Document.Content, &meta, &blob, &dims); err != nil {
			return nil, s.fail("load", err)
		}
		if err := json.Unmarshal([]byte(meta), &e.Document.Metadata); err != nil {
			return nil, s.fail("load", fmt.Errorf("metadata of %s: %w", e.Document.ID, err))
		}
		if len(blob) != dims*4 {
			return nil, s.fail("load", fmt.Errorf("embedding of %s: %d bytes for %d dimensions", e.Document.ID, len(blob), dims))
		}
		e.Embedding = decodeVector(blob)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("load", err)
	}
	return out, nil
}

// Persist writes the tail of entries that is not stored yet. Rows already
// in the table are taken to be a prefix of entries; a shorter slice is
// rejected.
func (s *Store) Persist(ctx context.Context, entries []domain.VectorEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("persist", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM reference_documents").Scan(&n); err != nil {
		return s.fail("persist", err)
	}
	if n > len(entries) {
		return s.fail("persist", fmt.Errorf("store holds %d entries, refusing to shrink to %d", n, len(entries)))
	}
	if n == len(entries) {
		return nil
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO reference_documents
		(position, id, content, metadata, embedding, dimensions) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return s.fail("persist", err)
	}
	defer insert.Close()

	for pos, e := range entries[n:] {
		meta := e.Document.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		raw, err := json.Marshal(meta)
		if err != nil {
			return s.fail("persist", fmt.Errorf("metadata of %s: %w", e.Document.ID, err))
		}
		if _, err := insert.ExecContext(ctx, n+pos, e.Document.ID, e.Document.Content,
			string(raw), encodeVector(e.Embedding), len(e.Embedding)); err != nil {
			return s.fail("persist", fmt.Errorf("insert %s: %w", e.Document.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail("persist", err)
	}
	return nil
}

func (s *Store) fail(op string, err error) error {
	return &domain.PersistenceError{Op: op, Path: s.path, Err: err}
}

// encodeVector packs v as little-endian float32s.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
