package flatfile

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/custodia-labs/vpm/internal/core/domain"
	"github.com/custodia-labs/vpm/internal/core/ports/driven"
	"github.com/custodia-labs/vpm/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorPersistence = (*Store)(nil)

const (
	// IndexFile holds the embedding blob.
	IndexFile = "index.bin"

	// MetadataFile holds the documents, in insertion order.
	MetadataFile = "metadata.json"

	formatVersion uint32 = 1
)

var magic = [4]byte{'V', 'P', 'M', 'F'}

// header precedes the float32 values in index.bin.
type header struct {
	Magic   [4]byte
	Version uint32
	Dim     uint32
	Count   uint64
}

// Store persists vector entries as two files in a directory: a
// little-endian float32 blob and a JSON array of documents. Both files
// are written to temp files before either is renamed into place.
type Store struct {
	dir string
}

// NewStore creates a flat-file store rooted at dir.
// If dir is empty, uses ~/.vpm/data/index.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".vpm", "data", "index")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the index files.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads both files. A directory without index files loads as empty.
func (s *Store) Load(ctx context.Context) ([]domain.VectorEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, s.fail("load", "", err)
	}

	indexPath := filepath.Join(s.dir, IndexFile)
	metaPath := filepath.Join(s.dir, MetadataFile)

	_, indexErr := os.Stat(indexPath)
	_, metaErr := os.Stat(metaPath)
	if errors.Is(indexErr, os.ErrNotExist) && errors.Is(metaErr, os.ErrNotExist) {
		return []domain.VectorEntry{}, nil
	}

	embeddings, err := readIndex(indexPath)
	if err != nil {
		return nil, s.fail("load", indexPath, err)
	}

	docs, err := readMetadata(metaPath)
	if err != nil {
		return nil, s.fail("load", metaPath, err)
	}

	if len(docs) > len(embeddings) {
		logger.Warn("flatfile: dropping %d document(s) from an unfinished write", len(docs)-len(embeddings))
		docs = docs[:len(embeddings)]
	}
	if len(docs) != len(embeddings) {
		return nil, s.fail("load", s.dir,
			fmt.Errorf("index holds %d embeddings but metadata holds %d documents", len(embeddings), len(docs)))
	}

	entries := make([]domain.VectorEntry, len(docs))
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]string{}
		}
		entries[i] = domain.VectorEntry{Document: docs[i], Embedding: embeddings[i]}
	}
	return entries, nil
}

// Persist rewrites both files with entries. All embeddings must share
// one dimension, and entries must extend the previously persisted slice,
// which is what lets Load recover from an interrupted commit.
func (s *Store) Persist(ctx context.Context, entries []domain.VectorEntry) error {
	if err := ctx.Err(); err != nil {
		return s.fail("persist", "", err)
	}

	dim := 0
	if len(entries) > 0 {
		dim = len(entries[0].Embedding)
	}
	docs := make([]domain.ReferenceDocument, len(entries))
	for i, e := range entries {
		if len(e.Embedding) != dim {
			return s.fail("persist", "", fmt.Errorf("entry %d: %w", i, domain.ErrDimensionMismatch))
		}
		docs[i] = e.Document
	}

	metaPath := filepath.Join(s.dir, MetadataFile)
	metaTmp, err := stage(metaPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	})
	if err != nil {
		return s.fail("persist", metaPath, err)
	}
	defer func() { _ = os.Remove(metaTmp) }()

	indexPath := filepath.Join(s.dir, IndexFile)
	indexTmp, err := stage(indexPath, func(w io.Writer) error {
		return writeIndex(w, dim, entries)
	})
	if err != nil {
		return s.fail("persist", indexPath, err)
	}
	defer func() { _ = os.Remove(indexTmp) }()

	// Metadata goes first: if the index rename fails the disk holds extra
	// trailing documents, which Load drops, and the previous entries stay
	// readable.
	if err := os.Rename(metaTmp, metaPath); err != nil {
		return s.fail("persist", metaPath, err)
	}
	if err := os.Rename(indexTmp, indexPath); err != nil {
		return s.fail("persist", indexPath, err)
	}
	return nil
}

// Close is a no-op; files are closed after each operation.
func (s *Store) Close() error {
	return nil
}

func (s *Store) fail(op, path string, err error) error {
	if path == "" {
		path = s.dir
	}
	return &domain.PersistenceError{Op: op, Path: path, Err: err}
}

func writeIndex(w io.Writer, dim int, entries []domain.VectorEntry) error {
	h := header{Magic: magic, Version: formatVersion, Dim: uint32(dim), Count: uint64(len(entries))}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	buf := make([]byte, 4*dim)
	for _, e := range entries {
		for i, v := range e.Embedding {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("writing embedding: %w", err)
		}
	}
	return nil
}

func readIndex(path string) ([]domain.Embedding, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("not a vpm index file")
	}
	if h.Version != formatVersion {
		return nil, fmt.Errorf("unsupported index version %d", h.Version)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if err := checkSize(h, info.Size()); err != nil {
		return nil, err
	}
	if h.Count == 0 {
		return []domain.Embedding{}, nil
	}

	out := make([]domain.Embedding, h.Count)
	buf := make([]byte, 4*int(h.Dim))
	for i := range out {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("reading embedding %d: %w", i, err)
		}
		emb := make(domain.Embedding, h.Dim)
		for j := range emb {
			emb[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
		}
		out[i] = emb
	}
	return out, nil
}

func readMetadata(path string) ([]domain.ReferenceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []domain.ReferenceDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	return docs, nil
}

// checkSize rejects a header whose count and dimension do not match the
// bytes that follow it.
func checkSize(h header, size int64) error {
	body := uint64(size - int64(binary.Size(h)))
	if h.Dim == 0 {
		if h.Count > 0 || body > 0 {
			return fmt.Errorf("index claims %d embeddings of dimension 0", h.Count)
		}
		return nil
	}
	row := uint64(h.Dim) * 4
	if h.Count > body/row || h.Count*row != body {
		return fmt.Errorf("index claims %d embeddings of dimension %d but holds %d bytes", h.Count, h.Dim, body)
	}
	return nil
}

// stage writes a synced temp file next to path and returns its name.
// The caller renames it into place or removes it.
func stage(path string, write func(io.Writer) error) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()

	w := bufio.NewWriter(tmp)
	err = write(w)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}
