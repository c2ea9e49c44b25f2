package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/docuchat/medreview/internal/domain"
)

const (
	chunksFile   = "chunks.parquet"
	manifestFile = "manifest.json"
)

// Manifest describes a persisted index. Stored next to the chunk file so a
// loader can reject an index built with a different embedding setup.
type Manifest struct {
	EmbeddingModel string    `json:"embedding_model"`
	Dimensions     int       `json:"dimensions"`
	ChunkSize      int       `json:"chunk_size"`
	ChunkOverlap   int       `json:"chunk_overlap"`
	Documents      int       `json:"documents"`
	Chunks         int       `json:"chunks"`
	BuiltAt        time.Time `json:"built_at"`
}

// chunkRow is the parquet row layout: one embedded chunk per row.
type chunkRow struct {
	PMID    string    `parquet:"pmid"`
	Title   string    `parquet:"title"`
	Journal string    `parquet:"journal"`
	Year    string    `parquet:"year"`
	Ordinal int32     `parquet:"ordinal"`
	Content string    `parquet:"content"`
	Vector  []float32 `parquet:"vector,list"`
}

// Store is a fully loaded, read-only persisted index.
type Store struct {
	manifest Manifest
	chunks   []domain.Chunk
	vectors  [][]float32
}

// Save persists chunks and their vectors to dir, replacing any previous index
// wholesale. Files are written to temp names and renamed so a failed build
// never leaves a partial index behind.
func Save(dir string, chunks []domain.Chunk, vectors [][]float32, m Manifest) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d: %w",
			len(chunks), len(vectors), domain.ErrInvalidArgument)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = chunkRow{
			PMID:    c.PMID,
			Title:   c.Title,
			Journal: c.Journal,
			Year:    c.Year,
			Ordinal: int32(c.Ordinal),
			Content: c.Content,
			Vector:  vectors[i],
		}
	}

	tmpChunks := filepath.Join(dir, chunksFile+".tmp")
	if err := parquet.WriteFile(tmpChunks, rows); err != nil {
		return fmt.Errorf("write chunk file: %w", err)
	}

	m.Chunks = len(chunks)
	manifestData, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tmpManifest := filepath.Join(dir, manifestFile+".tmp")
	if err := os.WriteFile(tmpManifest, manifestData, 0o640); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	if err := os.Rename(tmpChunks, filepath.Join(dir, chunksFile)); err != nil {
		return fmt.Errorf("commit chunk file: %w", err)
	}
	if err := os.Rename(tmpManifest, filepath.Join(dir, manifestFile)); err != nil {
		return fmt.Errorf("commit manifest: %w", err)
	}

	return nil
}

// Open loads the whole persisted index into memory. Missing or corrupt files
// yield ErrIndexUnavailable.
func Open(dir string) (*Store, error) {
	manifestData, err := os.ReadFile(filepath.Clean(filepath.Join(dir, manifestFile)))
	if err != nil {
		return nil, fmt.Errorf("read manifest in %s: %w", dir, domain.ErrIndexUnavailable)
	}

	var m Manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, fmt.Errorf("decode manifest in %s: %w", dir, domain.ErrIndexUnavailable)
	}

	rows, err := parquet.ReadFile[chunkRow](filepath.Join(dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("read chunk file in %s: %w", dir, domain.ErrIndexUnavailable)
	}

	chunks := make([]domain.Chunk, len(rows))
	vectors := make([][]float32, len(rows))
	for i, r := range rows {
		chunks[i] = domain.Chunk{
			PMID:    r.PMID,
			Title:   r.Title,
			Journal: r.Journal,
			Year:    r.Year,
			Ordinal: int(r.Ordinal),
			Content: r.Content,
		}
		if m.Dimensions > 0 && len(r.Vector) != m.Dimensions {
			return nil, fmt.Errorf("chunk %d has %d dimensions, manifest says %d: %w",
				i, len(r.Vector), m.Dimensions, domain.ErrIndexUnavailable)
		}
		vectors[i] = r.Vector
	}

	return &Store{manifest: m, chunks: chunks, vectors: vectors}, nil
}

// Manifest returns the index build metadata.
func (s *Store) Manifest() Manifest { return s.manifest }

// Len returns the number of indexed chunks.
func (s *Store) Len() int { return len(s.chunks) }

// Chunk returns the chunk at position i.
func (s *Store) Chunk(i int) domain.Chunk { return s.chunks[i] }

// Vector returns the embedding vector at position i.
func (s *Store) Vector(i int) []float32 { return s.vectors[i] }
