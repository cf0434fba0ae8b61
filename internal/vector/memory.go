package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory vector index using brute-force inner product search.
type MemoryIndex struct {
	dimensions int
	ids        []string
	vectors    [][]float32
	pos        map[string]int
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		pos:        make(map[string]int),
	}, nil
}

// Dimensions returns the vector length the index accepts.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add inserts or replaces vectors. Nothing is written when any vector has the wrong dimension.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for i := range vectors {
		if len(vectors[i]) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), m.dimensions)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := append([]float32(nil), vectors[i]...)
		if p, ok := m.pos[id]; ok {
			m.vectors[p] = vec
			continue
		}
		m.pos[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns up to k hits admitted by filter, highest score first. Ties are broken by id.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil
	}
	scores := make([]*VectorResult, 0, len(m.ids))
	for i, vec := range m.vectors {
		if filter != nil && !filter(m.ids[i]) {
			continue
		}
		scores = append(scores, &VectorResult{ID: m.ids[i], Score: CosineSimilarity(query, vec)})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k], nil
}

// Vector returns a copy of the vector stored under id.
func (m *MemoryIndex) Vector(id string) ([]float32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pos[id]
	if !ok {
		return nil, false
	}
	return append([]float32(nil), m.vectors[p]...), true
}

// Remove deletes vectors by id. Unknown ids are ignored.
func (m *MemoryIndex) Remove(ctx context.Context, ids []string) error {
	removeSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	newIDs := make([]string, 0, len(m.ids))
	newVectors := make([][]float32, 0, len(m.vectors))
	for i, id := range m.ids {
		if !removeSet[id] {
			newIDs = append(newIDs, id)
			newVectors = append(newVectors, m.vectors[i])
		}
	}
	m.ids = newIDs
	m.vectors = newVectors
	m.reindex()
	return nil
}

func (m *MemoryIndex) reindex() {
	m.pos = make(map[string]int, len(m.ids))
	for i, id := range m.ids {
		m.pos[id] = i
	}
}

// Save persists the index to path via a temporary file and rename. Format: dimension (4),
// n (4), then per vector: idLen (4), id bytes, vector (dimension*4 bytes), little endian.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := m.write(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename index file: %w", err)
	}
	return nil
}

func (m *MemoryIndex) write(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range m.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := io.WriteString(w, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(m.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the in-memory contents with the index at path. A missing file leaves the
// index unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	ids := make([]string, 0, n)
	vectors := make([][]float32, 0, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return fmt.Errorf("read id len: %w", err)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		ids = append(ids, string(idBytes))
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = ids
	m.vectors = vectors
	m.reindex()
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
