package vector

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_AddSearch(t *testing.T) {
	idx, err := NewMemoryIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	ctx := context.Background()

	vecs := [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	}
	ids := []string{"a", "b", "c"}
	if err := idx.Add(ctx, ids, vecs); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 3 {
		t.Errorf("Size=%d", idx.Size())
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[0].Distance() != 0 {
		t.Errorf("top result should be a at distance 0, got %s %f", results[0].ID, results[0].Distance())
	}
}

func TestMemoryIndex_SearchFilterAndClamp(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"d1_0", "d1_1", "d2_0"}, [][]float32{{1, 0}, {0, 1}, {1, 0}})

	results, err := idx.Search(ctx, []float32{1, 0}, 10, func(id string) bool { return id[:2] == "d1" })
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 filtered results, got %d", len(results))
	}
	for _, r := range results {
		if r.ID == "d2_0" {
			t.Error("filtered id returned")
		}
	}
	if res, _ := idx.Search(ctx, []float32{1, 0}, 0, nil); len(res) != 0 {
		t.Error("k=0 must return nothing")
	}
}

func TestMemoryIndex_AddReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x"}, [][]float32{{1, 0}})
	_ = idx.Add(ctx, []string{"x"}, [][]float32{{0, 1}})
	if idx.Size() != 1 {
		t.Errorf("expected upsert, size=%d", idx.Size())
	}
	v, ok := idx.Vector("x")
	if !ok || v[1] != 1 {
		t.Errorf("vector not replaced: %v", v)
	}
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	if err := idx.Add(context.Background(), []string{"a"}, [][]float32{{1, 2, 3}}); err == nil {
		t.Error("expected dimension error")
	}
	if idx.Size() != 0 {
		t.Error("failed add must not write")
	}
}

func TestMemoryIndex_Remove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Remove(ctx, []string{"x", "unknown"}); err != nil {
		t.Fatal(err)
	}
	if idx.Size() != 1 {
		t.Errorf("expected size 1, got %d", idx.Size())
	}
	if _, ok := idx.Vector("y"); !ok {
		t.Error("y should survive removal of x")
	}
}

func TestMemoryIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors", "index.bin")
	ctx := context.Background()
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {0.6, 0.8}})
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := NewMemoryIndex(2)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("loaded size = %d", loaded.Size())
	}
	v, _ := loaded.Vector("b")
	if v[0] != 0.6 || v[1] != 0.8 {
		t.Errorf("vector b = %v", v)
	}

	wrongDim, _ := NewMemoryIndex(3)
	if err := wrongDim.Load(path); err == nil {
		t.Error("expected dimension mismatch on load")
	}
	missing, _ := NewMemoryIndex(2)
	if err := missing.Load(filepath.Join(t.TempDir(), "none.bin")); err != nil {
		t.Errorf("missing file should be ignored: %v", err)
	}
}

func TestMemoryIndex_SearchUnnormalized(t *testing.T) {
	ctx := context.Background()
	idx, _ := NewMemoryIndex(2)
	// "long" has the larger inner product with the query but points further away.
	_ = idx.Add(ctx, []string{"long", "near"}, [][]float32{{10, 10}, {0.9, 0.1}})
	results, err := idx.Search(ctx, []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].ID != "near" {
		t.Errorf("top result = %s, want near", results[0].ID)
	}
	if got := results[1].Score; math.Abs(got-math.Sqrt2/2) > 1e-6 {
		t.Errorf("long score = %f, want cos 45°", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{2, 0}, []float32{3, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("parallel vectors: %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Errorf("zero vector: %f", got)
	}
}
