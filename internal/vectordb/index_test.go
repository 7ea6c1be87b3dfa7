package vectordb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"docchat/internal/ai"
	"docchat/internal/chunker"
)

const epsilon = 1e-6

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < epsilon
}

// stubEmbedder returns canned vectors keyed by input text, or a terminal
// error for texts in the fail set.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    map[string]bool
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail[text] {
		return nil, ai.NewProviderError(ai.ErrTypeAuthentication, "embed failed", "stub")
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) Model() string { return "stub-model" }

func testChunk(text string) chunker.Chunk {
	return chunker.Chunk{
		Text:  text,
		Title: "# " + text,
		Metadata: chunker.Metadata{
			Source:       chunker.SourceMarkdown,
			SectionTitle: "# " + text,
			CharCount:    len(text),
		},
	}
}

func TestIndexAddNormalizes(t *testing.T) {
	idx := NewIndex("test-model")

	if err := idx.Add("a", chunker.Metadata{}, []float32{3, 4}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if !almostEqual(Magnitude(idx.vectors[0]), 1.0) {
		t.Errorf("stored vector magnitude = %f, want 1.0", Magnitude(idx.vectors[0]))
	}
}

func TestIndexAddDimensionMismatch(t *testing.T) {
	idx := NewIndex("test-model")

	if err := idx.Add("a", chunker.Metadata{}, []float32{1, 0, 0}); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	err := idx.Add("b", chunker.Metadata{}, []float32{1, 0})
	var dimErr *DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if dimErr.Expected != 3 || dimErr.Actual != 2 {
		t.Errorf("mismatch = %d/%d, want 3/2", dimErr.Expected, dimErr.Actual)
	}
}

func TestSearchRanking(t *testing.T) {
	idx := NewIndex("test-model")

	// Orthogonal unit vectors make similarities exact.
	mustAdd(t, idx, "x axis", []float32{1, 0})
	mustAdd(t, idx, "y axis", []float32{0, 1})

	results, err := idx.Search([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	if results[0].Text != "x axis" || !almostEqual(results[0].Score, 1.0) {
		t.Errorf("rank 1 = %q score %f, want x axis score 1.0", results[0].Text, results[0].Score)
	}
	if results[1].Text != "y axis" || !almostEqual(results[1].Score, 0.0) {
		t.Errorf("rank 2 = %q score %f, want y axis score 0.0", results[1].Text, results[1].Score)
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("result %d has rank %d, want %d", i, r.Rank, i+1)
		}
	}
}

func TestSearchTopKLargerThanIndex(t *testing.T) {
	idx := NewIndex("test-model")
	mustAdd(t, idx, "only", []float32{1, 0})

	results, err := idx.Search([]float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewIndex("test-model")

	results, err := idx.Search([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("empty index search should not error, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results from empty index", len(results))
	}
}

func TestSearchDimensionMismatch(t *testing.T) {
	idx := NewIndex("test-model")
	mustAdd(t, idx, "a", []float32{1, 0, 0})

	_, err := idx.Search([]float32{1, 0}, 5)
	var dimErr *DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
}

func TestSearchZeroQueryVector(t *testing.T) {
	idx := NewIndex("test-model")
	mustAdd(t, idx, "a", []float32{1, 0})

	results, err := idx.Search([]float32{0, 0}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 || !almostEqual(results[0].Score, 0.0) {
		t.Errorf("zero query should score 0 against everything, got %+v", results)
	}
}

func TestBuildSkipsFailedChunks(t *testing.T) {
	embedder := &stubEmbedder{
		vectors: map[string][]float32{
			"good one": {1, 0, 0},
			"good two": {0, 1, 0},
		},
		fail: map[string]bool{"bad": true},
	}

	chunks := []chunker.Chunk{testChunk("good one"), testChunk("bad"), testChunk("good two")}

	idx, stats, err := Build(context.Background(), embedder, chunks, WithPacingDelay(0))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if stats.Embedded != 2 || stats.Failed != 1 || stats.Total != 3 {
		t.Errorf("stats = %+v, want 2 embedded, 1 failed, 3 total", stats)
	}
	if idx.Size() != 2 {
		t.Errorf("index size = %d, want 2", idx.Size())
	}
}

func TestBuildAllFailuresReturnsEmptyIndexError(t *testing.T) {
	embedder := &stubEmbedder{fail: map[string]bool{"a": true, "b": true}}
	chunks := []chunker.Chunk{testChunk("a"), testChunk("b")}

	_, stats, err := Build(context.Background(), embedder, chunks, WithPacingDelay(0))

	var emptyErr *EmptyIndexError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyIndexError, got %v", err)
	}
	if stats.Failed != 2 {
		t.Errorf("failed = %d, want 2", stats.Failed)
	}
}

func TestBuildMinSuccessRatio(t *testing.T) {
	embedder := &stubEmbedder{
		vectors: map[string][]float32{"good": {1, 0}},
		fail:    map[string]bool{"bad1": true, "bad2": true, "bad3": true},
	}
	chunks := []chunker.Chunk{
		testChunk("good"), testChunk("bad1"), testChunk("bad2"), testChunk("bad3"),
	}

	// 25% success passes with no minimum but fails a 50% floor.
	if _, _, err := Build(context.Background(), embedder, chunks, WithPacingDelay(0)); err != nil {
		t.Errorf("build without ratio floor failed: %v", err)
	}

	embedder.calls = 0
	_, _, err := Build(context.Background(), embedder, chunks,
		WithPacingDelay(0), WithMinSuccessRatio(0.5))
	if err == nil {
		t.Error("expected error when success ratio below floor")
	}
}

func TestBuildCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	embedder := &stubEmbedder{}
	chunks := []chunker.Chunk{testChunk("a"), testChunk("b")}

	_, _, err := Build(ctx, embedder, chunks)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuildProgressCallback(t *testing.T) {
	embedder := &stubEmbedder{}
	chunks := []chunker.Chunk{testChunk("a"), testChunk("b"), testChunk("c")}

	var reported []int
	_, _, err := Build(context.Background(), embedder, chunks,
		WithPacingDelay(0),
		WithProgress(func(done, total int) {
			if total != 3 {
				t.Errorf("total = %d, want 3", total)
			}
			reported = append(reported, done)
		}))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(reported) != 3 || reported[2] != 3 {
		t.Errorf("progress reports = %v, want [1 2 3]", reported)
	}
}

func TestConcurrentSearch(t *testing.T) {
	idx := NewIndex("test-model")
	for i := 0; i < 50; i++ {
		mustAdd(t, idx, fmt.Sprintf("chunk %d", i), []float32{float32(i + 1), 1, 0})
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := idx.Search([]float32{1, 0.5, 0}, 5); err != nil {
					t.Errorf("concurrent search failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()
}

func mustAdd(t *testing.T, idx *Index, text string, vector []float32) {
	t.Helper()
	if err := idx.Add(text, chunker.Metadata{SectionTitle: "# " + text}, vector); err != nil {
		t.Fatalf("Add(%q) failed: %v", text, err)
	}
}

func BenchmarkSearch(b *testing.B) {
	idx := NewIndex("bench-model")
	for i := 0; i < 1000; i++ {
		vec := make([]float32, 128)
		for j := range vec {
			vec[j] = float32((i*31 + j*17) % 97)
		}
		if err := idx.Add(fmt.Sprintf("chunk %d", i), chunker.Metadata{}, vec); err != nil {
			b.Fatal(err)
		}
	}

	query := make([]float32, 128)
	for j := range query {
		query[j] = float32(j % 13)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := idx.Search(query, 5); err != nil {
			b.Fatal(err)
		}
	}
}
