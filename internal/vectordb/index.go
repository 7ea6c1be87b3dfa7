package vectordb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"docchat/internal/ai"
	"docchat/internal/chunker"
)

// Index is an exact inner-product vector index over document chunks. Vectors
// are L2-normalized on insertion, so inner product equals cosine similarity.
// The three slices are parallel: entry i of vectors, texts and metadata
// describe the same chunk.
//
// All methods are safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	vectors   [][]float32
	texts     []string
	metadata  []chunker.Metadata
	dimension int
	modelName string
}

// SearchResult is one ranked match from a similarity search.
type SearchResult struct {
	Rank     int
	Score    float32
	Text     string
	Metadata chunker.Metadata
}

// NewIndex creates an empty index. The dimension is fixed by the first
// vector added.
func NewIndex(modelName string) *Index {
	return &Index{
		modelName: modelName,
	}
}

// Add inserts a chunk with its embedding vector. The vector is normalized
// to unit length before storage. Adding a vector whose dimension differs
// from the first one returns DimensionMismatchError.
func (idx *Index) Add(text string, meta chunker.Metadata, vector []float32) error {
	if len(vector) == 0 {
		return &DimensionMismatchError{Expected: idx.Dimension(), Actual: 0}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(vector)
	} else if len(vector) != idx.dimension {
		return &DimensionMismatchError{Expected: idx.dimension, Actual: len(vector)}
	}

	idx.vectors = append(idx.vectors, NormalizeVector(vector))
	idx.texts = append(idx.texts, text)
	idx.metadata = append(idx.metadata, meta)

	return nil
}

// Search returns up to topK entries most similar to the query vector, in
// descending similarity order with 1-based ranks. An empty index yields an
// empty result, not an error. The query is normalized before scoring.
func (idx *Index) Search(query []float32, topK int) ([]SearchResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.vectors) == 0 || topK <= 0 {
		return nil, nil
	}

	if len(query) != idx.dimension {
		return nil, &DimensionMismatchError{Expected: idx.dimension, Actual: len(query)}
	}

	normalized := NormalizeVector(query)

	type scored struct {
		position int
		score    float32
	}

	scores := make([]scored, len(idx.vectors))
	for i, v := range idx.vectors {
		scores[i] = scored{position: i, score: DotProduct(normalized, v)}
	}

	sort.Slice(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if topK > len(scores) {
		topK = len(scores)
	}

	results := make([]SearchResult, topK)
	for i := 0; i < topK; i++ {
		s := scores[i]
		results[i] = SearchResult{
			Rank:     i + 1,
			Score:    s.score,
			Text:     idx.texts[s.position],
			Metadata: idx.metadata[s.position],
		}
	}

	return results, nil
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Dimension returns the embedding dimension, or 0 for an empty index.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// ModelName returns the embedding model the index was built with.
func (idx *Index) ModelName() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.modelName
}

// BuildStats summarizes an index build.
type BuildStats struct {
	Total    int
	Embedded int
	Failed   int
}

type buildOptions struct {
	pacingDelay     time.Duration
	minSuccessRatio float64
	progress        func(done, total int)
}

// BuildOption configures index building.
type BuildOption func(*buildOptions)

// WithPacingDelay sets the delay between consecutive embedding calls.
func WithPacingDelay(d time.Duration) BuildOption {
	return func(o *buildOptions) {
		o.pacingDelay = d
	}
}

// WithMinSuccessRatio fails the build unless at least this fraction of
// chunks embeds successfully. Zero keeps the default behavior where any
// nonzero success count is accepted.
func WithMinSuccessRatio(ratio float64) BuildOption {
	return func(o *buildOptions) {
		o.minSuccessRatio = ratio
	}
}

// WithProgress installs a callback invoked after each chunk is processed.
func WithProgress(fn func(done, total int)) BuildOption {
	return func(o *buildOptions) {
		o.progress = fn
	}
}

// DefaultPacingDelay spaces out embedding requests during a build to stay
// under provider rate limits.
const DefaultPacingDelay = 100 * time.Millisecond

// Build embeds every chunk and assembles an index. Chunks that fail to
// embed after the client's retry budget are skipped and counted; the build
// succeeds as long as enough chunks embed. A build in which nothing embeds
// returns EmptyIndexError.
func Build(ctx context.Context, embedder ai.Embedder, chunks []chunker.Chunk, opts ...BuildOption) (*Index, *BuildStats, error) {
	options := buildOptions{
		pacingDelay: DefaultPacingDelay,
	}
	for _, opt := range opts {
		opt(&options)
	}

	idx := NewIndex(embedder.Model())
	stats := &BuildStats{Total: len(chunks)}

	for i, chunk := range chunks {
		if i > 0 && options.pacingDelay > 0 {
			select {
			case <-time.After(options.pacingDelay):
			case <-ctx.Done():
				return nil, stats, ctx.Err()
			}
		}

		vector, err := embedder.Embed(ctx, chunk.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			stats.Failed++
		} else if err := idx.Add(chunk.Text, chunk.Metadata, vector); err != nil {
			stats.Failed++
		} else {
			stats.Embedded++
		}

		if options.progress != nil {
			options.progress(i+1, len(chunks))
		}
	}

	if stats.Embedded == 0 {
		return nil, stats, &EmptyIndexError{Total: stats.Total, Failed: stats.Failed}
	}

	if options.minSuccessRatio > 0 && stats.Total > 0 {
		ratio := float64(stats.Embedded) / float64(stats.Total)
		if ratio < options.minSuccessRatio {
			return nil, stats, fmt.Errorf("embedding success ratio %.2f below required %.2f (%d of %d chunks failed)",
				ratio, options.minSuccessRatio, stats.Failed, stats.Total)
		}
	}

	return idx, stats, nil
}
