// Package retriever turns a natural-language question into ranked document
// chunks plus a context block ready for prompt assembly.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"docchat/internal/ai"
	"docchat/internal/vectordb"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 5

// Retriever searches a vector index with embedded queries.
type Retriever struct {
	embedder ai.Embedder
	index    *vectordb.Index
}

// New creates a retriever over index using embedder for queries. The
// embedder must produce vectors in the index's dimension, which in practice
// means the same model the index was built with.
func New(embedder ai.Embedder, index *vectordb.Index) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve embeds query, finds the topK most similar chunks, and formats
// them into a single context block. Results keep their rank order and are
// not deduplicated. topK <= 0 uses DefaultTopK.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]vectordb.SearchResult, string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, "", fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.index.Search(vector, topK)
	if err != nil {
		return nil, "", err
	}

	return results, FormatContext(results), nil
}

// FormatContext renders search results as the document context block used
// in prompts. Each result contributes a section header with its title and
// level, followed by the chunk text; blocks are separated by "---" lines.
func FormatContext(results []vectordb.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(results))
	for _, res := range results {
		blocks = append(blocks, fmt.Sprintf("[Section - %s (Level %d)]\n%s\n",
			res.Metadata.SectionTitle, res.Metadata.SectionLevel, res.Text))
	}

	return strings.Join(blocks, "\n---\n")
}
