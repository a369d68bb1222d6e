package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

const DefaultSearchLimit = 10

// Search answers free-text queries with the nearest transcript chunks.
// It reads only from chunk storage and is independent of the job
// lifecycle.
type Search struct {
	chunks   port.ChunkStore
	lectures port.LectureStore
	embedder port.Embedder
	log      *zap.Logger
}

func NewSearch(chunks port.ChunkStore, lectures port.LectureStore, embedder port.Embedder, log *zap.Logger) *Search {
	return &Search{
		chunks:   chunks,
		lectures: lectures,
		embedder: embedder,
		log:      log,
	}
}

// Query embeds the query text and returns the top-limit chunks by
// cosine similarity, each annotated with its owning lecture. Empty or
// whitespace-only queries return no results without calling the
// embedding API.
func (s *Search) Query(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embed query: expected 1 embedding, got %d", len(vectors))
	}
	queryVec := vectors[0]

	chunks, err := s.chunks.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(chunks))
	for _, chunk := range chunks {
		results = append(results, domain.SearchResult{
			Chunk:     chunk,
			LectureID: chunk.LectureID,
			Score:     cosineSimilarity(queryVec, chunk.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	// Annotate with lecture titles; one lookup per distinct lecture.
	titles := make(map[string]string)
	for i := range results {
		id := results[i].LectureID
		title, ok := titles[id]
		if !ok {
			lecture, err := s.lectures.Get(ctx, id)
			if err != nil {
				s.log.Warn("search: lecture lookup failed",
					zap.String("lecture_id", id),
					zap.Error(err))
			} else {
				title = lecture.Title
			}
			titles[id] = title
		}
		results[i].LectureTitle = title
	}
	return results, nil
}

// cosineSimilarity returns 0 for mismatched dimensions or zero vectors
// rather than propagating NaN into result ordering.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
