package port

import (
	"context"

	"github.com/lectio/lectio/internal/domain"
)

// ChunkStore persists transcript chunks with their embeddings.
// Re-vectorization is delete-then-insert, never a merge.
type ChunkStore interface {
	InsertBatch(ctx context.Context, chunks []domain.TranscriptChunk) error
	DeleteByLecture(ctx context.Context, lectureID string) error
	// ListByLecture returns chunks in ascending chunk_index order.
	ListByLecture(ctx context.Context, lectureID string) ([]domain.TranscriptChunk, error)
	ListAll(ctx context.Context) ([]domain.TranscriptChunk, error)
	CountByLecture(ctx context.Context, lectureID string) (int, error)
}
