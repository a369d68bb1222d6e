package port

import (
	"context"

	"github.com/lectio/lectio/internal/domain"
)

// LectureStore persists lectures and the derived artifact references the
// pipeline writes as job side effects.
type LectureStore interface {
	Create(ctx context.Context, l *domain.Lecture) error
	Get(ctx context.Context, id string) (*domain.Lecture, error)
	List(ctx context.Context) ([]*domain.Lecture, error)
	UpdateTranscript(ctx context.Context, id, transcript string) error
	UpdateSummary(ctx context.Context, id, summary string) error
	UpdateThumbnailKey(ctx context.Context, id, key string) error
	UpdateVariantKey(ctx context.Context, id string, q domain.Quality, key string) error
}
