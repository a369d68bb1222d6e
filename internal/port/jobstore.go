package port

import (
	"context"

	"github.com/lectio/lectio/internal/domain"
)

// JobStore is the durable record of queued work. Pure persistence:
// no validation or retry logic lives here. Every mutation bumps the
// job's updated_at timestamp.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	// ListByStatus returns jobs in FIFO order (created_at ascending).
	ListByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.Job, error)
	ListByLecture(ctx context.Context, lectureID string) ([]*domain.Job, error)
	// ListByLectures returns jobs for any of the given lectures in one
	// query, FIFO ordered.
	ListByLectures(ctx context.Context, lectureIDs []string) ([]*domain.Job, error)
	// HasActive reports whether a pending or processing job of the given
	// type exists for the lecture.
	HasActive(ctx context.Context, lectureID string, jobType domain.JobType) (bool, error)
	// MarkProcessing claims a pending job. It returns false when the job
	// was no longer pending, so two loop iterations cannot both claim it.
	MarkProcessing(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	// DeletePending removes a queued-but-unstarted job (administrative
	// cancel). Jobs in any other status are left untouched.
	DeletePending(ctx context.Context, id string) error
}
