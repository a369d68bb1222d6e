package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

// Admission decides whether new jobs should be created. It guarantees
// at most one active (pending or processing) job per (lecture, type)
// pair.
//
// The guard is advisory, not a lock: two near-simultaneous calls can
// both pass the active-job check before either inserts. Handlers are
// idempotent (re-running transcription overwrites the same transcript),
// so the duplicate work is wasteful but harmless. Callers needing a
// hard guarantee would claim via a conditional insert under a unique
// constraint on (lecture_id, job_type) restricted to active statuses.
type Admission struct {
	jobs     port.JobStore
	lectures port.LectureStore
	chunks   port.ChunkStore
	objects  port.ObjectStore
	log      *zap.Logger
}

func NewAdmission(jobs port.JobStore, lectures port.LectureStore, chunks port.ChunkStore, objects port.ObjectStore, log *zap.Logger) *Admission {
	return &Admission{
		jobs:     jobs,
		lectures: lectures,
		chunks:   chunks,
		objects:  objects,
		log:      log,
	}
}

// QueueJob queues one job unless an active job of the same type already
// exists for the lecture. The skip is a no-op, not an error: callers
// (a UI button, a follow-up hook) invoke this repeatedly and rely on
// the idempotent-retry behavior. Returns the created job and whether
// anything was queued.
func (a *Admission) QueueJob(ctx context.Context, lectureID string, jobType domain.JobType) (*domain.Job, bool, error) {
	if !jobType.Valid() {
		return nil, false, &domain.ValidationError{Msg: "unknown job type: " + string(jobType)}
	}
	if _, err := a.lectures.Get(ctx, lectureID); err != nil {
		return nil, false, fmt.Errorf("get lecture %s: %w", lectureID, err)
	}

	active, err := a.jobs.HasActive(ctx, lectureID, jobType)
	if err != nil {
		return nil, false, fmt.Errorf("check active jobs: %w", err)
	}
	if active {
		return nil, false, nil
	}

	job := &domain.Job{LectureID: lectureID, Type: jobType}
	if err := a.jobs.Create(ctx, job); err != nil {
		return nil, false, fmt.Errorf("create job: %w", err)
	}
	a.log.Info("queued job",
		zap.String("job_id", job.ID),
		zap.String("lecture_id", lectureID),
		zap.String("job_type", string(jobType)))
	return job, true, nil
}

// QueueAllJobTypes queues every job type the lecture still needs. The
// raw video must actually exist in storage, checked against the object
// store rather than trusting the stored key, which may be stale.
func (a *Admission) QueueAllJobTypes(ctx context.Context, lectureID string) ([]*domain.Job, error) {
	lecture, err := a.lectures.Get(ctx, lectureID)
	if err != nil {
		return nil, fmt.Errorf("get lecture %s: %w", lectureID, err)
	}
	if lecture.VideoKey == "" {
		return nil, &domain.ValidationError{Msg: "lecture " + lectureID + " has no video to process"}
	}
	exists, err := a.objects.Exists(ctx, lecture.VideoKey)
	if err != nil {
		return nil, fmt.Errorf("check video %s: %w", lecture.VideoKey, err)
	}
	if !exists {
		return nil, &domain.ValidationError{Msg: "video object " + lecture.VideoKey + " does not exist in storage"}
	}

	needed, err := a.neededJobTypes(ctx, lecture)
	if err != nil {
		return nil, err
	}
	return a.queueAll(ctx, lectureID, needed)
}

func (a *Admission) neededJobTypes(ctx context.Context, lecture *domain.Lecture) ([]domain.JobType, error) {
	var needed []domain.JobType

	if !lecture.HasTranscript() {
		needed = append(needed, domain.JobTypeTranscript)
	}

	missingVariant, err := a.missingVariant(ctx, lecture)
	if err != nil {
		return nil, err
	}
	if missingVariant {
		needed = append(needed, domain.JobTypeTranscode)
	}

	thumbExists, err := a.objects.Exists(ctx, domain.DeriveThumbnailKey(lecture.VideoKey))
	if err != nil {
		return nil, fmt.Errorf("check thumbnail: %w", err)
	}
	if !thumbExists {
		needed = append(needed, domain.JobTypeThumbnail)
	}

	if lecture.HasTranscript() {
		if !lecture.HasSummary() {
			needed = append(needed, domain.JobTypeSummary)
		}
		count, err := a.chunks.CountByLecture(ctx, lecture.ID)
		if err != nil {
			return nil, fmt.Errorf("count chunks: %w", err)
		}
		if count == 0 {
			needed = append(needed, domain.JobTypeVectorize)
		}
	}
	return needed, nil
}

// missingVariant checks quality renditions by storage existence, not
// database flags: a recorded key whose object was deleted still counts
// as missing.
func (a *Admission) missingVariant(ctx context.Context, lecture *domain.Lecture) (bool, error) {
	for _, q := range domain.Qualities {
		exists, err := a.objects.Exists(ctx, domain.DeriveQualityKey(lecture.VideoKey, q))
		if err != nil {
			return false, fmt.Errorf("check %s rendition: %w", q, err)
		}
		if !exists {
			return true, nil
		}
	}
	return false, nil
}

func (a *Admission) queueAll(ctx context.Context, lectureID string, types []domain.JobType) ([]*domain.Job, error) {
	var created []*domain.Job
	for _, t := range types {
		job, queued, err := a.QueueJob(ctx, lectureID, t)
		if err != nil {
			return created, err
		}
		if queued {
			created = append(created, job)
		}
	}
	return created, nil
}

// QueueMissingForAllLectures scans every lecture and queues whatever
// derived artifacts are missing. Lectures whose raw video no longer
// exists in storage are skipped with a warning instead of being queued
// into an infinite failure loop.
func (a *Admission) QueueMissingForAllLectures(ctx context.Context) ([]*domain.Job, error) {
	lectures, err := a.lectures.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}

	var created []*domain.Job
	for _, lecture := range lectures {
		jobs, err := a.queueMissingForLecture(ctx, lecture)
		if err != nil {
			a.log.Error("bulk scan: lecture failed",
				zap.String("lecture_id", lecture.ID),
				zap.Error(err))
			continue
		}
		created = append(created, jobs...)
	}
	return created, nil
}

func (a *Admission) queueMissingForLecture(ctx context.Context, lecture *domain.Lecture) ([]*domain.Job, error) {
	hasVideo := false
	if lecture.VideoKey != "" {
		exists, err := a.objects.Exists(ctx, lecture.VideoKey)
		if err != nil {
			return nil, fmt.Errorf("check video: %w", err)
		}
		if !exists {
			a.log.Warn("bulk scan: raw video missing from storage, skipping",
				zap.String("lecture_id", lecture.ID),
				zap.String("video_key", lecture.VideoKey))
			return nil, nil
		}
		hasVideo = true
	}

	var needed []domain.JobType
	if hasVideo && !lecture.HasTranscript() {
		needed = append(needed, domain.JobTypeTranscript)
	}
	if lecture.HasTranscript() && !lecture.HasSummary() {
		needed = append(needed, domain.JobTypeSummary)
	}
	if hasVideo {
		missing, err := a.missingVariant(ctx, lecture)
		if err != nil {
			return nil, err
		}
		if missing {
			needed = append(needed, domain.JobTypeTranscode)
		}
	}
	return a.queueAll(ctx, lecture.ID, needed)
}
