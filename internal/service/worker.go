package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

const defaultPollInterval = 2 * time.Second

// WorkerDeps bundles the collaborators a Worker dispatches to.
type WorkerDeps struct {
	Jobs        port.JobStore
	Lectures    port.LectureStore
	Objects     port.ObjectStore
	Converter   port.MediaConverter
	Transcriber port.Transcriber
	TextGen     port.TextGenerator
	Vectorizer  *Vectorizer
	Admission   *Admission
	Log         *zap.Logger
}

// Worker drains pending jobs to completion within a single process.
// Jobs run sequentially: the downstream tooling (ffmpeg, transcription
// and embedding APIs) is CPU and rate-limit heavy, and uncontrolled
// fan-out would exhaust both.
type Worker struct {
	jobs        port.JobStore
	lectures    port.LectureStore
	objects     port.ObjectStore
	converter   port.MediaConverter
	transcriber port.Transcriber
	textGen     port.TextGenerator
	vectorizer  *Vectorizer
	admission   *Admission
	log         *zap.Logger

	workDir        string
	pollInterval   time.Duration
	maxAudioBytes  int64
	segmentSeconds int

	running atomic.Bool
}

func NewWorker(deps WorkerDeps, workDir string, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Worker{
		jobs:           deps.Jobs,
		lectures:       deps.Lectures,
		objects:        deps.Objects,
		converter:      deps.Converter,
		transcriber:    deps.Transcriber,
		textGen:        deps.TextGen,
		vectorizer:     deps.Vectorizer,
		admission:      deps.Admission,
		log:            deps.Log,
		workDir:        workDir,
		pollInterval:   pollInterval,
		maxAudioBytes:  24 * 1024 * 1024,
		segmentSeconds: 600,
	}
}

// ConfigureAudio overrides the transcription audio limits. Zero or
// negative values keep the defaults.
func (w *Worker) ConfigureAudio(maxBytes int64, segmentSeconds int) {
	if maxBytes > 0 {
		w.maxAudioBytes = maxBytes
	}
	if segmentSeconds > 0 {
		w.segmentSeconds = segmentSeconds
	}
}

// Start launches the background loop. It is idempotent: calling it on
// an already-running worker is a no-op, so a process can never run two
// loops that double-claim jobs. The loop stops when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.log.Debug("worker already running, ignoring start")
		return
	}
	w.log.Info("worker started", zap.Duration("poll_interval", w.pollInterval))
	go w.run(ctx)
}

// Running reports whether the background loop is active.
func (w *Worker) Running() bool {
	return w.running.Load()
}

func (w *Worker) run(ctx context.Context) {
	defer w.running.Store(false)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.drain(ctx)
		select {
		case <-ctx.Done():
			w.log.Info("worker shutting down")
			return
		case <-ticker.C:
		}
	}
}

// drain claims and processes every currently-pending job in FIFO order.
// A failure in one job never aborts the rest of the queue.
func (w *Worker) drain(ctx context.Context) {
	pending, err := w.jobs.ListByStatus(ctx, domain.JobStatusPending)
	if err != nil {
		w.log.Error("worker: list pending jobs failed", zap.Error(err))
		return
	}

	for _, job := range pending {
		if ctx.Err() != nil {
			return
		}

		claimed, err := w.jobs.MarkProcessing(ctx, job.ID)
		if err != nil {
			w.log.Error("worker: claim failed",
				zap.String("job_id", job.ID),
				zap.Error(err))
			continue
		}
		if !claimed {
			// Someone else got it between the list and the claim.
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *domain.Job) {
	start := time.Now()
	w.log.Info("processing job",
		zap.String("job_id", job.ID),
		zap.String("lecture_id", job.LectureID),
		zap.String("job_type", string(job.Type)))

	if err := w.dispatch(ctx, job); err != nil {
		w.log.Error("job failed",
			zap.String("job_id", job.ID),
			zap.String("job_type", string(job.Type)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if markErr := w.jobs.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
			w.log.Error("worker: record failure failed",
				zap.String("job_id", job.ID),
				zap.Error(markErr))
		}
		return
	}

	if err := w.jobs.MarkCompleted(ctx, job.ID); err != nil {
		w.log.Error("worker: record completion failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
		return
	}
	w.log.Info("job completed",
		zap.String("job_id", job.ID),
		zap.String("job_type", string(job.Type)),
		zap.Duration("duration", time.Since(start)))
}

func (w *Worker) dispatch(ctx context.Context, job *domain.Job) error {
	switch job.Type {
	case domain.JobTypeTranscript:
		return w.handleTranscript(ctx, job.LectureID)
	case domain.JobTypeTranscode:
		return w.handleTranscode(ctx, job.LectureID)
	case domain.JobTypeThumbnail:
		return w.handleThumbnail(ctx, job.LectureID)
	case domain.JobTypeSummary:
		return w.handleSummary(ctx, job.LectureID)
	case domain.JobTypeVectorize:
		return w.vectorizer.Vectorize(ctx, job.LectureID)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
