package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

const (
	defaultEmbedBatchSize  = 100
	defaultInsertBatchSize = 50
	defaultEmbedRetries    = 3
	defaultBackoffBase     = time.Second
)

// Vectorizer turns lecture transcripts into embedded chunks ready for
// semantic search.
type Vectorizer struct {
	lectures port.LectureStore
	chunks   port.ChunkStore
	embedder port.Embedder
	log      *zap.Logger

	maxChunkTokens  int
	embedBatchSize  int
	insertBatchSize int
	maxRetries      uint64
	backoffBase     time.Duration
}

func NewVectorizer(lectures port.LectureStore, chunks port.ChunkStore, embedder port.Embedder, log *zap.Logger) *Vectorizer {
	return &Vectorizer{
		lectures:        lectures,
		chunks:          chunks,
		embedder:        embedder,
		log:             log,
		maxChunkTokens:  DefaultMaxChunkTokens,
		embedBatchSize:  defaultEmbedBatchSize,
		insertBatchSize: defaultInsertBatchSize,
		maxRetries:      defaultEmbedRetries,
		backoffBase:     defaultBackoffBase,
	}
}

// Configure overrides the chunking and embedding tunables. Zero or
// negative values keep the defaults.
func (v *Vectorizer) Configure(maxChunkTokens, embedBatchSize, maxRetries int) {
	if maxChunkTokens > 0 {
		v.maxChunkTokens = maxChunkTokens
	}
	if embedBatchSize > 0 {
		v.embedBatchSize = embedBatchSize
	}
	if maxRetries > 0 {
		v.maxRetries = uint64(maxRetries)
	}
}

// Vectorize replaces the stored chunks for a lecture with a freshly
// embedded set. Existing chunks are deleted first (full replace, never
// a merge) and new chunks are flushed batch by batch, so peak memory
// stays bounded regardless of transcript length.
func (v *Vectorizer) Vectorize(ctx context.Context, lectureID string) error {
	lecture, err := v.lectures.Get(ctx, lectureID)
	if err != nil {
		return fmt.Errorf("get lecture %s: %w", lectureID, err)
	}
	if !lecture.HasTranscript() {
		return &domain.ValidationError{Msg: "lecture " + lectureID + " has no transcript to vectorize"}
	}

	pieces := SplitTranscript(lecture.Transcript, v.maxChunkTokens)

	if err := v.chunks.DeleteByLecture(ctx, lectureID); err != nil {
		return fmt.Errorf("delete existing chunks for %s: %w", lectureID, err)
	}
	if len(pieces) == 0 {
		return nil
	}

	for start := 0; start < len(pieces); start += v.embedBatchSize {
		end := min(start+v.embedBatchSize, len(pieces))
		batch := pieces[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := v.embedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d for %s: %w", start, end-1, lectureID, err)
		}

		for i := range batch {
			batch[i].LectureID = lectureID
			batch[i].Embedding = vectors[i]
		}
		if err := v.insertChunks(ctx, batch); err != nil {
			return err
		}
	}

	v.log.Info("vectorized lecture",
		zap.String("lecture_id", lectureID),
		zap.Int("chunks", len(pieces)))
	return nil
}

// embedBatch calls the embedder with bounded exponential backoff. Only
// retryable failures (rate limits, upstream 5xx) consume the retry
// budget; fatal and data-integrity errors abort immediately.
func (v *Vectorizer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	backoff := retry.WithMaxRetries(v.maxRetries, retry.NewExponential(v.backoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := v.embedder.Embed(ctx, texts)
		if err != nil {
			if domain.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		if err := validateEmbeddings(texts, out); err != nil {
			return err
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

// validateEmbeddings fails fast on count mismatches or empty vectors
// rather than persisting partial or zero data.
func validateEmbeddings(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return &domain.FatalError{
			Op:  "embed",
			Err: fmt.Errorf("requested %d embeddings, got %d", len(texts), len(vectors)),
		}
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return &domain.FatalError{
				Op:  "embed",
				Err: fmt.Errorf("embedding %d is empty", i),
			}
		}
	}
	return nil
}

func (v *Vectorizer) insertChunks(ctx context.Context, chunks []domain.TranscriptChunk) error {
	for start := 0; start < len(chunks); start += v.insertBatchSize {
		end := min(start+v.insertBatchSize, len(chunks))
		if err := v.chunks.InsertBatch(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}
	return nil
}

// VectorizeFailure records one lecture the bulk run could not process.
type VectorizeFailure struct {
	LectureID string `json:"lectureId"`
	Error     string `json:"error"`
}

// VectorizeSummary is the result of a bulk vectorization run.
type VectorizeSummary struct {
	Processed int                `json:"processed"`
	Skipped   int                `json:"skipped"`
	Failures  []VectorizeFailure `json:"failures,omitempty"`
}

// VectorizeAll re-vectorizes every lecture that has a transcript.
// Per-lecture failures are collected, not propagated; one bad lecture
// never aborts the batch.
func (v *Vectorizer) VectorizeAll(ctx context.Context) (*VectorizeSummary, error) {
	lectures, err := v.lectures.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lectures: %w", err)
	}

	summary := &VectorizeSummary{}
	for _, lecture := range lectures {
		if !lecture.HasTranscript() {
			summary.Skipped++
			continue
		}
		if err := v.Vectorize(ctx, lecture.ID); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			v.log.Error("bulk vectorize: lecture failed",
				zap.String("lecture_id", lecture.ID),
				zap.Error(err))
			summary.Failures = append(summary.Failures, VectorizeFailure{
				LectureID: lecture.ID,
				Error:     err.Error(),
			})
			continue
		}
		summary.Processed++
	}
	return summary, nil
}
