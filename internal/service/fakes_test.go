package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lectio/lectio/internal/domain"
)

type fakeJobStore struct {
	seq  int
	jobs map[string]*domain.Job
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[string]*domain.Job)}
}

func (s *fakeJobStore) Create(_ context.Context, job *domain.Job) error {
	s.seq++
	job.ID = fmt.Sprintf("job-%d", s.seq)
	job.Status = domain.JobStatusPending
	job.CreatedAt = time.Now().Add(time.Duration(s.seq) * time.Millisecond)
	job.UpdatedAt = job.CreatedAt
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeJobStore) GetByID(_ context.Context, id string) (*domain.Job, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (s *fakeJobStore) ListByStatus(_ context.Context, status domain.JobStatus) ([]*domain.Job, error) {
	var out []*domain.Job
	for _, job := range s.jobs {
		if job.Status == status {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeJobStore) ListByLecture(_ context.Context, lectureID string) ([]*domain.Job, error) {
	var out []*domain.Job
	for _, job := range s.jobs {
		if job.LectureID == lectureID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeJobStore) ListByLectures(_ context.Context, lectureIDs []string) ([]*domain.Job, error) {
	wanted := make(map[string]bool, len(lectureIDs))
	for _, id := range lectureIDs {
		wanted[id] = true
	}
	var out []*domain.Job
	for _, job := range s.jobs {
		if wanted[job.LectureID] {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeJobStore) HasActive(_ context.Context, lectureID string, jobType domain.JobType) (bool, error) {
	for _, job := range s.jobs {
		if job.LectureID == lectureID && job.Type == jobType && job.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeJobStore) MarkProcessing(_ context.Context, id string) (bool, error) {
	job, ok := s.jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return false, nil
	}
	job.Status = domain.JobStatusProcessing
	job.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeJobStore) MarkCompleted(_ context.Context, id string) error {
	return s.finish(id, domain.JobStatusCompleted, "")
}

func (s *fakeJobStore) MarkFailed(_ context.Context, id string, errMsg string) error {
	return s.finish(id, domain.JobStatusFailed, errMsg)
}

func (s *fakeJobStore) finish(id string, status domain.JobStatus, errMsg string) error {
	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	job.Status = status
	job.Error = errMsg
	job.UpdatedAt = now
	job.CompletedAt = &now
	return nil
}

func (s *fakeJobStore) DeletePending(_ context.Context, id string) error {
	job, ok := s.jobs[id]
	if !ok || job.Status != domain.JobStatusPending {
		return domain.ErrNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *fakeJobStore) byLectureAndType(lectureID string, t domain.JobType) []*domain.Job {
	var out []*domain.Job
	for _, job := range s.jobs {
		if job.LectureID == lectureID && job.Type == t {
			out = append(out, job)
		}
	}
	return out
}

type fakeLectureStore struct {
	lectures map[string]*domain.Lecture
}

func newFakeLectureStore(lectures ...*domain.Lecture) *fakeLectureStore {
	s := &fakeLectureStore{lectures: make(map[string]*domain.Lecture)}
	for _, l := range lectures {
		s.lectures[l.ID] = l
	}
	return s
}

func (s *fakeLectureStore) Create(_ context.Context, l *domain.Lecture) error {
	s.lectures[l.ID] = l
	return nil
}

func (s *fakeLectureStore) Get(_ context.Context, id string) (*domain.Lecture, error) {
	l, ok := s.lectures[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (s *fakeLectureStore) List(_ context.Context) ([]*domain.Lecture, error) {
	var out []*domain.Lecture
	for _, l := range s.lectures {
		copied := *l
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeLectureStore) UpdateTranscript(_ context.Context, id, transcript string) error {
	return s.update(id, func(l *domain.Lecture) { l.Transcript = transcript })
}

func (s *fakeLectureStore) UpdateSummary(_ context.Context, id, summary string) error {
	return s.update(id, func(l *domain.Lecture) { l.Summary = summary })
}

func (s *fakeLectureStore) UpdateThumbnailKey(_ context.Context, id, key string) error {
	return s.update(id, func(l *domain.Lecture) { l.ThumbnailKey = key })
}

func (s *fakeLectureStore) UpdateVariantKey(_ context.Context, id string, q domain.Quality, key string) error {
	return s.update(id, func(l *domain.Lecture) { l.SetVariantKey(q, key) })
}

func (s *fakeLectureStore) update(id string, fn func(*domain.Lecture)) error {
	l, ok := s.lectures[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(l)
	return nil
}

type fakeChunkStore struct {
	chunks        []domain.TranscriptChunk
	insertBatches [][]domain.TranscriptChunk
}

func (s *fakeChunkStore) InsertBatch(_ context.Context, chunks []domain.TranscriptChunk) error {
	batch := make([]domain.TranscriptChunk, len(chunks))
	copy(batch, chunks)
	s.insertBatches = append(s.insertBatches, batch)
	s.chunks = append(s.chunks, batch...)
	return nil
}

func (s *fakeChunkStore) DeleteByLecture(_ context.Context, lectureID string) error {
	var kept []domain.TranscriptChunk
	for _, c := range s.chunks {
		if c.LectureID != lectureID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func (s *fakeChunkStore) ListByLecture(_ context.Context, lectureID string) ([]domain.TranscriptChunk, error) {
	var out []domain.TranscriptChunk
	for _, c := range s.chunks {
		if c.LectureID == lectureID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (s *fakeChunkStore) ListAll(_ context.Context) ([]domain.TranscriptChunk, error) {
	out := make([]domain.TranscriptChunk, len(s.chunks))
	copy(out, s.chunks)
	return out, nil
}

func (s *fakeChunkStore) CountByLecture(_ context.Context, lectureID string) (int, error) {
	count := 0
	for _, c := range s.chunks {
		if c.LectureID == lectureID {
			count++
		}
	}
	return count, nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	uploads []string
}

func newFakeObjectStore(keys ...string) *fakeObjectStore {
	s := &fakeObjectStore{objects: make(map[string][]byte)}
	for _, k := range keys {
		s.objects[k] = []byte("data")
	}
	return s
}

func (s *fakeObjectStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeObjectStore) GetBuffer(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (s *fakeObjectStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	s.objects[key] = data
	s.uploads = append(s.uploads, key)
	return nil
}

func (s *fakeObjectStore) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

// fakeEmbedder returns deterministic vectors and records batch sizes.
// It can be told to fail the first n calls or every call.
type fakeEmbedder struct {
	batchSizes []int
	calls      int
	failFirst  int
	err        error
	vectorFor  func(text string) []float32
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	e.batchSizes = append(e.batchSizes, len(texts))
	if e.err != nil && (e.failFirst == 0 || e.calls <= e.failFirst) {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if e.vectorFor != nil {
			out[i] = e.vectorFor(text)
		} else {
			out[i] = []float32{float32(len(text)), 1}
		}
	}
	return out, nil
}

type fakeTranscriber struct {
	texts map[string]string
	err   error
}

func (t *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	if text, ok := t.texts[filepath.Base(audioPath)]; ok {
		return text, nil
	}
	return "transcribed audio", nil
}

type fakeTextGen struct {
	summary    string
	summaryErr error
	formatErr  error
}

func (g *fakeTextGen) Summarize(_ context.Context, transcript string) (string, error) {
	if g.summaryErr != nil {
		return "", g.summaryErr
	}
	if g.summary != "" {
		return g.summary, nil
	}
	return "summary of: " + transcript[:minInt(20, len(transcript))], nil
}

func (g *fakeTextGen) FormatParagraphs(_ context.Context, transcript string) (string, error) {
	if g.formatErr != nil {
		return "", g.formatErr
	}
	return transcript, nil
}

// fakeConverter writes placeholder output files so handlers can read
// and upload them.
type fakeConverter struct {
	transcodeErr error
	thumbnailErr error
	audioErr     error
	segments     int
}

func (c *fakeConverter) Transcode(_ context.Context, _, outputPath string, height int) error {
	if c.transcodeErr != nil {
		return c.transcodeErr
	}
	return os.WriteFile(outputPath, []byte(fmt.Sprintf("video-%d", height)), 0644)
}

func (c *fakeConverter) Thumbnail(_ context.Context, _, outputPath string) error {
	if c.thumbnailErr != nil {
		return c.thumbnailErr
	}
	return os.WriteFile(outputPath, []byte("webp"), 0644)
}

func (c *fakeConverter) ExtractAudio(_ context.Context, _, outputPath string) error {
	if c.audioErr != nil {
		return c.audioErr
	}
	return os.WriteFile(outputPath, []byte("audio"), 0644)
}

func (c *fakeConverter) SegmentAudio(_ context.Context, _, outputDir string, _ int) ([]string, error) {
	n := c.segments
	if n == 0 {
		n = 2
	}
	var parts []string
	for i := 0; i < n; i++ {
		p := filepath.Join(outputDir, fmt.Sprintf("segment_%03d.mp3", i))
		if err := os.WriteFile(p, []byte("segment"), 0644); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, nil
}

var errBoom = errors.New("boom")

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
