package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/lectio/lectio/internal/domain"
)

// handleTranscript downloads the lecture video, extracts its audio and
// transcribes it. Audio over the transcription API's size ceiling is
// split into fixed-duration segments transcribed independently and
// concatenated in order. A second pass inserts paragraph breaks; it is
// instructed never to alter wording, and if it fails the raw transcript
// is kept rather than discarding expensive transcription work.
func (w *Worker) handleTranscript(ctx context.Context, lectureID string) error {
	lecture, err := w.lectures.Get(ctx, lectureID)
	if err != nil {
		return fmt.Errorf("get lecture: %w", err)
	}
	if lecture.VideoKey == "" {
		return &domain.ValidationError{Msg: "lecture has no video key"}
	}

	tmpDir, err := os.MkdirTemp(w.workDir, "transcript-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	videoPath, err := w.download(ctx, lecture.VideoKey, tmpDir)
	if err != nil {
		return err
	}

	audioPath := filepath.Join(tmpDir, "audio.mp3")
	if err := w.converter.ExtractAudio(ctx, videoPath, audioPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}

	parts := []string{audioPath}
	info, err := os.Stat(audioPath)
	if err != nil {
		return fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() > w.maxAudioBytes {
		segmentDir := filepath.Join(tmpDir, "segments")
		if err := os.MkdirAll(segmentDir, 0755); err != nil {
			return fmt.Errorf("create segment dir: %w", err)
		}
		parts, err = w.converter.SegmentAudio(ctx, audioPath, segmentDir, w.segmentSeconds)
		if err != nil {
			return fmt.Errorf("segment audio: %w", err)
		}
		w.log.Info("audio split for transcription",
			zap.String("lecture_id", lectureID),
			zap.Int64("audio_bytes", info.Size()),
			zap.Int("segments", len(parts)))
	}

	var sb strings.Builder
	for i, part := range parts {
		text, err := w.transcriber.Transcribe(ctx, part)
		if err != nil {
			return fmt.Errorf("transcribe segment %d/%d: %w", i+1, len(parts), err)
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(text))
	}
	transcript := strings.TrimSpace(sb.String())
	if transcript == "" {
		return fmt.Errorf("transcription produced no text for %s", lecture.VideoKey)
	}

	formatted, err := w.textGen.FormatParagraphs(ctx, transcript)
	if err != nil {
		w.log.Warn("paragraph formatting failed, keeping raw transcript",
			zap.String("lecture_id", lectureID),
			zap.Error(err))
		formatted = transcript
	}

	if err := w.lectures.UpdateTranscript(ctx, lectureID, formatted); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}

	// The fresh transcript makes summary and vectorize work eligible;
	// queueing is idempotent so doubling up with a later scan is fine.
	for _, t := range []domain.JobType{domain.JobTypeSummary, domain.JobTypeVectorize} {
		if _, _, err := w.admission.QueueJob(ctx, lectureID, t); err != nil {
			w.log.Error("queue follow-up job failed",
				zap.String("lecture_id", lectureID),
				zap.String("job_type", string(t)),
				zap.Error(err))
		}
	}
	return nil
}

// handleTranscode produces every quality rendition. A partial result —
// one rendition uploaded, the next failed — returns an error so the job
// is never silently marked complete.
func (w *Worker) handleTranscode(ctx context.Context, lectureID string) error {
	lecture, err := w.lectures.Get(ctx, lectureID)
	if err != nil {
		return fmt.Errorf("get lecture: %w", err)
	}
	if lecture.VideoKey == "" {
		return &domain.ValidationError{Msg: "lecture has no video key"}
	}

	tmpDir, err := os.MkdirTemp(w.workDir, "transcode-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	videoPath, err := w.download(ctx, lecture.VideoKey, tmpDir)
	if err != nil {
		return err
	}

	for _, q := range domain.Qualities {
		outPath := filepath.Join(tmpDir, string(q)+".mp4")
		if err := w.converter.Transcode(ctx, videoPath, outPath, q.Height()); err != nil {
			return fmt.Errorf("transcode %s: %w", q, err)
		}

		data, err := os.ReadFile(outPath)
		if err != nil {
			return fmt.Errorf("read %s rendition: %w", q, err)
		}
		key := domain.DeriveQualityKey(lecture.VideoKey, q)
		if err := w.objects.Upload(ctx, key, data, "video/mp4"); err != nil {
			return fmt.Errorf("upload %s rendition: %w", q, err)
		}
		if err := w.lectures.UpdateVariantKey(ctx, lectureID, q, key); err != nil {
			return fmt.Errorf("save %s rendition key: %w", q, err)
		}
	}
	return nil
}

func (w *Worker) handleThumbnail(ctx context.Context, lectureID string) error {
	lecture, err := w.lectures.Get(ctx, lectureID)
	if err != nil {
		return fmt.Errorf("get lecture: %w", err)
	}
	if lecture.VideoKey == "" {
		return &domain.ValidationError{Msg: "lecture has no video key"}
	}

	tmpDir, err := os.MkdirTemp(w.workDir, "thumbnail-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	videoPath, err := w.download(ctx, lecture.VideoKey, tmpDir)
	if err != nil {
		return err
	}

	thumbPath := filepath.Join(tmpDir, "thumb.webp")
	if err := w.converter.Thumbnail(ctx, videoPath, thumbPath); err != nil {
		return fmt.Errorf("extract thumbnail: %w", err)
	}

	data, err := os.ReadFile(thumbPath)
	if err != nil {
		return fmt.Errorf("read thumbnail: %w", err)
	}
	key := domain.DeriveThumbnailKey(lecture.VideoKey)
	if err := w.objects.Upload(ctx, key, data, "image/webp"); err != nil {
		return fmt.Errorf("upload thumbnail: %w", err)
	}
	if err := w.lectures.UpdateThumbnailKey(ctx, lectureID, key); err != nil {
		return fmt.Errorf("save thumbnail key: %w", err)
	}
	return nil
}

func (w *Worker) handleSummary(ctx context.Context, lectureID string) error {
	lecture, err := w.lectures.Get(ctx, lectureID)
	if err != nil {
		return fmt.Errorf("get lecture: %w", err)
	}
	if !lecture.HasTranscript() {
		return &domain.ValidationError{Msg: "lecture has no transcript to summarize"}
	}

	summary, err := w.textGen.Summarize(ctx, lecture.Transcript)
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	if err := w.lectures.UpdateSummary(ctx, lectureID, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// download fetches an object into dir, keeping the key's extension so
// the encoder can sniff the container format.
func (w *Worker) download(ctx context.Context, key, dir string) (string, error) {
	data, err := w.objects.GetBuffer(ctx, key)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", key, err)
	}
	ext := path.Ext(key)
	if ext == "" {
		ext = ".mp4"
	}
	dst := filepath.Join(dir, "source"+ext)
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	return dst, nil
}
