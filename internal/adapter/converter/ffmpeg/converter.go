package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
)

// stderr excerpts in job errors are capped so a chatty encoder run does
// not flood the jobs table.
const maxStderrExcerpt = 512

type Converter struct{}

func NewConverter() *Converter {
	return &Converter{}
}

var _ port.MediaConverter = (*Converter)(nil)

func (c *Converter) Transcode(ctx context.Context, inputPath, outputPath string, height int) error {
	if err := validatePaths(inputPath, outputPath); err != nil {
		return err
	}
	return run(ctx, "ffmpeg", transcodeArgs(inputPath, outputPath, height))
}

func (c *Converter) Thumbnail(ctx context.Context, inputPath, outputPath string) error {
	if err := validatePaths(inputPath, outputPath); err != nil {
		return err
	}
	return run(ctx, "ffmpeg", thumbnailArgs(inputPath, outputPath))
}

func (c *Converter) ExtractAudio(ctx context.Context, inputPath, outputPath string) error {
	if err := validatePaths(inputPath, outputPath); err != nil {
		return err
	}
	return run(ctx, "ffmpeg", extractAudioArgs(inputPath, outputPath))
}

func (c *Converter) SegmentAudio(ctx context.Context, inputPath, outputDir string, segmentSeconds int) ([]string, error) {
	if err := validatePaths(inputPath, outputDir); err != nil {
		return nil, err
	}
	pattern := filepath.Join(outputDir, "segment_%03d.mp3")
	if err := run(ctx, "ffmpeg", segmentArgs(inputPath, pattern, segmentSeconds)); err != nil {
		return nil, err
	}

	parts, err := filepath.Glob(filepath.Join(outputDir, "segment_*.mp3"))
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	if len(parts) == 0 {
		return nil, errors.New("segmentation produced no output files")
	}
	sort.Strings(parts)
	return parts, nil
}

func transcodeArgs(inputPath, outputPath string, height int) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y", outputPath,
	}
}

// thumbnailArgs grabs a frame at 3s (past any leading black frames) and
// scales it to 640px wide webp.
func thumbnailArgs(inputPath, outputPath string) []string {
	return []string{
		"-ss", "00:00:03",
		"-i", inputPath,
		"-frames:v", "1",
		"-vf", "scale=640:-2",
		"-c:v", "libwebp",
		"-quality", "80",
		"-y", outputPath,
	}
}

// extractAudioArgs downmixes to 16 kHz mono mp3, the input shape the
// transcription API expects.
func extractAudioArgs(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "libmp3lame",
		"-b:a", "64k",
		"-y", outputPath,
	}
}

func segmentArgs(inputPath, outputPattern string, segmentSeconds int) []string {
	return []string{
		"-i", inputPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", segmentSeconds),
		"-c", "copy",
		"-y", outputPattern,
	}
}

func run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &domain.CommandError{
			Cmd:      name,
			ExitCode: exitCode,
			Stderr:   stderrExcerpt(stderr.String()),
		}
	}
	return nil
}

func stderrExcerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrExcerpt {
		s = s[len(s)-maxStderrExcerpt:]
	}
	return s
}

func validatePaths(paths ...string) error {
	for _, p := range paths {
		if err := validatePath(p); err != nil {
			return err
		}
	}
	return nil
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}
	return nil
}
