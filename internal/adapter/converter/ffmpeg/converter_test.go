package ffmpeg

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{
			name:    "valid path",
			path:    "/tmp/video.mp4",
			wantErr: nil,
		},
		{
			name:    "valid path with spaces",
			path:    "/tmp/my video.mp4",
			wantErr: nil,
		},
		{
			name:    "valid relative path",
			path:    "video.mp4",
			wantErr: nil,
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: ErrEmptyPath,
		},
		{
			name:    "path with null byte",
			path:    "/tmp/\x00video.mp4",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePath(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePath(%q) = %v, want %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestTranscodeArgs(t *testing.T) {
	args := transcodeArgs("/tmp/in.mp4", "/tmp/out_720p.mp4", 720)

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i /tmp/in.mp4",
		"scale=-2:720",
		"-c:v libx264",
		"-movflags +faststart",
		"-y /tmp/out_720p.mp4",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("transcode args missing %q: %v", want, args)
		}
	}
}

func TestThumbnailArgs(t *testing.T) {
	args := thumbnailArgs("/tmp/in.mp4", "/tmp/thumb.webp")

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-ss 00:00:03",
		"-frames:v 1",
		"scale=640:-2",
		"-c:v libwebp",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("thumbnail args missing %q: %v", want, args)
		}
	}
}

func TestExtractAudioArgs(t *testing.T) {
	args := extractAudioArgs("/tmp/in.mp4", "/tmp/audio.mp3")

	joined := strings.Join(args, " ")
	for _, want := range []string{"-vn", "-ac 1", "-ar 16000", "-c:a libmp3lame"} {
		if !strings.Contains(joined, want) {
			t.Errorf("extract-audio args missing %q: %v", want, args)
		}
	}
}

func TestSegmentArgs(t *testing.T) {
	args := segmentArgs("/tmp/audio.mp3", "/tmp/seg/segment_%03d.mp3", 600)

	joined := strings.Join(args, " ")
	for _, want := range []string{"-f segment", "-segment_time 600", "-c copy"} {
		if !strings.Contains(joined, want) {
			t.Errorf("segment args missing %q: %v", want, args)
		}
	}
}

func TestConverter_RejectsInvalidPaths(t *testing.T) {
	c := NewConverter()
	ctx := context.Background()

	if err := c.Transcode(ctx, "", "/tmp/out.mp4", 720); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Transcode with empty input = %v, want ErrEmptyPath", err)
	}
	if err := c.Thumbnail(ctx, "/tmp/\x00in.mp4", "/tmp/out.webp"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Thumbnail with null byte = %v, want ErrInvalidPath", err)
	}
	if _, err := c.SegmentAudio(ctx, "/tmp/in.mp3", "", 600); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("SegmentAudio with empty dir = %v, want ErrEmptyPath", err)
	}
}

func TestStderrExcerpt(t *testing.T) {
	long := strings.Repeat("x", 2000) + "tail"
	got := stderrExcerpt(long)
	if len(got) != maxStderrExcerpt {
		t.Errorf("excerpt length = %d, want %d", len(got), maxStderrExcerpt)
	}
	if !strings.HasSuffix(got, "tail") {
		t.Error("excerpt should keep the end of stderr, where the error usually is")
	}
}
