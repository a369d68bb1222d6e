package port

import "context"

// MediaConverter wraps the external encoder toolchain. Implementations
// must surface non-zero exits as domain.CommandError and clean up any
// intermediate files they create.
type MediaConverter interface {
	// Transcode re-encodes the input video scaled to the given frame
	// height, writing an mp4 to outputPath.
	Transcode(ctx context.Context, inputPath, outputPath string, height int) error
	// Thumbnail extracts a single frame a few seconds in (skipping
	// leading black frames) and writes a scaled webp to outputPath.
	Thumbnail(ctx context.Context, inputPath, outputPath string) error
	// ExtractAudio writes the input's audio track as 16 kHz mono mp3.
	ExtractAudio(ctx context.Context, inputPath, outputPath string) error
	// SegmentAudio splits an audio file into fixed-duration parts inside
	// outputDir and returns their paths in playback order.
	SegmentAudio(ctx context.Context, inputPath, outputDir string, segmentSeconds int) ([]string, error)
}
