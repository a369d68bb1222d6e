package domain

import "testing"

func TestDeriveQualityKey(t *testing.T) {
	tests := []struct {
		name    string
		baseKey string
		quality Quality
		want    string
	}{
		{
			name:    "mp4 source 720p",
			baseKey: "videos/lec-01.mp4",
			quality: Quality720,
			want:    "videos/lec-01_720p.mp4",
		},
		{
			name:    "mp4 source 480p",
			baseKey: "videos/lec-01.mp4",
			quality: Quality480,
			want:    "videos/lec-01_480p.mp4",
		},
		{
			name:    "mov source normalized to mp4",
			baseKey: "videos/lec-02.mov",
			quality: Quality720,
			want:    "videos/lec-02_720p.mp4",
		},
		{
			name:    "key without extension",
			baseKey: "videos/lec-03",
			quality: Quality480,
			want:    "videos/lec-03_480p.mp4",
		},
		{
			name:    "dotted directory segment",
			baseKey: "course.v2/lec-04.mp4",
			quality: Quality720,
			want:    "course.v2/lec-04_720p.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveQualityKey(tt.baseKey, tt.quality); got != tt.want {
				t.Errorf("DeriveQualityKey(%q, %q) = %q, want %q", tt.baseKey, tt.quality, got, tt.want)
			}
		})
	}
}

func TestDeriveThumbnailKey(t *testing.T) {
	tests := []struct {
		baseKey string
		want    string
	}{
		{"videos/lec-01.mp4", "videos/lec-01_thumb.webp"},
		{"videos/lec-02.mov", "videos/lec-02_thumb.webp"},
		{"videos/lec-03", "videos/lec-03_thumb.webp"},
	}

	for _, tt := range tests {
		if got := DeriveThumbnailKey(tt.baseKey); got != tt.want {
			t.Errorf("DeriveThumbnailKey(%q) = %q, want %q", tt.baseKey, got, tt.want)
		}
	}
}

func TestQualityHeight(t *testing.T) {
	if got := Quality720.Height(); got != 720 {
		t.Errorf("Quality720.Height() = %d, want 720", got)
	}
	if got := Quality480.Height(); got != 480 {
		t.Errorf("Quality480.Height() = %d, want 480", got)
	}
	if got := Quality("240p").Height(); got != 0 {
		t.Errorf("unknown quality Height() = %d, want 0", got)
	}
}
