package domain

import "time"

// Quality identifies a transcoded rendition of a lecture video.
type Quality string

const (
	Quality720 Quality = "720p"
	Quality480 Quality = "480p"
)

// Qualities lists every rendition the transcode job produces, in the
// order they are encoded.
var Qualities = []Quality{Quality720, Quality480}

// Height returns the target frame height for the rendition.
func (q Quality) Height() int {
	switch q {
	case Quality720:
		return 720
	case Quality480:
		return 480
	}
	return 0
}

// Lecture is the media entity the pipeline derives artifacts for. The
// pipeline owns the derived fields (transcript, summary, thumbnail and
// variant keys) but not the lecture's lifecycle.
type Lecture struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	VideoKey      string    `json:"videoKey"`
	Transcript    string    `json:"transcript,omitempty"`
	Summary       string    `json:"summary,omitempty"`
	ThumbnailKey  string    `json:"thumbnailKey,omitempty"`
	Variant720Key string    `json:"variant720Key,omitempty"`
	Variant480Key string    `json:"variant480Key,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (l *Lecture) HasTranscript() bool {
	return l.Transcript != ""
}

func (l *Lecture) HasSummary() bool {
	return l.Summary != ""
}

func (l *Lecture) VariantKey(q Quality) string {
	switch q {
	case Quality720:
		return l.Variant720Key
	case Quality480:
		return l.Variant480Key
	}
	return ""
}

func (l *Lecture) SetVariantKey(q Quality, key string) {
	switch q {
	case Quality720:
		l.Variant720Key = key
	case Quality480:
		l.Variant480Key = key
	}
}
