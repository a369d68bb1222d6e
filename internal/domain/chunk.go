package domain

import "time"

// TranscriptChunk is a token-bounded fragment of a lecture transcript
// stored with its embedding for semantic search. Chunks for a lecture
// are fully replaced on every re-vectorization; ascending ChunkIndex
// reconstructs the original transcript order.
type TranscriptChunk struct {
	ID         int64     `json:"id"`
	LectureID  string    `json:"lectureId"`
	ChunkIndex int       `json:"chunkIndex"`
	Text       string    `json:"chunkText"`
	TokenCount int       `json:"tokenCount"`
	Embedding  []float32 `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SearchResult is one nearest-neighbor hit, annotated with its owning
// lecture for display.
type SearchResult struct {
	Chunk        TranscriptChunk `json:"chunk"`
	LectureID    string          `json:"lectureId"`
	LectureTitle string          `json:"lectureTitle"`
	Score        float64         `json:"score"`
}
