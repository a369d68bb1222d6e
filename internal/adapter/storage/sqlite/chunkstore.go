package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

type ChunkStore struct {
	db *sql.DB
}

func NewChunkStore(store *Store) *ChunkStore {
	return &ChunkStore{db: store.db}
}

const chunkColumns = "id, lecture_id, chunk_index, chunk_text, token_count, embedding, created_at"

func (s *ChunkStore) InsertBatch(ctx context.Context, chunks []domain.TranscriptChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transcript_chunks (lecture_id, chunk_index, chunk_text, token_count, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.LectureID, c.ChunkIndex, c.Text,
			c.TokenCount, encodeEmbedding(c.Embedding), now); err != nil {
			return fmt.Errorf("insert chunk %d for lecture %s: %w", c.ChunkIndex, c.LectureID, err)
		}
	}
	return tx.Commit()
}

func (s *ChunkStore) DeleteByLecture(ctx context.Context, lectureID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM transcript_chunks WHERE lecture_id = ?`, lectureID)
	return err
}

func (s *ChunkStore) ListByLecture(ctx context.Context, lectureID string) ([]domain.TranscriptChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM transcript_chunks WHERE lecture_id = ? ORDER BY chunk_index ASC`,
		lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *ChunkStore) ListAll(ctx context.Context) ([]domain.TranscriptChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkColumns+` FROM transcript_chunks ORDER BY lecture_id ASC, chunk_index ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChunks(rows)
}

func (s *ChunkStore) CountByLecture(ctx context.Context, lectureID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcript_chunks WHERE lecture_id = ?`, lectureID).Scan(&count)
	return count, err
}

func scanChunks(rows *sql.Rows) ([]domain.TranscriptChunk, error) {
	var chunks []domain.TranscriptChunk
	for rows.Next() {
		var (
			c    domain.TranscriptChunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.LectureID, &c.ChunkIndex, &c.Text,
			&c.TokenCount, &blob, &c.CreatedAt); err != nil {
			return nil, err
		}
		vec, err := decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d for lecture %s: %w", c.ChunkIndex, c.LectureID, err)
		}
		c.Embedding = vec
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Embeddings are stored as little-endian float32 sequences.

func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}

var _ port.ChunkStore = (*ChunkStore)(nil)
