package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

type LectureStore struct {
	db *sql.DB
}

func NewLectureStore(store *Store) *LectureStore {
	return &LectureStore{db: store.db}
}

const lectureColumns = "id, title, video_key, transcript, summary, thumbnail_key, variant_720_key, variant_480_key, created_at, updated_at"

func (s *LectureStore) Create(ctx context.Context, l *domain.Lecture) error {
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lectures (id, title, video_key, transcript, summary, thumbnail_key, variant_720_key, variant_480_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Title, l.VideoKey, l.Transcript, l.Summary, l.ThumbnailKey,
		l.Variant720Key, l.Variant480Key, l.CreatedAt, l.UpdatedAt)
	return err
}

func (s *LectureStore) Get(ctx context.Context, id string) (*domain.Lecture, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+lectureColumns+` FROM lectures WHERE id = ?`, id)
	return scanLecture(row)
}

func (s *LectureStore) List(ctx context.Context) ([]*domain.Lecture, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+lectureColumns+` FROM lectures ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lectures []*domain.Lecture
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}

func (s *LectureStore) UpdateTranscript(ctx context.Context, id, transcript string) error {
	return s.updateColumn(ctx, id, "transcript", transcript)
}

func (s *LectureStore) UpdateSummary(ctx context.Context, id, summary string) error {
	return s.updateColumn(ctx, id, "summary", summary)
}

func (s *LectureStore) UpdateThumbnailKey(ctx context.Context, id, key string) error {
	return s.updateColumn(ctx, id, "thumbnail_key", key)
}

func (s *LectureStore) UpdateVariantKey(ctx context.Context, id string, q domain.Quality, key string) error {
	switch q {
	case domain.Quality720:
		return s.updateColumn(ctx, id, "variant_720_key", key)
	case domain.Quality480:
		return s.updateColumn(ctx, id, "variant_480_key", key)
	}
	return errors.New("unknown quality: " + string(q))
}

func (s *LectureStore) updateColumn(ctx context.Context, id, column, value string) error {
	// column is always one of the fixed names above, never caller input
	res, err := s.db.ExecContext(ctx,
		`UPDATE lectures SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func scanLecture(row rowScanner) (*domain.Lecture, error) {
	var l domain.Lecture
	err := row.Scan(&l.ID, &l.Title, &l.VideoKey, &l.Transcript, &l.Summary,
		&l.ThumbnailKey, &l.Variant720Key, &l.Variant480Key, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

var _ port.LectureStore = (*LectureStore)(nil)
