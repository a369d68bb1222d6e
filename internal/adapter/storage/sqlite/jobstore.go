package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

type JobStore struct {
	db *sql.DB
}

func NewJobStore(store *Store) *JobStore {
	return &JobStore{db: store.db}
}

const jobColumns = "id, lecture_id, job_type, status, error, created_at, updated_at, completed_at"

func (s *JobStore) Create(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.Status = domain.JobStatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, lecture_id, job_type, status, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', ?, ?)`,
		job.ID, job.LectureID, string(job.Type), string(job.Status), job.CreatedAt, job.UpdatedAt,
	)
	return err
}

func (s *JobStore) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

func (s *JobStore) ListByStatus(ctx context.Context, status domain.JobStatus) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = ? ORDER BY created_at ASC, id ASC`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *JobStore) ListByLecture(ctx context.Context, lectureID string) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE lecture_id = ? ORDER BY created_at ASC, id ASC`,
		lectureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *JobStore) ListByLectures(ctx context.Context, lectureIDs []string) ([]*domain.Job, error) {
	if len(lectureIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(lectureIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(lectureIDs))
	for i, id := range lectureIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE lecture_id IN (`+placeholders+`) ORDER BY created_at ASC, id ASC`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *JobStore) HasActive(ctx context.Context, lectureID string, jobType domain.JobType) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs
		 WHERE lecture_id = ? AND job_type = ? AND status IN ('pending', 'processing')`,
		lectureID, string(jobType)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkProcessing claims a pending job. The conditional update is the
// atomicity point: only one caller observes rows affected = 1.
func (s *JobStore) MarkProcessing(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'processing', updated_at = ? WHERE id = ? AND status = 'pending'`,
		time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *JobStore) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'completed', error = '', updated_at = ?, completed_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *JobStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = 'failed', error = ?, updated_at = ?, completed_at = ? WHERE id = ?`,
		errMsg, now, now, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *JobStore) DeletePending(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE id = ? AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job         domain.Job
		jobType     string
		status      string
		completedAt sql.NullTime
	)
	err := row.Scan(&job.ID, &job.LectureID, &jobType, &status, &job.Error,
		&job.CreatedAt, &job.UpdatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Type = domain.JobType(jobType)
	job.Status = domain.JobStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

func scanJobs(rows *sql.Rows) ([]*domain.Job, error) {
	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

var _ port.JobStore = (*JobStore)(nil)
