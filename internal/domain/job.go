package domain

import "time"

type JobType string

const (
	JobTypeTranscript JobType = "transcript"
	JobTypeTranscode  JobType = "transcode"
	JobTypeThumbnail  JobType = "thumbnail"
	JobTypeSummary    JobType = "summary"
	JobTypeVectorize  JobType = "vectorize"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeTranscript, JobTypeTranscode, JobTypeThumbnail, JobTypeSummary, JobTypeVectorize:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Active reports whether a job in this status still occupies the
// per-(lecture, type) slot. At most one active job may exist per pair.
func (s JobStatus) Active() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// Terminal statuses are never left; retrying means creating a fresh job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is one unit of asynchronous derived-artifact work for a lecture.
// The JSON shape doubles as the wire format for status-reporting callers.
type Job struct {
	ID          string     `json:"id"`
	LectureID   string     `json:"lectureId"`
	Type        JobType    `json:"jobType"`
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
