package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

type RenderJob struct {
	ID           uuid.UUID
	UserID       string
	SourceKey    string
	VideoKey     string
	SectionsKey  string
	Mode         string
	Status       JobStatus
	FrameCount   int
	FPS          float64
	Attempt      int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewRenderJob(userID, sourceKey, mode string, maxAttempts int) *RenderJob {
	now := time.Now().UTC()
	return &RenderJob{
		ID:          uuid.New(),
		UserID:      userID,
		SourceKey:   sourceKey,
		Mode:        mode,
		Status:      JobStatusPending,
		Attempt:     0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *RenderJob) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

func (j *RenderJob) MarkCompleted(videoKey, sectionsKey string, frameCount int, fps float64) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.VideoKey = videoKey
	j.SectionsKey = sectionsKey
	j.FrameCount = frameCount
	j.FPS = fps
	j.UpdatedAt = now
	j.CompletedAt = &now
}

func (j *RenderJob) MarkFailed(errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// MarkRejected fails the job for good; input errors are never retried.
func (j *RenderJob) MarkRejected(errMsg string) {
	j.MarkFailed(errMsg)
	j.Attempt = j.MaxAttempts
}

func (j *RenderJob) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
