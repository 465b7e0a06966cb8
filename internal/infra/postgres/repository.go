package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrJobNotFound = errors.New("render job not found")

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.RenderJob) error {
	query := `
		INSERT INTO render_jobs (
			id, user_id, source_key, video_key, sections_key, mode, status,
			frame_count, fps, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, job.SourceKey, job.VideoKey, job.SectionsKey, job.Mode,
		string(job.Status), job.FrameCount, job.FPS,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert render job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.RenderJob) error {
	query := `
		UPDATE render_jobs SET
			status=$2, video_key=$3, sections_key=$4, frame_count=$5, fps=$6,
			attempt=$7, error_message=$8, updated_at=$9, completed_at=$10
		WHERE id=$1`

	tag, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.VideoKey, job.SectionsKey,
		job.FrameCount, job.FPS, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update render job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update render job %s: %w", job.ID, ErrJobNotFound)
	}
	return nil
}

func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RenderJob, error) {
	query := `
		SELECT id, user_id, source_key, video_key, sections_key, mode, status,
			frame_count, fps, attempt, max_attempts,
			error_message, created_at, updated_at, completed_at
		FROM render_jobs WHERE id=$1`

	job := &entity.RenderJob{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &job.SourceKey, &job.VideoKey, &job.SectionsKey, &job.Mode, &status,
		&job.FrameCount, &job.FPS, &job.Attempt, &job.MaxAttempts,
		&job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find render job %s: %w", id, ErrJobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find render job by id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
