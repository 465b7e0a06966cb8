package port

import (
	"context"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/entity"
	"github.com/google/uuid"
)

type JobRepository interface {
	Create(ctx context.Context, job *entity.RenderJob) error
	Update(ctx context.Context, job *entity.RenderJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RenderJob, error)
}
