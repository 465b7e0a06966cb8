package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/entity"
	"github.com/catleonidas/DispoWiggleLens/internal/domain/port"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/metrics"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessRenderUseCase struct {
	repo      port.JobRepository
	storage   port.RenderStorage
	decoder   port.ImageDecoder
	renderer  *Renderer
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	cfg       ProcessRenderConfig
}

type ProcessRenderConfig struct {
	TempDir            string
	MaxRetries         int
	DefaultVideoLength float64
	DefaultFrameSpeed  float64
	DefaultMode        wiggle.Mode
}

func NewProcessRenderUseCase(
	repo port.JobRepository,
	storage port.RenderStorage,
	decoder port.ImageDecoder,
	renderer *Renderer,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessRenderConfig,
) *ProcessRenderUseCase {
	if cfg.DefaultFrameSpeed <= 0 {
		cfg.DefaultFrameSpeed = wiggle.DefaultFrameSpeed
	}
	if cfg.DefaultVideoLength <= 0 {
		cfg.DefaultVideoLength = wiggle.DefaultVideoLength
	}
	return &ProcessRenderUseCase{
		repo:      repo,
		storage:   storage,
		decoder:   decoder,
		renderer:  renderer,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// renderParams is a validated render request still missing its image.
type renderParams struct {
	points      [wiggle.SectionCount]wiggle.FocalPoint
	videoLength float64
	frameSpeed  float64
	mode        wiggle.Mode
}

func (uc *ProcessRenderUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessRenderUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.RenderRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.RendersTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.source_key", msg.SourceKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("source_key", msg.SourceKey))

	params, paramErr := uc.parseParams(msg)

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewRenderJob(msg.UserID, msg.SourceKey, params.mode.String(), uc.cfg.MaxRetries)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if paramErr != nil {
		log.Warn("render request rejected", zap.Error(paramErr))
		return uc.handleRejection(ctx, job, msg, rawMsg, paramErr)
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.renderPipeline(ctx, job, msg, params, rawMsg, log); err != nil {
		return err
	}

	metrics.RendersTotal.WithLabelValues("completed").Inc()
	metrics.RenderStageDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *ProcessRenderUseCase) parseParams(msg entity.RenderRequestMessage) (renderParams, error) {
	p := renderParams{
		videoLength: uc.cfg.DefaultVideoLength,
		frameSpeed:  uc.cfg.DefaultFrameSpeed,
		mode:        uc.cfg.DefaultMode,
	}

	if msg.SourceKey == "" {
		return p, fmt.Errorf("%w: no source image key", wiggle.ErrMissingInput)
	}
	if msg.Mode != "" {
		mode, err := wiggle.ParseMode(msg.Mode)
		if err != nil {
			return p, err
		}
		p.mode = mode
	}

	points, err := wiggle.ParseFocalPoints(msg.FocalPoints)
	if err != nil {
		return p, err
	}
	p.points = points

	if msg.VideoLength != nil {
		p.videoLength = *msg.VideoLength
	}
	if msg.FrameSpeed != nil {
		p.frameSpeed = *msg.FrameSpeed
	}
	if _, err := wiggle.NewVideoSpec(p.videoLength, p.frameSpeed); err != nil {
		return p, err
	}
	return p, nil
}

func (uc *ProcessRenderUseCase) renderPipeline(
	ctx context.Context,
	job *entity.RenderJob,
	msg entity.RenderRequestMessage,
	params renderParams,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.cfg.TempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download source image from MinIO
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_source")
	sourcePath := filepath.Join(workDir, "source"+filepath.Ext(msg.SourceKey))
	if err := uc.storage.DownloadSource(ctx2, msg.SourceKey, sourcePath); err != nil {
		spanDl.End()
		log.Error("failed to download source", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_source: "+err.Error(), log)
	}
	spanDl.End()
	metrics.RenderStageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Decode; a photo that cannot be read will not get better on retry
	f, err := os.Open(sourcePath)
	if err != nil {
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_source: "+err.Error(), log)
	}
	img, err := uc.decoder.Decode(f)
	f.Close()
	if err != nil {
		log.Warn("source image rejected", zap.Error(err))
		return uc.handleRejection(ctx, job, msg, rawMsg, err)
	}

	result, err := uc.renderer.Render(ctx, RenderInput{
		Image:                 img,
		FocalPoints:           params.points,
		VideoLength:           params.videoLength,
		FrameSpeed:            params.frameSpeed,
		Mode:                  params.mode,
		UseSecondAsBackground: msg.UseSecondAsBackground,
		IncludeSections:       msg.IncludeSections,
	})
	if err != nil {
		if wiggle.IsValidation(err) {
			log.Warn("render request rejected", zap.Error(err))
			return uc.handleRejection(ctx, job, msg, rawMsg, err)
		}
		log.Error("render failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "render: "+err.Error(), log)
	}

	// Upload results to MinIO
	upStart := time.Now()
	ctx3, spanUp := tracer.Start(ctx, "upload_results")
	videoKey := fmt.Sprintf("%s/wiggle_%s.mp4", msg.UserID, job.ID.String())
	if err := uc.storage.UploadVideo(ctx3, videoKey, bytes.NewReader(result.Video), int64(len(result.Video))); err != nil {
		spanUp.End()
		log.Error("video upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_video: "+err.Error(), log)
	}

	var sectionsKey string
	if result.SectionsArchive != nil {
		sectionsKey = fmt.Sprintf("%s/wiggle_%s_sections.zip", msg.UserID, job.ID.String())
		archive := result.SectionsArchive
		if err := uc.storage.UploadSections(ctx3, sectionsKey, bytes.NewReader(archive), int64(len(archive))); err != nil {
			spanUp.End()
			log.Error("sections upload failed", zap.Error(err))
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_sections: "+err.Error(), log)
		}
	}
	spanUp.End()
	metrics.RenderStageDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(videoKey, sectionsKey, result.Spec.TotalFrames, result.Spec.FPS)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("job completed successfully",
		zap.Int("frame_count", result.Spec.TotalFrames),
		zap.Float64("fps", result.Spec.FPS),
		zap.String("video_key", videoKey),
		zap.String("sections_key", sectionsKey),
	)

	return nil
}

func (uc *ProcessRenderUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.RenderJob,
	msg entity.RenderRequestMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

// handleRejection fails the job without retries; the request itself is
// invalid.
func (uc *ProcessRenderUseCase) handleRejection(
	ctx context.Context,
	job *entity.RenderJob,
	msg entity.RenderRequestMessage,
	rawMsg []byte,
	cause error,
) error {
	code := wiggle.ErrorCode(cause)
	if code == "" {
		code = "invalid_image"
	}
	metrics.ValidationFailuresTotal.WithLabelValues(code).Inc()
	job.MarkRejected(cause.Error())
	return uc.handlePermanentFailure(ctx, job, msg, rawMsg, cause.Error())
}

func (uc *ProcessRenderUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.RenderJob,
	msg entity.RenderRequestMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.RendersTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), msg.SourceKey, errMsg)
	}

	return nil
}

func (uc *ProcessRenderUseCase) publishStatus(ctx context.Context, job *entity.RenderJob, log *zap.Logger) {
	statusMsg := entity.RenderStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		SourceKey:    job.SourceKey,
		VideoKey:     job.VideoKey,
		SectionsKey:  job.SectionsKey,
		FrameCount:   job.FrameCount,
		FPS:          job.FPS,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
