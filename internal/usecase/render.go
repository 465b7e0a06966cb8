package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/port"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/metrics"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type RenderInput struct {
	Image                 image.Image
	FocalPoints           [wiggle.SectionCount]wiggle.FocalPoint
	VideoLength           float64
	FrameSpeed            float64
	Mode                  wiggle.Mode
	UseSecondAsBackground bool
	IncludeSections       bool
}

// RenderResult is owned by the caller. Sections and SectionsArchive are the
// request's own crops, returned for export instead of being kept anywhere.
type RenderResult struct {
	Video           []byte
	Spec            wiggle.VideoSpec
	Width           int
	Height          int
	Sections        [wiggle.SectionCount]*wiggle.Section
	SectionsArchive []byte
}

// DefaultMaxFrames bounds a render when no limit is configured.
const DefaultMaxFrames = 3000

type RendererConfig struct {
	// MaxFrames is the largest frame count a single video may have.
	MaxFrames int
}

// Renderer runs the synchronous wiggle pipeline: validate, extract, compose
// and hand frames to the encoder.
type Renderer struct {
	extractor wiggle.Extractor
	encoder   port.VideoEncoder
	archiver  port.SectionArchiver
	logger    *zap.Logger
	cfg       RendererConfig
}

func NewRenderer(
	extractor wiggle.Extractor,
	encoder port.VideoEncoder,
	archiver port.SectionArchiver,
	logger *zap.Logger,
	cfg RendererConfig,
) *Renderer {
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = DefaultMaxFrames
	}
	return &Renderer{
		extractor: extractor,
		encoder:   encoder,
		archiver:  archiver,
		logger:    logger,
		cfg:       cfg,
	}
}

func (r *Renderer) Render(ctx context.Context, in RenderInput) (*RenderResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Renderer.Render")
	defer span.End()

	spec, err := wiggle.NewVideoSpec(in.VideoLength, in.FrameSpeed)
	if err != nil {
		return nil, err
	}
	if spec.TotalFrames == 0 {
		return nil, fmt.Errorf("%w: video length %vs is shorter than one frame of %vs",
			wiggle.ErrInvalidVideoSpec, in.VideoLength, in.FrameSpeed)
	}
	if spec.TotalFrames > r.cfg.MaxFrames {
		return nil, fmt.Errorf("%w: %d frames exceeds the limit of %d",
			wiggle.ErrInvalidVideoSpec, spec.TotalFrames, r.cfg.MaxFrames)
	}

	span.SetAttributes(
		attribute.String("render.mode", in.Mode.String()),
		attribute.Int("render.frames", spec.TotalFrames),
		attribute.Float64("render.fps", spec.FPS),
	)

	sections, err := r.extract(in.Image, in.FocalPoints)
	if err != nil {
		return nil, err
	}

	width, height := sections[0].Width(), sections[0].Height()
	seq := wiggle.Sequencer{Mode: in.Mode, UseSecondAsBackground: in.UseSecondAsBackground}

	encStart := time.Now()
	ctx2, spanEnc := tracer.Start(ctx, "encode_video")
	video, err := r.encoder.Encode(ctx2, port.EncodeRequest{
		Width:      width,
		Height:     height,
		FPS:        spec.FPS,
		FrameCount: spec.TotalFrames,
		Frames: func(sink func(frame *image.RGBA) error) error {
			return seq.Each(sections, spec, func(_ int, frame *image.RGBA) error {
				return sink(frame)
			})
		},
	})
	spanEnc.End()
	if err != nil {
		if !errors.Is(err, wiggle.ErrEncodingFailure) {
			err = fmt.Errorf("%w: %w", wiggle.ErrEncodingFailure, err)
		}
		return nil, fmt.Errorf("encode video: %w", err)
	}
	metrics.RenderStageDuration.WithLabelValues("encode").Observe(time.Since(encStart).Seconds())
	metrics.FramesComposedTotal.Add(float64(spec.TotalFrames))

	result := &RenderResult{
		Video:    video,
		Spec:     spec,
		Width:    width,
		Height:   height,
		Sections: sections,
	}

	if in.IncludeSections {
		archive, err := r.archive(ctx, sections)
		if err != nil {
			return nil, err
		}
		result.SectionsArchive = archive
	}

	r.logger.Debug("wiggle rendered",
		zap.String("mode", in.Mode.String()),
		zap.Int("frames", spec.TotalFrames),
		zap.Float64("fps", spec.FPS),
		zap.Int("width", width),
		zap.Int("height", height),
	)
	return result, nil
}

// ExportSections extracts the sections for points and zips them, without
// rendering a video.
func (r *Renderer) ExportSections(ctx context.Context, img image.Image, points [wiggle.SectionCount]wiggle.FocalPoint) ([]byte, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "Renderer.ExportSections")
	defer span.End()

	sections, err := r.extract(img, points)
	if err != nil {
		return nil, err
	}
	return r.archive(ctx, sections)
}

func (r *Renderer) extract(img image.Image, points [wiggle.SectionCount]wiggle.FocalPoint) ([wiggle.SectionCount]*wiggle.Section, error) {
	start := time.Now()
	sections, err := r.extractor.Extract(img, points)
	if err != nil {
		return sections, err
	}
	metrics.RenderStageDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	return sections, nil
}

func (r *Renderer) archive(ctx context.Context, sections [wiggle.SectionCount]*wiggle.Section) ([]byte, error) {
	start := time.Now()
	images := make([]image.Image, 0, len(sections))
	for _, s := range sections {
		images = append(images, s.Image)
	}
	data, err := r.archiver.Archive(ctx, images)
	if err != nil {
		return nil, fmt.Errorf("archive sections: %w", err)
	}
	metrics.RenderStageDuration.WithLabelValues("archive").Observe(time.Since(start).Seconds())
	return data, nil
}
