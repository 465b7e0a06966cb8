package api

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/port"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/metrics"
	"github.com/catleonidas/DispoWiggleLens/internal/usecase"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"go.uber.org/zap"
)

const multipartMemory = 32 << 20

type Config struct {
	DefaultMode        wiggle.Mode
	DefaultVideoLength float64
	DefaultFrameSpeed  float64
	MaxUploadBytes     int64
	RequestTimeout     time.Duration
	AllowedOrigin      string
}

// Handler serves the synchronous render endpoints.
type Handler struct {
	renderer *usecase.Renderer
	decoder  port.ImageDecoder
	logger   *zap.Logger
	cfg      Config
}

func NewHandler(renderer *usecase.Renderer, decoder port.ImageDecoder, logger *zap.Logger, cfg Config) *Handler {
	if cfg.DefaultVideoLength <= 0 {
		cfg.DefaultVideoLength = wiggle.DefaultVideoLength
	}
	if cfg.DefaultFrameSpeed <= 0 {
		cfg.DefaultFrameSpeed = wiggle.DefaultFrameSpeed
	}
	return &Handler{renderer: renderer, decoder: decoder, logger: logger, cfg: cfg}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process_image", h.ProcessImage)
	mux.HandleFunc("POST /api/process_image_no_rgba", h.ProcessImageNoRGBA)
	mux.HandleFunc("POST /api/sections", h.Sections)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler())
	return withCORS(h.cfg.AllowedOrigin, mux)
}

// renderForm is a fully validated render request.
type renderForm struct {
	image       image.Image
	points      [wiggle.SectionCount]wiggle.FocalPoint
	videoLength float64
	frameSpeed  float64
	mode        wiggle.Mode
	background  bool
}

func (h *Handler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, nil, "output.mp4")
}

// ProcessImageNoRGBA always renders with offset placement.
func (h *Handler) ProcessImageNoRGBA(w http.ResponseWriter, r *http.Request) {
	mode := wiggle.ModeOffsetPlacement
	h.render(w, r, &mode, "output_no_rgba.mp4")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, forceMode *wiggle.Mode, filename string) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	start := time.Now()
	form, err := h.parseForm(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if forceMode != nil {
		form.mode = *forceMode
	}

	result, err := h.renderer.Render(ctx, usecase.RenderInput{
		Image:                 form.image,
		FocalPoints:           form.points,
		VideoLength:           form.videoLength,
		FrameSpeed:            form.frameSpeed,
		Mode:                  form.mode,
		UseSecondAsBackground: form.background,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	metrics.RendersTotal.WithLabelValues("http").Inc()
	h.logger.Info("wiggle video served",
		zap.String("path", r.URL.Path),
		zap.String("mode", form.mode.String()),
		zap.Int("frames", result.Spec.TotalFrames),
		zap.Int("bytes", len(result.Video)),
		zap.Duration("elapsed", time.Since(start)),
	)
	writeAttachment(w, "video/mp4", filename, result.Video)
}

// Sections returns the three cropped sections as PNGs in a zip archive.
func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	form, err := h.parseForm(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	archive, err := h.renderer.ExportSections(ctx, form.image, form.points)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeAttachment(w, "application/zip", "cropped_debug_images.zip", archive)
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.cfg.RequestTimeout > 0 {
		return context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	}
	return context.WithCancel(r.Context())
}

// parseForm validates every text field before touching the image so that a
// bad request never pays for a decode.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*renderForm, error) {
	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, &formError{err: err}
	}

	form := &renderForm{mode: h.cfg.DefaultMode}

	points, err := wiggle.ParseFocalPoints([]byte(r.FormValue("focalPoints")))
	if err != nil {
		return nil, err
	}
	form.points = points

	if form.videoLength, err = floatField(r, "videoLength", h.cfg.DefaultVideoLength); err != nil {
		return nil, err
	}
	if form.frameSpeed, err = floatField(r, "frameSpeed", h.cfg.DefaultFrameSpeed); err != nil {
		return nil, err
	}
	if _, err := wiggle.NewVideoSpec(form.videoLength, form.frameSpeed); err != nil {
		return nil, err
	}

	if m := r.FormValue("mode"); m != "" {
		if form.mode, err = wiggle.ParseMode(m); err != nil {
			return nil, err
		}
	}
	form.background = strings.EqualFold(strings.TrimSpace(r.FormValue("useSecondFrameAsBackground")), "true")

	file, _, err := r.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("%w: no image provided", wiggle.ErrMissingInput)
	}
	defer file.Close()

	if form.image, err = h.decoder.Decode(file); err != nil {
		return nil, err
	}
	return form, nil
}

func floatField(r *http.Request, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", wiggle.ErrInvalidVideoSpec, name, raw)
	}
	return v, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("render request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		metrics.ValidationFailuresTotal.WithLabelValues(code).Inc()
		h.logger.Warn("render request rejected",
			zap.String("path", r.URL.Path),
			zap.String("code", code),
			zap.Error(err),
		)
	}
	writeError(w, status, code, err)
}
