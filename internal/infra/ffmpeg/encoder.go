package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/port"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"go.uber.org/zap"
)

type EncoderConfig struct {
	Binary  string
	Codec   string
	PixFmt  string
	TempDir string
}

// Encoder pipes raw RGBA frames into an ffmpeg process and returns the
// resulting MP4.
type Encoder struct {
	cfg    EncoderConfig
	logger *zap.Logger
}

func NewEncoder(cfg EncoderConfig, logger *zap.Logger) *Encoder {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.Codec == "" {
		cfg.Codec = "libx264"
	}
	if cfg.PixFmt == "" {
		cfg.PixFmt = "yuv420p"
	}
	return &Encoder{cfg: cfg, logger: logger}
}

func (e *Encoder) Encode(ctx context.Context, req port.EncodeRequest) ([]byte, error) {
	if req.FrameCount <= 0 {
		return nil, fmt.Errorf("%w: no frames to encode", wiggle.ErrEncodingFailure)
	}
	if req.Width <= 0 || req.Height <= 0 || req.FPS <= 0 {
		return nil, fmt.Errorf("%w: invalid output %dx%d at %v fps", wiggle.ErrEncodingFailure, req.Width, req.Height, req.FPS)
	}

	if e.cfg.TempDir != "" {
		if err := os.MkdirAll(e.cfg.TempDir, 0755); err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
	}
	out, err := os.CreateTemp(e.cfg.TempDir, "wiggle-*.mp4")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.cfg.Binary, e.args(req, outPath)...)
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", wiggle.ErrEncodingFailure, err)
	}

	written := 0
	writeErr := req.Frames(func(frame *image.RGBA) error {
		if err := writeFrame(stdin, frame, req.Width, req.Height); err != nil {
			return err
		}
		written++
		return nil
	})
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%w: ffmpeg error: %v, output: %s", wiggle.ErrEncodingFailure, err, stderr.String())
	}
	if writeErr != nil {
		return nil, fmt.Errorf("%w: write frames: %v", wiggle.ErrEncodingFailure, writeErr)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read encoded video: %w", err)
	}

	e.logger.Info("video encoded",
		zap.Int("frames", written),
		zap.Float64("fps", req.FPS),
		zap.Int("width", req.Width),
		zap.Int("height", req.Height),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func (e *Encoder) args(req port.EncodeRequest, outPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", req.Width, req.Height),
		"-framerate", strconv.FormatFloat(req.FPS, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
		"-c:v", e.cfg.Codec,
		// yuv420p needs even dimensions.
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-pix_fmt", e.cfg.PixFmt,
		"-movflags", "+faststart",
		outPath,
	}
}

func writeFrame(w io.Writer, frame *image.RGBA, width, height int) error {
	b := frame.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("frame is %dx%d, want %dx%d", b.Dx(), b.Dy(), width, height)
	}
	rowLen := width * 4
	if frame.Stride == rowLen {
		start := frame.PixOffset(b.Min.X, b.Min.Y)
		_, err := w.Write(frame.Pix[start : start+rowLen*height])
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := frame.PixOffset(b.Min.X, y)
		if _, err := w.Write(frame.Pix[start : start+rowLen]); err != nil {
			return err
		}
	}
	return nil
}
