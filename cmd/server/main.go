package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catleonidas/DispoWiggleLens/internal/api"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/config"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/ffmpeg"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/imageio"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/tracing"
	"github.com/catleonidas/DispoWiggleLens/internal/usecase"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"github.com/catleonidas/DispoWiggleLens/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	if envErr != nil {
		log.Warn("no .env file found, using process environment")
	} else {
		log.Info("loaded environment from .env file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "wigglelens-api")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	fatalOnErr(os.MkdirAll(cfg.TempDir, 0755), "create temp dir")

	encoder := ffmpeg.NewEncoder(ffmpeg.EncoderConfig{
		Binary:  cfg.FFmpegBinary,
		Codec:   cfg.FFmpegCodec,
		PixFmt:  cfg.FFmpegPixFmt,
		TempDir: cfg.TempDir,
	}, log)
	renderer := usecase.NewRenderer(
		wiggle.Extractor{AspectTolerance: cfg.RenderAspectTolerance},
		encoder,
		ffmpeg.NewSectionArchiver(),
		log,
		usecase.RendererConfig{MaxFrames: cfg.RenderMaxFrames},
	)

	handler := api.NewHandler(renderer, imageio.NewDecoder(cfg.RenderKeepAlpha, cfg.RenderMaxPixels), log, api.Config{
		DefaultMode:        cfg.RenderMode,
		DefaultVideoLength: cfg.RenderVideoLength,
		DefaultFrameSpeed:  cfg.RenderFrameSpeed,
		MaxUploadBytes:     cfg.MaxUploadBytes(),
		RequestTimeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
		AllowedOrigin:      cfg.CORSAllowedOrigin,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("wigglelens-api listening",
			zap.Int("port", cfg.HTTPPort),
			zap.String("default_mode", cfg.RenderMode.String()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", zap.Error(err))
	}
	log.Info("wigglelens-api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
