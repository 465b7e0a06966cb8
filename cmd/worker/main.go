package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catleonidas/DispoWiggleLens/internal/infra/config"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/email"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/ffmpeg"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/imageio"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/metrics"
	miniostorage "github.com/catleonidas/DispoWiggleLens/internal/infra/minio"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/postgres"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/rabbitmq"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/tracing"
	"github.com/catleonidas/DispoWiggleLens/internal/usecase"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"github.com/catleonidas/DispoWiggleLens/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting wigglelens-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "wigglelens-worker")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		SourceBucket: cfg.MinIOSourceBucket,
		RenderBucket: cfg.MinIORenderBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Render pipeline
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

	repo := postgres.NewJobRepository(pool)
	decoder := imageio.NewDecoder(cfg.RenderKeepAlpha, cfg.RenderMaxPixels)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewProcessRenderUseCase(
		repo, storage, decoder, renderer,
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessRenderConfig{
			TempDir:            cfg.TempDir,
			MaxRetries:         cfg.MaxRetries,
			DefaultVideoLength: cfg.RenderVideoLength,
			DefaultFrameSpeed:  cfg.RenderFrameSpeed,
			DefaultMode:        cfg.RenderMode,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQRenderQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("wigglelens-worker started, consuming render requests",
		zap.Int("workers", cfg.WorkerCount),
		zap.String("default_mode", cfg.RenderMode.String()),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("wigglelens-worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
