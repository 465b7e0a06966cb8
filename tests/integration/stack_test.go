package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/entity"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/email"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/ffmpeg"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/imageio"
	miniostorage "github.com/catleonidas/DispoWiggleLens/internal/infra/minio"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/postgres"
	"github.com/catleonidas/DispoWiggleLens/internal/infra/rabbitmq"
	"github.com/catleonidas/DispoWiggleLens/internal/usecase"
	"github.com/catleonidas/DispoWiggleLens/internal/wiggle"
	"github.com/catleonidas/DispoWiggleLens/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

const (
	exchange    = "wigglelens"
	renderQueue = "wiggle.render"
	statusQueue = "wiggle.status"
	dlqQueue    = "wiggle.render.dlq"

	sourceBucket = "sources"
	renderBucket = "renders"
)

// stack is a worker wired to real postgres, minio and rabbitmq containers.
type stack struct {
	pool   *pgxpool.Pool
	minio  *miniogo.Client
	conn   *amqp.Connection
	status <-chan amqp.Delivery
}

func startStack(ctx context.Context, t *testing.T) *stack {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("wiggle"),
		tcpostgres.WithUsername("wiggle_user"),
		tcpostgres.WithPassword("wiggle_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { pgContainer.Terminate(context.Background()) })

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rmqContainer, err := tcrabbitmq.Run(ctx, "rabbitmq:3.12-management-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { rmqContainer.Terminate(context.Background()) })

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { minioContainer.Terminate(context.Background()) })

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	require.NoError(t, postgres.RunMigrations(pgConnStr, "../../migrations"))
	// A second run finds nothing to apply.
	require.NoError(t, postgres.RunMigrations(pgConnStr, "../../migrations"))

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		SourceBucket: sourceBucket,
		RenderBucket: renderBucket,
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	conn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	pub, err := rabbitmq.NewPublisher(conn, exchange)
	require.NoError(t, err)

	log, err := logger.New("debug")
	require.NoError(t, err)

	renderer := usecase.NewRenderer(
		wiggle.Extractor{},
		ffmpeg.NewEncoder(ffmpeg.EncoderConfig{TempDir: t.TempDir()}, log),
		ffmpeg.NewSectionArchiver(),
		log,
		usecase.RendererConfig{},
	)
	uc := usecase.NewProcessRenderUseCase(
		postgres.NewJobRepository(pool),
		storage,
		imageio.NewDecoder(false, 0),
		renderer,
		rabbitmq.NewStatusPublisher(pub),
		rabbitmq.NewDLQPublisher(pub, dlqQueue),
		email.NewSMTPNotifier("localhost", 1025, "test@test.local", log),
		log,
		usecase.ProcessRenderConfig{
			TempDir:     t.TempDir(),
			MaxRetries:  3,
			DefaultMode: wiggle.ModeAlphaBlend,
		},
	)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         rmqURL,
		Queue:       renderQueue,
		Exchange:    exchange,
		DLQ:         dlqQueue,
		StatusQueue: statusQueue,
		Prefetch:    1,
		WorkerCount: 1,
		BaseDelayMs: 100,
	}, uc.Execute, log)
	require.NoError(t, err)
	t.Cleanup(func() { consumer.Close() })

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	t.Cleanup(consumerCancel)
	go consumer.Start(consumerCtx)

	statusCh, err := conn.Channel()
	require.NoError(t, err)
	status, err := statusCh.Consume(statusQueue, "", true, false, false, false, nil)
	require.NoError(t, err)

	// Give consumer time to start
	time.Sleep(500 * time.Millisecond)

	return &stack{pool: pool, minio: minioClient, conn: conn, status: status}
}

func (s *stack) putSource(ctx context.Context, t *testing.T, key string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	_, err := s.minio.PutObject(ctx, sourceBucket, key, &buf, int64(buf.Len()), miniogo.PutObjectOptions{
		ContentType: "image/png",
	})
	require.NoError(t, err)
}

func (s *stack) publish(ctx context.Context, t *testing.T, body []byte) {
	t.Helper()
	ch, err := s.conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	err = ch.PublishWithContext(ctx, exchange, rabbitmq.RenderRoutingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	require.NoError(t, err)
}

func (s *stack) awaitStatus(t *testing.T) entity.RenderStatusMessage {
	t.Helper()
	var msg entity.RenderStatusMessage
	select {
	case d := <-s.status:
		require.NoError(t, json.Unmarshal(d.Body, &msg))
	case <-time.After(2 * time.Minute):
		t.Fatal("timeout waiting for status message")
	}
	return msg
}
