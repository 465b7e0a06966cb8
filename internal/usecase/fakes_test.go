package usecase

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sync"

	"github.com/catleonidas/DispoWiggleLens/internal/domain/entity"
	"github.com/catleonidas/DispoWiggleLens/internal/domain/port"
	"github.com/google/uuid"
)

type fakeEncoder struct {
	calls  int
	frames []*image.RGBA
	req    port.EncodeRequest
	err    error
}

func (e *fakeEncoder) Encode(_ context.Context, req port.EncodeRequest) ([]byte, error) {
	e.calls++
	e.req = req
	if e.err != nil {
		return nil, e.err
	}
	err := req.Frames(func(frame *image.RGBA) error {
		e.frames = append(e.frames, frame)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []byte("fake-mp4"), nil
}

type fakeArchiver struct {
	images []image.Image
}

func (a *fakeArchiver) Archive(_ context.Context, images []image.Image) ([]byte, error) {
	a.images = images
	return []byte("fake-zip"), nil
}

type fakeRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]entity.RenderJob
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: map[uuid.UUID]entity.RenderJob{}}
}

func (r *fakeRepo) Create(_ context.Context, job *entity.RenderJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) Update(_ context.Context, job *entity.RenderJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.RenderJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &job, nil
}

type fakeStorage struct {
	sources  map[string][]byte
	uploaded map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{sources: map[string][]byte{}, uploaded: map[string][]byte{}}
}

func (s *fakeStorage) DownloadSource(_ context.Context, key, destPath string) error {
	data, ok := s.sources[key]
	if !ok {
		return errors.New("no such key")
	}
	return os.WriteFile(destPath, data, 0644)
}

func (s *fakeStorage) UploadVideo(_ context.Context, key string, r io.Reader, _ int64) error {
	return s.put(key, r)
}

func (s *fakeStorage) UploadSections(_ context.Context, key string, r io.Reader, _ int64) error {
	return s.put(key, r)
}

func (s *fakeStorage) put(key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.uploaded[key] = data
	return nil
}

type pngDecoder struct{}

func (pngDecoder) Decode(r io.Reader) (image.Image, error) {
	return png.Decode(r)
}

type recorder struct {
	mu       sync.Mutex
	statuses [][]byte
	dlq      []string
	notified []string
}

func (r *recorder) PublishStatus(_ context.Context, msg []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, msg)
	return nil
}

func (r *recorder) PublishToDLQ(_ context.Context, _ []byte, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dlq = append(r.dlq, reason)
	return nil
}

func (r *recorder) NotifyFailure(_ context.Context, userEmail, _, _, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, userEmail)
	return nil
}

func photo(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

func photoPNG(w, h int) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, photo(w, h)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
