package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/loudtogether/backend/pkg/queue"
)

type fakeAudioStore struct {
	objects map[string]bool
}

func (f *fakeAudioStore) AudioBucket() string          { return "audio-bucket" }
func (f *fakeAudioStore) PresignExpire() time.Duration { return time.Hour }

func (f *fakeAudioStore) ObjectExists(_ context.Context, _, key string) (bool, error) {
	return f.objects[key], nil
}

func (f *fakeAudioStore) GeneratePresignedDownloadURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://presigned.example/" + bucket + "/" + key, nil
}

type fakeEnqueuer struct {
	jobs []queue.TranscodePayload
	err  error
}

func (f *fakeEnqueuer) EnqueueTranscode(_ context.Context, payload queue.TranscodePayload) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, payload)
	return nil
}

func metaServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [{
				"snippet": {"title": "Some Song", "thumbnails": {"default": {"url": "https://img.example/t.jpg"}}},
				"contentDetails": {"duration": "PT4M"}
			}]
		}`))
	}))
}

func TestResolveExistingAssetReturnsURL(t *testing.T) {
	srv := metaServer(t)
	defer srv.Close()

	store := &fakeAudioStore{objects: map[string]bool{"audio/dQw4w9WgXcQ.mp3": true}}
	q := &fakeEnqueuer{}
	r := NewResolver(NewYouTubeClient("k", srv.URL, nil), store, q, nil)

	info, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Processing {
		t.Fatal("existing asset must not report processing")
	}
	if info.AudioURL != "https://presigned.example/audio-bucket/audio/dQw4w9WgXcQ.mp3" {
		t.Fatalf("unexpected audio url %q", info.AudioURL)
	}
	if info.Title != "Some Song" || info.Duration != "PT4M" {
		t.Fatalf("metadata not carried: %+v", info)
	}
	if len(q.jobs) != 0 {
		t.Fatalf("no transcode expected, got %d jobs", len(q.jobs))
	}
}

func TestResolveMissingAssetEnqueuesTranscode(t *testing.T) {
	srv := metaServer(t)
	defer srv.Close()

	store := &fakeAudioStore{objects: map[string]bool{}}
	q := &fakeEnqueuer{}
	r := NewResolver(NewYouTubeClient("k", srv.URL, nil), store, q, nil)

	info, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !info.Processing {
		t.Fatal("expected processing for a missing asset")
	}
	if info.AudioURL != "" {
		t.Fatalf("no audio url expected, got %q", info.AudioURL)
	}
	if len(q.jobs) != 1 {
		t.Fatalf("expected 1 transcode job, got %d", len(q.jobs))
	}
	if q.jobs[0].VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected job payload %+v", q.jobs[0])
	}
}

func TestResolveInvalidURL(t *testing.T) {
	r := NewResolver(NewYouTubeClient("k", "http://unused.example", nil), &fakeAudioStore{}, &fakeEnqueuer{}, nil)
	if _, err := r.Resolve(context.Background(), "not a url"); !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestResolveEnqueueFailureSurfaces(t *testing.T) {
	srv := metaServer(t)
	defer srv.Close()

	q := &fakeEnqueuer{err: errors.New("redis down")}
	r := NewResolver(NewYouTubeClient("k", srv.URL, nil), &fakeAudioStore{objects: map[string]bool{}}, q, nil)

	if _, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error when enqueue fails")
	}
}
