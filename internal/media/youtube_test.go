package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"watch with extra params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=43s", "dQw4w9WgXcQ", false},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"short link with params", "https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ", false},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"v path", "https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"not a video url", "https://example.com/watch?v=dQw4w9WgXcQx", "", true},
		{"id too short", "https://www.youtube.com/watch?v=short", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSource) {
					t.Fatalf("expected ErrInvalidSource, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVideoMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("key") != "test-key" {
			t.Errorf("missing api key, got %q", q.Get("key"))
		}
		if q.Get("id") != "dQw4w9WgXcQ" {
			t.Errorf("unexpected id %q", q.Get("id"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [{
				"snippet": {
					"title": "Never Gonna Give You Up",
					"thumbnails": {"default": {"url": "https://img.example/default.jpg"}}
				},
				"contentDetails": {"duration": "PT3M33S"}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewYouTubeClient("test-key", srv.URL, nil)
	meta, err := client.VideoMeta(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("VideoMeta: %v", err)
	}
	if meta.Title != "Never Gonna Give You Up" {
		t.Fatalf("title: got %q", meta.Title)
	}
	if meta.Duration != "PT3M33S" {
		t.Fatalf("duration: got %q", meta.Duration)
	}
	if meta.ThumbnailURL != "https://img.example/default.jpg" {
		t.Fatalf("thumbnail: got %q", meta.ThumbnailURL)
	}
}

func TestVideoMetaNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	client := NewYouTubeClient("test-key", srv.URL, nil)
	if _, err := client.VideoMeta(context.Background(), "AAAAAAAAAAA"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestVideoMetaUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewYouTubeClient("bad-key", srv.URL, nil)
	if _, err := client.VideoMeta(context.Background(), "dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
