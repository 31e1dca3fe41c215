package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidSource means the URL does not reference a recognizable video.
var ErrInvalidSource = errors.New("invalid source url")

// ErrVideoNotFound means the video id resolved but the provider has no such video.
var ErrVideoNotFound = errors.New("video not found")

// videoIDPattern accepts the usual YouTube URL shapes (watch, embed,
// youtu.be, /v/) and captures the 11-character video id.
var videoIDPattern = regexp.MustCompile(`^.*((youtu\.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)

// ExtractVideoID parses the video id out of a YouTube URL.
func ExtractVideoID(rawURL string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil || len(m[7]) != 11 {
		return "", ErrInvalidSource
	}
	return m[7], nil
}

// VideoMeta is the provider-side description of a video.
type VideoMeta struct {
	Title        string `json:"title"`
	Duration     string `json:"duration"` // ISO-8601, as the API reports it
	ThumbnailURL string `json:"thumbnailUrl"`
}

// YouTubeClient looks up video metadata through the YouTube Data API v3.
type YouTubeClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewYouTubeClient creates a metadata client. baseURL is normally the public
// API endpoint; tests point it at a local server.
func NewYouTubeClient(apiKey, baseURL string, logger *zap.Logger) *YouTubeClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YouTubeClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// videosListResponse is the subset of the videos.list response we read.
type videosListResponse struct {
	Items []struct {
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// VideoMeta fetches title, duration and thumbnail for a video id.
func (c *YouTubeClient) VideoMeta(ctx context.Context, videoID string) (*VideoMeta, error) {
	q := url.Values{}
	q.Set("part", "snippet,contentDetails")
	q.Set("id", videoID)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/videos?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("video metadata lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("video metadata lookup: status %d", resp.StatusCode)
	}

	var body videosListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode metadata response: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, ErrVideoNotFound
	}
	item := body.Items[0]
	return &VideoMeta{
		Title:        item.Snippet.Title,
		Duration:     item.ContentDetails.Duration,
		ThumbnailURL: item.Snippet.Thumbnails.Default.URL,
	}, nil
}
