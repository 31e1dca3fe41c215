package media

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/loudtogether/backend/pkg/queue"
	"github.com/loudtogether/backend/pkg/storage"
)

// AudioInfo is the resolved play sheet for a source URL: provider metadata
// plus the streamable audio asset, or a processing flag while the transcode
// job runs.
type AudioInfo struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	Duration     string `json:"duration"`
	ThumbnailURL string `json:"thumbnailUrl"`
	AudioURL     string `json:"audioUrl,omitempty"`
	Processing   bool   `json:"processing,omitempty"`
}

// AudioStore holds the transcoded audio assets.
type AudioStore interface {
	AudioBucket() string
	PresignExpire() time.Duration
	ObjectExists(ctx context.Context, bucket, key string) (bool, error)
	GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expire time.Duration) (string, error)
}

// TranscodeEnqueuer hands a transcode job to the worker queue.
type TranscodeEnqueuer interface {
	EnqueueTranscode(ctx context.Context, payload queue.TranscodePayload) error
}

// Resolver turns a source URL into a streamable audio asset. Resolution is
// idempotent per video id: once the asset exists in object storage, repeated
// requests return a URL for the same object without reprocessing.
type Resolver struct {
	yt     *YouTubeClient
	s3     AudioStore
	queue  TranscodeEnqueuer
	logger *zap.Logger
}

// NewResolver creates an audio asset resolver.
func NewResolver(yt *YouTubeClient, s3 AudioStore, q TranscodeEnqueuer, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{yt: yt, s3: s3, queue: q, logger: logger}
}

// Resolve returns metadata and the asset URL for a source URL. When the
// asset is not yet in storage it enqueues a transcode job and reports
// Processing; the worker makes the repeated enqueue harmless by checking
// storage before transcoding.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (*AudioInfo, error) {
	videoID, err := ExtractVideoID(sourceURL)
	if err != nil {
		return nil, err
	}
	meta, err := r.yt.VideoMeta(ctx, videoID)
	if err != nil {
		return nil, err
	}

	info := &AudioInfo{
		VideoID:      videoID,
		Title:        meta.Title,
		Duration:     meta.Duration,
		ThumbnailURL: meta.ThumbnailURL,
	}

	key := storage.AudioKey(videoID)
	exists, err := r.s3.ObjectExists(ctx, r.s3.AudioBucket(), key)
	if err != nil {
		return nil, fmt.Errorf("check audio asset: %w", err)
	}
	if exists {
		audioURL, err := r.s3.GeneratePresignedDownloadURL(ctx, r.s3.AudioBucket(), key, r.s3.PresignExpire())
		if err != nil {
			return nil, fmt.Errorf("presign audio asset: %w", err)
		}
		info.AudioURL = audioURL
		return info, nil
	}

	if err := r.queue.EnqueueTranscode(ctx, queue.TranscodePayload{VideoID: videoID, SourceURL: sourceURL}); err != nil {
		return nil, fmt.Errorf("enqueue transcode: %w", err)
	}
	r.logger.Info("audio transcode queued", zap.String("video_id", videoID))
	info.Processing = true
	return info, nil
}
