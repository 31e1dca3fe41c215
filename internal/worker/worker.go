// Package worker runs background audio transcode jobs: extract the audio
// track from a source video and upload the mp3 to object storage.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/loudtogether/backend/pkg/queue"
	"github.com/loudtogether/backend/pkg/storage"
)

// transcodeTimeout bounds one yt-dlp/ffmpeg run.
const transcodeTimeout = 15 * time.Minute

// TranscodeProcessor processes audio transcode jobs: download best audio,
// convert to mp3, stream to S3. Processing is idempotent per video id: the
// asset is checked in storage before any work and jobs for finished assets
// are dropped.
type TranscodeProcessor struct {
	s3     *storage.S3
	queue  *queue.Queue
	tmpDir string
	logger *zap.Logger
}

// NewTranscodeProcessor creates a transcode processor. tmpDir is the scratch
// directory for intermediate files; empty means os.TempDir().
func NewTranscodeProcessor(s3 *storage.S3, q *queue.Queue, tmpDir string, logger *zap.Logger) *TranscodeProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &TranscodeProcessor{s3: s3, queue: q, tmpDir: tmpDir, logger: logger}
}

// Process executes one transcode job.
func (p *TranscodeProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAudioTranscode {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.TranscodePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	key := storage.AudioKey(payload.VideoID)
	exists, err := p.s3.ObjectExists(ctx, p.s3.AudioBucket(), key)
	if err != nil {
		return fmt.Errorf("check asset: %w", err)
	}
	if exists {
		p.logger.Info("audio asset already present", zap.String("video_id", payload.VideoID))
		return nil
	}

	outPath := filepath.Join(p.tmpDir, payload.VideoID+".mp3")
	defer os.Remove(outPath)

	// yt-dlp downloads best audio and pipes it through ffmpeg to mp3.
	runCtx, cancel := context.WithTimeout(ctx, transcodeTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, "yt-dlp",
		"--extract-audio",
		"--audio-format", "mp3",
		"--output", outPath,
		"--no-playlist",
		payload.SourceURL,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("transcode %s: %w: %s", payload.VideoID, err, truncate(out, 512))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return fmt.Errorf("open transcoded file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat transcoded file: %w", err)
	}

	url, err := p.s3.Upload(ctx, p.s3.AudioBucket(), key, "audio/mpeg", f, stat.Size())
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	p.logger.Info("audio asset uploaded",
		zap.String("video_id", payload.VideoID),
		zap.String("s3_key", key),
		zap.String("url", url),
		zap.Int64("bytes", stat.Size()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *TranscodeProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("transcode worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
