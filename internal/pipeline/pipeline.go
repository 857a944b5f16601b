package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

type Fetcher interface {
	Fetch(ctx context.Context, videoURL string, outputDir string) (string, error)
}

type Recognizer interface {
	Recognize(ctx context.Context, filePath string) (string, error)
}

type Result struct {
	AudioPath string
	Response  string
}

// Pipeline fetches the audio of a video and uploads it for recognition.
type Pipeline struct {
	fetcher    Fetcher
	recognizer Recognizer
}

func New(fetcher Fetcher, recognizer Recognizer) *Pipeline {
	return &Pipeline{fetcher: fetcher, recognizer: recognizer}
}

// Run downloads the audio of videoURL into outputDir and uploads it. The upload
// is skipped when the download fails. On an upload failure the returned
// Result still carries the AudioPath, and any response body the service sent.
func (p *Pipeline) Run(ctx context.Context, videoURL string, outputDir string) (Result, error) {
	slog.Info("Downloading audio", "url", videoURL)
	audioPath, err := p.fetcher.Fetch(ctx, videoURL, outputDir)
	if err != nil {
		return Result{}, fmt.Errorf("download process failed: %w", err)
	}

	result := Result{AudioPath: audioPath}

	slog.Info("Uploading audio for recognition", "path", audioPath)
	response, err := p.recognizer.Recognize(ctx, audioPath)
	result.Response = response
	if err != nil {
		return result, fmt.Errorf("upload process failed: %w", err)
	}

	return result, nil
}
