package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lib/pq"

	"jamesfarrell.me/audd-recognizer/internal/cache"
	"jamesfarrell.me/audd-recognizer/internal/pipeline"
	"jamesfarrell.me/audd-recognizer/internal/storage/models"
)

const failureWriteTimeout = 10 * time.Second

type Store interface {
	GetCompletedByURL(ctx context.Context, videoURL string) (*models.Recognition, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	SaveResponse(ctx context.Context, id string, response string) error
	SaveError(ctx context.Context, id string, message string) error
}

type Cache interface {
	Get(ctx context.Context, slug string) (string, error)
	Set(ctx context.Context, slug string, response string) error
}

type Runner interface {
	Run(ctx context.Context, videoURL string, outputDir string) (pipeline.Result, error)
}

// Service consumes recognition notifications and runs them through the
// pipeline one at a time.
type Service struct {
	store   Store
	cache   Cache
	runner  Runner
	workDir string
}

// NewService builds a worker. responses may be nil to disable caching.
func NewService(store Store, responses Cache, runner Runner, workDir string) *Service {
	return &Service{
		store:   store,
		cache:   responses,
		runner:  runner,
		workDir: workDir,
	}
}

// Listen blocks on channel until ctx is cancelled, processing each
// notification payload as a Recognition row.
func (s *Service) Listen(ctx context.Context, dbURL string, channel string) error {
	listener := pq.NewListener(dbURL, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				slog.Error("Listen error", "error", err.Error())
			}
		})
	defer listener.Close()

	if err := listener.Listen(channel); err != nil {
		return fmt.Errorf("listen error: %w", err)
	}

	slog.Info("Listening for new recognitions", "channel", channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				slog.Debug("Received nil notification")
				continue
			}
			if err := s.ProcessNotification(ctx, n.Extra); err != nil {
				slog.Error("Error processing recognition", "error", err.Error())
			} else {
				slog.Info("Successfully processed recognition notification")
			}
		case <-time.After(time.Minute):
			slog.Debug("Ping check")
			go func() {
				if err := listener.Ping(); err != nil {
					slog.Error("Ping error", "error", err.Error())
				}
			}()
		}
	}
}

// ProcessNotification handles one Recognition JSON payload.
func (s *Service) ProcessNotification(ctx context.Context, payload string) error {
	var rec models.Recognition
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return fmt.Errorf("json parse error: %w", err)
	}
	if rec.ID == "" || rec.VideoURL == "" {
		return errors.New("notification is missing id or videoUrl")
	}

	slog.Info("Processing recognition", "id", rec.ID, "url", rec.VideoURL)

	if response, ok := s.previousResponse(ctx, &rec); ok {
		slog.Info("Found existing response", "id", rec.ID, "url", rec.VideoURL)
		return s.store.SaveResponse(ctx, rec.ID, response)
	}

	if err := s.store.UpdateStatus(ctx, rec.ID, models.StatusProcessing); err != nil {
		return fmt.Errorf("failed to update status to processing: %w", err)
	}

	outputDir := filepath.Join(s.workDir, rec.ID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		s.markFailed(ctx, rec.ID, err)
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(outputDir)

	result, err := s.runner.Run(ctx, rec.VideoURL, outputDir)
	if err != nil {
		if result.Response != "" {
			err = fmt.Errorf("%w: %s", err, result.Response)
		}
		s.markFailed(ctx, rec.ID, err)
		return err
	}

	if err := s.store.SaveResponse(ctx, rec.ID, result.Response); err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}

	if s.cache != nil && rec.Slug != "" {
		if err := s.cache.Set(ctx, rec.Slug, result.Response); err != nil {
			slog.Warn("Failed to cache response", "slug", rec.Slug, "error", err.Error())
		}
	}

	return nil
}

func (s *Service) previousResponse(ctx context.Context, rec *models.Recognition) (string, bool) {
	if s.cache != nil && rec.Slug != "" {
		response, err := s.cache.Get(ctx, rec.Slug)
		switch {
		case err == nil:
			return response, true
		case !errors.Is(err, cache.ErrMiss):
			slog.Warn("Cache lookup failed", "slug", rec.Slug, "error", err.Error())
		}
	}

	existing, err := s.store.GetCompletedByURL(ctx, rec.VideoURL)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Lookup of existing response failed", "url", rec.VideoURL, "error", err.Error())
		}
		return "", false
	}
	if existing.ID == rec.ID || existing.Response == nil {
		return "", false
	}
	return *existing.Response, true
}

// markFailed records cause even when ctx was cancelled by shutdown, so the
// row does not stay in processing.
func (s *Service) markFailed(ctx context.Context, id string, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureWriteTimeout)
	defer cancel()

	if err := s.store.SaveError(ctx, id, cause.Error()); err != nil {
		slog.Error("Failed to mark recognition failed", "id", id, "error", err.Error())
	}
}
