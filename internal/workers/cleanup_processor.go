package workers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
)

// CleanupProcessor removes stale files left behind by imports and exports.
type CleanupProcessor struct {
	tempDir string
	maxAge  time.Duration
	logger  *slog.Logger
}

func NewCleanupProcessor(tempDir string, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &CleanupProcessor{
		tempDir: tempDir,
		maxAge:  maxAge,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupTempFiles handles a TypeCleanupTempFiles task. Files older than
// maxAge are deleted; directories are left alone.
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, t *asynq.Task) error {
	if _, err := os.Stat(p.tempDir); os.IsNotExist(err) {
		return nil
	}

	var deleted int
	err := filepath.Walk(p.tempDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || time.Since(info.ModTime()) <= p.maxAge {
			return nil
		}
		if err := os.Remove(path); err != nil {
			p.logger.WarnContext(ctx, "failed to delete temp file",
				slog.String("file", path),
				slog.Any("error", err))
			return nil
		}
		deleted++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk temp directory: %w", err)
	}

	if deleted > 0 {
		p.logger.InfoContext(ctx, "temp files cleaned up", slog.Int("deleted", deleted))
	}
	return nil
}
