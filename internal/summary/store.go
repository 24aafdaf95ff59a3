package summary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"coziyoo-seed/internal/model"

	"github.com/rs/zerolog"
)

// ErrSummaryExists is returned when a summary is already stored under a name.
var ErrSummaryExists = errors.New("run summary already exists")

// Store persists a run summary. Summaries are write-once.
type Store interface {
	// Save writes the summary under name and returns where it was written.
	Save(ctx context.Context, name string, s model.RunSummary) (string, error)
}

// fileStore writes summaries to the local filesystem.
type fileStore struct {
	logger zerolog.Logger
}

// NewFileStore creates a store that treats names as file paths.
func NewFileStore(logger zerolog.Logger) Store {
	return &fileStore{
		logger: logger.With().Str("component", "summary-file-store").Logger(),
	}
}

// Save writes to a temporary file in the target directory and links it into
// place, so readers never observe a partial document and an existing summary
// is never replaced.
func (s *fileStore) Save(ctx context.Context, path string, summary model.RunSummary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := Marshal(summary)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create summary directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary summary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to sync summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close summary: %w", err)
	}
	if err := os.Link(tmp.Name(), path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrSummaryExists, path)
		}
		return "", fmt.Errorf("failed to move summary into place: %w", err)
	}

	s.logger.Info().Str("file", path).Int("bytes", len(data)).Msg("run summary written")
	return path, nil
}

// mirrorStore saves to a primary store and copies to a mirror.
type mirrorStore struct {
	primary Store
	mirror  Store
	logger  zerolog.Logger
}

// NewMirrorStore returns a store that writes to primary, then mirror. A mirror
// failure is logged and does not fail the save. A nil mirror returns primary.
func NewMirrorStore(primary, mirror Store, logger zerolog.Logger) Store {
	if mirror == nil {
		return primary
	}
	return &mirrorStore{
		primary: primary,
		mirror:  mirror,
		logger:  logger.With().Str("component", "summary-mirror-store").Logger(),
	}
}

func (s *mirrorStore) Save(ctx context.Context, name string, summary model.RunSummary) (string, error) {
	location, err := s.primary.Save(ctx, name, summary)
	if err != nil {
		return "", err
	}

	mirrored, err := s.mirror.Save(ctx, name, summary)
	if err != nil {
		s.logger.Warn().Err(err).Str("name", name).Msg("failed to mirror run summary")
		return location, nil
	}

	s.logger.Info().Str("location", mirrored).Msg("run summary mirrored")
	return location, nil
}
