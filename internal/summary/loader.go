package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/model"

	"github.com/rs/zerolog"
)

// Loader reads a previously written summary.
type Loader interface {
	Load(ctx context.Context, name string) (model.RunSummary, error)
}

// fileLoader reads summaries from the local filesystem.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a file-based summary loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "summary-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, filePath string) (model.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return model.RunSummary{}, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read run summary")
		return model.RunSummary{}, fmt.Errorf("failed to read run summary %s: %w", filePath, err)
	}
	return Unmarshal(data)
}

// fallbackLoader tries S3 first, then the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	s3Enabled  bool
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 first, then falls back to
// the local file system. S3 keys are s3Prefix plus the base name, matching the
// keys written by S3.Save.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, s3Enabled bool, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		s3Enabled:  s3Enabled,
		logger:     logger.With().Str("component", "summary-fallback-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, name string) (model.RunSummary, error) {
	if l.s3Enabled && l.s3Loader != nil {
		key := l.s3Prefix + filepath.Base(name)
		s, err := l.s3Loader.Load(ctx, key)
		if err == nil {
			return s, nil
		}
		l.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, name)
}

// ReplaySeed returns the run seed recorded in a previous summary.
func ReplaySeed(ctx context.Context, loader Loader, name string) (identity.RunSeed, error) {
	s, err := loader.Load(ctx, name)
	if err != nil {
		return "", err
	}
	seed, err := identity.ParseRunSeed(s.SeedID)
	if err != nil {
		return "", fmt.Errorf("invalid seed in run summary %s: %w", name, err)
	}
	return seed, nil
}
