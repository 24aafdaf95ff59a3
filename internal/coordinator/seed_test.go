package coordinator

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"coziyoo-seed/internal/identity"
	"coziyoo-seed/internal/summary"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSeed(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	replay := filepath.Join(t.TempDir(), "prior.json")
	_, err := summary.NewFileStore(zerolog.Nop()).Save(ctx, replay, summary.Build(summary.Input{Seed: "20231231235959-zzzzzz"}))
	require.NoError(t, err)
	loader := summary.NewFileLoader(zerolog.Nop())

	tests := []struct {
		name     string
		src      SeedSource
		expected identity.RunSeed
		errorMsg string
	}{
		{
			name:     "explicit seed wins",
			src:      SeedSource{Explicit: " 20240101000000-ab12cd ", Replay: replay, Loader: loader},
			expected: "20240101000000-ab12cd",
		},
		{
			name:     "replayed summary",
			src:      SeedSource{Replay: replay, Loader: loader},
			expected: "20231231235959-zzzzzz",
		},
		{
			name:     "fresh seed",
			src:      SeedSource{Entropy: bytes.NewReader([]byte{0, 1, 2, 3, 4, 5})},
			expected: "20240101000000-abcdef",
		},
		{
			name:     "invalid explicit seed",
			src:      SeedSource{Explicit: "has space"},
			errorMsg: "invalid character",
		},
		{
			name:     "replay without loader",
			src:      SeedSource{Replay: replay},
			errorMsg: "no summary loader configured",
		},
		{
			name:     "missing replay file",
			src:      SeedSource{Replay: filepath.Join(t.TempDir(), "missing.json"), Loader: loader},
			errorMsg: "failed to read run summary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ResolveSeed(ctx, tt.src, now)

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seed)
		})
	}
}
