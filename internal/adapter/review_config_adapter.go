package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
	m "prscore.dev/pkg/prscore/internal/model"
)

// ReviewConfigFile is the per-repository review config file name.
const ReviewConfigFile = ".prscore-review.yaml"

// ReviewConfigAdapter loads the per-repository review configuration.
type ReviewConfigAdapter interface {
	// LoadReviewConfig never fails: a missing or invalid file yields
	// DefaultReviewConfig and a logged warning.
	LoadReviewConfig(ctx context.Context, path m.Path) m.ReviewConfig
}

// LocalReviewConfigAdapter reads review config files with yaml.v3.
type LocalReviewConfigAdapter struct{}

// NewLocalReviewConfigAdapter constructs a LocalReviewConfigAdapter.
func NewLocalReviewConfigAdapter() *LocalReviewConfigAdapter {
	return &LocalReviewConfigAdapter{}
}

// LoadReviewConfig implements ReviewConfigAdapter. A directory path is
// resolved to ReviewConfigFile inside it.
func (a *LocalReviewConfigAdapter) LoadReviewConfig(ctx context.Context, path m.Path) m.ReviewConfig {
	if ctx.Err() != nil {
		return m.DefaultReviewConfig()
	}

	file := string(path)
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		file = filepath.Join(file, ReviewConfigFile)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("No review config, using defaults", "path", file)
		} else {
			slog.Warn("Failed to read review config, using defaults", "path", file, "error", err)
		}

		return m.DefaultReviewConfig()
	}

	cfg, err := ParseReviewConfig(data)
	if err != nil {
		slog.Warn("Invalid review config, using defaults", "path", file, "error", err)
		return m.DefaultReviewConfig()
	}

	return cfg
}

// ParseReviewConfig decodes a review config over DefaultReviewConfig, so keys
// absent from data keep their default values. A providers list, when present,
// replaces the default list.
func ParseReviewConfig(data []byte) (m.ReviewConfig, error) {
	cfg := m.DefaultReviewConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return m.ReviewConfig{}, fmt.Errorf("failed to parse review config: %w", err)
	}

	if _, err := cfg.Segmentation.Resolve(); err != nil {
		return m.ReviewConfig{}, fmt.Errorf("invalid segmentation: %w", err)
	}

	return cfg, nil
}
