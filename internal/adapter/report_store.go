package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	m "prscore.dev/pkg/prscore/internal/model"
	pkg "prscore.dev/pkg/prscore/pkg"
)

const runFileExt = ".json"

// ErrRunNotFound is returned when no stored run matches the requested id.
var ErrRunNotFound = errors.New("run not found")

// ReportStore persists assembled runs as one JSON document per run.
type ReportStore interface {
	SaveRun(ctx context.Context, dir m.Path, run m.RunResult) (m.Path, error)
	LoadRun(ctx context.Context, dir m.Path, runID string) (m.RunResult, error)
	// LoadRuns streams every stored run, oldest first, into a disk-backed
	// spill. The caller owns the spill and must Remove it.
	LoadRuns(ctx context.Context, dir m.Path) (pkg.FileSpill[m.RunResult], error)
}

// LocalReportStore stores runs on the local filesystem.
type LocalReportStore struct {
	spillDir string
}

// NewLocalReportStore constructs a LocalReportStore. spillDir holds the
// temporary files of LoadRuns; empty means the system temp directory.
func NewLocalReportStore(spillDir string) *LocalReportStore {
	return &LocalReportStore{spillDir: spillDir}
}

// SaveRun implements ReportStore.
func (s *LocalReportStore) SaveRun(ctx context.Context, dir m.Path, run m.RunResult) (m.Path, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := runPath(dir, run.RunID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		slog.Error("Failed to create report directory", "dir", dir, "error", err)
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run %s: %w", run.RunID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		slog.Error("Failed to write run", "path", tmp, "error", err)
		return "", fmt.Errorf("failed to write run: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		slog.Error("Failed to move run into place", "path", path, "error", err)
		return "", fmt.Errorf("failed to write run: %w", err)
	}

	slog.Info("Saved run", "runId", run.RunID, "path", path)

	return m.Path(path), nil
}

// LoadRun implements ReportStore.
func (s *LocalReportStore) LoadRun(ctx context.Context, dir m.Path, runID string) (m.RunResult, error) {
	if err := ctx.Err(); err != nil {
		return m.RunResult{}, err
	}

	path, err := runPath(dir, runID)
	if err != nil {
		return m.RunResult{}, err
	}

	run, err := readRun(path)
	if errors.Is(err, os.ErrNotExist) {
		return m.RunResult{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	return run, err
}

// LoadRuns implements ReportStore. Runs are ordered by creation time, then id.
func (s *LocalReportStore) LoadRuns(ctx context.Context, dir m.Path) (pkg.FileSpill[m.RunResult], error) {
	entries, err := os.ReadDir(string(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to list runs in %s: %w", dir, err)
	}

	type indexed struct {
		path    string
		created int64
		id      string
	}

	var index []indexed

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != runFileExt {
			continue
		}

		path := filepath.Join(string(dir), entry.Name())

		header, err := readRunHeader(path)
		if err != nil {
			slog.Warn("Skipping unreadable run", "path", path, "error", err)
			continue
		}

		index = append(index, indexed{path: path, created: header.CreatedAt.UnixNano(), id: header.RunID})
	}

	sort.Slice(index, func(i, j int) bool {
		if index[i].created != index[j].created {
			return index[i].created < index[j].created
		}

		return index[i].id < index[j].id
	})

	spill, err := pkg.NewFileSpill[m.RunResult](s.spillDir)
	if err != nil {
		return nil, err
	}

	for _, item := range index {
		if err := ctx.Err(); err != nil {
			_ = spill.Remove()
			return nil, err
		}

		run, err := readRun(item.path)
		if err != nil {
			slog.Warn("Skipping unreadable run", "path", item.path, "error", err)
			continue
		}

		if err := spill.Append(run); err != nil {
			_ = spill.Remove()
			return nil, err
		}
	}

	return spill, nil
}

func runPath(dir m.Path, runID string) (string, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("invalid run id %q", runID)
	}

	return filepath.Join(string(dir), runID+runFileExt), nil
}

// runHeader is the part of a stored run needed to order it.
type runHeader struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
}

func readRunHeader(path string) (runHeader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runHeader{}, err
	}

	var header runHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return runHeader{}, err
	}

	return header, nil
}

func readRun(path string) (m.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return m.RunResult{}, fmt.Errorf("failed to read run %s: %w", path, err)
	}

	var run m.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		return m.RunResult{}, fmt.Errorf("failed to decode run %s: %w", path, err)
	}

	return run, nil
}
