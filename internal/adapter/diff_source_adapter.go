// Package adapter contains the infrastructure ports of the prscore CLI.
package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
	m "prscore.dev/pkg/prscore/internal/model"
)

// StdinSource selects standard input as the diff source.
const StdinSource m.Path = "-"

const devNull = "/dev/null"

// DiffSourceAdapter supplies the per-file hunks of a pull request.
type DiffSourceAdapter interface {
	// ListDiff reads a multi-file unified diff from source, or from standard
	// input when source is StdinSource.
	ListDiff(ctx context.Context, source m.Path) ([]m.DiffHunk, error)
}

// LocalDiffSourceAdapter reads diffs from files or an injected stdin.
type LocalDiffSourceAdapter struct {
	stdin io.Reader
}

// NewLocalDiffSourceAdapter constructs a LocalDiffSourceAdapter reading
// StdinSource from stdin.
func NewLocalDiffSourceAdapter(stdin io.Reader) *LocalDiffSourceAdapter {
	return &LocalDiffSourceAdapter{stdin: stdin}
}

// ListDiff implements DiffSourceAdapter.
func (a *LocalDiffSourceAdapter) ListDiff(ctx context.Context, source m.Path) ([]m.DiffHunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)

	if source == StdinSource {
		data, err = io.ReadAll(a.stdin)
	} else {
		data, err = os.ReadFile(string(source))
	}

	if err != nil {
		slog.Error("Failed to read diff", "source", source, "error", err)
		return nil, fmt.Errorf("failed to read diff %s: %w", source, err)
	}

	return ParseUnifiedDiff(data)
}

// ParseUnifiedDiff converts a multi-file unified diff (as produced by git
// diff) into one DiffHunk per file.
func ParseUnifiedDiff(data []byte) ([]m.DiffHunk, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []m.DiffHunk{}, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	hunks := make([]m.DiffHunk, 0, len(fileDiffs))

	for _, fd := range fileDiffs {
		if fd == nil {
			continue
		}

		hunk, ok := toDiffHunk(fd)
		if !ok {
			slog.Warn("Skipping diff entry without file names", "extended", fd.Extended)
			continue
		}

		hunks = append(hunks, hunk)
	}

	return hunks, nil
}

func toDiffHunk(fd *diff.FileDiff) (m.DiffHunk, bool) {
	origName, newName := fileNames(fd)
	if origName == "" && newName == "" {
		return m.DiffHunk{}, false
	}

	hunk := m.DiffHunk{Path: m.Path(newName), Status: m.StatusModified}

	switch {
	case origName == devNull || hasExtended(fd, "new file mode"):
		hunk.Status = m.StatusAdded
	case newName == devNull || hasExtended(fd, "deleted file mode"):
		hunk.Status = m.StatusDeleted
		hunk.Path = m.Path(origName)
	case origName != "" && origName != newName:
		hunk.Status = m.StatusRenamed
		hunk.PreviousPath = m.Path(origName)
	}

	var patch strings.Builder

	for _, h := range fd.Hunks {
		if h == nil {
			continue
		}

		fmt.Fprintf(&patch, "@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)

		if h.Section != "" {
			patch.WriteString(" " + h.Section)
		}

		patch.WriteString("\n")

		body := string(h.Body)
		patch.WriteString(body)

		if body != "" && !strings.HasSuffix(body, "\n") {
			patch.WriteString("\n")
		}

		for _, line := range strings.Split(body, "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				hunk.Additions++
			case strings.HasPrefix(line, "-"):
				hunk.Deletions++
			}
		}
	}

	hunk.Patch = patch.String()

	return hunk, true
}

// fileNames returns the old and new paths without their a/ and b/ prefixes,
// falling back to the extended git headers for pure renames and mode changes.
func fileNames(fd *diff.FileDiff) (string, string) {
	origName := stripPrefix(fd.OrigName, "a/")
	newName := stripPrefix(fd.NewName, "b/")

	for _, line := range fd.Extended {
		switch {
		case strings.HasPrefix(line, "rename from "):
			origName = strings.TrimPrefix(line, "rename from ")
		case strings.HasPrefix(line, "rename to "):
			newName = strings.TrimPrefix(line, "rename to ")
		case strings.HasPrefix(line, "diff --git ") && origName == "" && newName == "":
			fields := strings.Fields(strings.TrimPrefix(line, "diff --git "))
			if len(fields) == 2 {
				origName = stripPrefix(fields[0], "a/")
				newName = stripPrefix(fields[1], "b/")
			}
		}
	}

	if newName == "" {
		newName = origName
	}

	return origName, newName
}

func stripPrefix(name, prefix string) string {
	if name == devNull {
		return name
	}

	return strings.TrimPrefix(name, prefix)
}

func hasExtended(fd *diff.FileDiff, prefix string) bool {
	for _, line := range fd.Extended {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}

	return false
}
