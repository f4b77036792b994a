// Package model defines the data structures shared by the review pipeline.
package model

// Path represents a repository-relative file path.
type Path string

// FileStatus describes how a file changed in a pull request.
type FileStatus string

const (
	// StatusAdded marks a file created by the change.
	StatusAdded FileStatus = "ADDED"
	// StatusModified marks a file edited in place.
	StatusModified FileStatus = "MODIFIED"
	// StatusDeleted marks a file removed by the change.
	StatusDeleted FileStatus = "DELETED"
	// StatusRenamed marks a file moved to a new path (possibly with edits).
	StatusRenamed FileStatus = "RENAMED"
)

// Valid reports whether s is one of the known statuses.
func (s FileStatus) Valid() bool {
	switch s {
	case StatusAdded, StatusModified, StatusDeleted, StatusRenamed:
		return true
	}

	return false
}

// DiffHunk is one file's change as supplied by the SCM side.
// It is read-only for the rest of the pipeline.
type DiffHunk struct {
	Path         Path       `json:"path" yaml:"path"`
	Status       FileStatus `json:"status" yaml:"status"`
	Patch        string     `json:"patch" yaml:"patch"`
	PreviousPath Path       `json:"previousPath,omitempty" yaml:"previousPath,omitempty"`
	Additions    int        `json:"additions" yaml:"additions"`
	Deletions    int        `json:"deletions" yaml:"deletions"`
}

// DiffStats summarises a set of hunks.
type DiffStats struct {
	FilesChanged int
	LinesAdded   int
	LinesDeleted int
}

// LinesChanged is the number of added plus deleted lines.
func (s DiffStats) LinesChanged() int {
	return s.LinesAdded + s.LinesDeleted
}

// StatsFor computes DiffStats over hunks.
func StatsFor(hunks []DiffHunk) DiffStats {
	stats := DiffStats{FilesChanged: len(hunks)}

	for _, hunk := range hunks {
		stats.LinesAdded += hunk.Additions
		stats.LinesDeleted += hunk.Deletions
	}

	return stats
}
