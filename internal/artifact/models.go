package artifact

import (
	"strings"
	"time"
)

// Stage identifies how far an artifact has progressed through the pipeline.
type Stage string

const (
	StagePending    Stage = "pending"
	StageDownloaded Stage = "downloaded"
	StageUploaded   Stage = "uploaded"
	StageAppended   Stage = "appended"
	StageCompleted  Stage = "completed"
)

var allStages = []Stage{
	StagePending,
	StageDownloaded,
	StageUploaded,
	StageAppended,
	StageCompleted,
}

// AllStages returns the ordered list of known stages.
func AllStages() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	for _, stage := range allStages {
		if stage == normalized {
			return stage, true
		}
	}
	return "", false
}

// Artifact is one photo tracked through the pipeline, identified by the
// source service's id. RowID keys the local byte file on disk.
type Artifact struct {
	RowID       int64
	RemoteID    string
	Name        string
	Size        int64
	Created     time.Time
	Downloaded  bool
	UploadToken string
	InAlbum     bool
	Reclaimed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stage derives the artifact's pipeline stage from its flags.
func (a Artifact) Stage() Stage {
	switch {
	case a.Reclaimed:
		return StageCompleted
	case a.InAlbum:
		return StageAppended
	case a.UploadToken != "":
		return StageUploaded
	case a.Downloaded:
		return StageDownloaded
	default:
		return StagePending
	}
}

// Progress aggregates per-stage counts for observability.
type Progress struct {
	Total      int
	Downloaded int
	Uploaded   int
	Appended   int
	Completed  int
}
