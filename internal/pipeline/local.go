package pipeline

import (
	"fmt"
	"path/filepath"
)

// LocalPath returns the on-disk location for an artifact's downloaded bytes.
// Files are keyed by database rowid rather than by remote name so duplicate
// or hostile filenames can never collide.
func LocalPath(storageDir string, rowID int64) string {
	return filepath.Join(storageDir, fmt.Sprintf("%d.dat", rowID))
}
