package patch

import (
	"os"
	"path/filepath"
)

// ReadFiles snapshots the current content of each owned file. Missing
// files degrade to MissingFilePlaceholder and unreadable files to
// ReadErrorPlaceholder; file I/O never aborts the pipeline, so the model
// can still reason about creating or replacing a file.
func ReadFiles(paths []string, workspaceRoot string) []FileSnapshot {
	snapshot := make([]FileSnapshot, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(filepath.Join(workspaceRoot, path))
		switch {
		case err == nil:
			snapshot = append(snapshot, FileSnapshot{Path: path, Content: string(content)})
		case os.IsNotExist(err):
			snapshot = append(snapshot, FileSnapshot{Path: path, Content: MissingFilePlaceholder})
		default:
			snapshot = append(snapshot, FileSnapshot{Path: path, Content: ReadErrorPlaceholder})
		}
	}
	return snapshot
}
