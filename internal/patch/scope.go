package patch

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// CheckScope parses the diff and rejects patches that touch files
// outside the task's owned set. Each task exclusively owns its listed
// files; a model wandering into other files would race concurrent tasks.
// A scope violation is a retryable patch-format error.
func CheckScope(diffText string, ownedFiles []string) error {
	owned := make(map[string]bool, len(ownedFiles))
	for _, f := range ownedFiles {
		owned[f] = true
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err != nil {
		return fmt.Errorf("unparseable diff: %w", err)
	}
	if len(fileDiffs) == 0 {
		return fmt.Errorf("diff contains no file changes")
	}

	for _, fd := range fileDiffs {
		path := diffPath(fd)
		if !owned[path] {
			return fmt.Errorf("patch touches %s, which the task does not own", path)
		}
	}
	return nil
}

// diffPath resolves the workspace-relative path of a file diff,
// preferring the new name and stripping git's a/ b/ prefixes.
func diffPath(fd *diff.FileDiff) string {
	path := fd.NewName
	if path == "" || path == "/dev/null" {
		path = fd.OrigName
	}
	path = strings.TrimPrefix(path, "a/")
	path = strings.TrimPrefix(path, "b/")
	return path
}
