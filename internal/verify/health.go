package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CheckWorkspaceHealth is the startup precondition: the workspace must
// contain a recognizable project manifest before any attempt begins.
// For node projects the package.json must declare at least one script,
// since the default verification commands are npm scripts. Failure here
// is fatal and never retried.
func CheckWorkspaceHealth(workspaceRoot string) error {
	pkgPath := filepath.Join(workspaceRoot, "package.json")
	if data, err := os.ReadFile(pkgPath); err == nil {
		var manifest struct {
			Scripts map[string]string `json:"scripts"`
		}
		if err := json.Unmarshal(data, &manifest); err != nil {
			return fmt.Errorf("workspace %s: parse package.json: %w", workspaceRoot, err)
		}
		if len(manifest.Scripts) == 0 {
			return fmt.Errorf("workspace %s: package.json declares no runnable scripts", workspaceRoot)
		}
		return nil
	}

	for _, manifest := range []string{"go.mod", "pyproject.toml", "setup.py"} {
		if _, err := os.Stat(filepath.Join(workspaceRoot, manifest)); err == nil {
			return nil
		}
	}

	return fmt.Errorf("workspace %s: no recognizable project manifest (package.json, go.mod, pyproject.toml, setup.py)", workspaceRoot)
}
