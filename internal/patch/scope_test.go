package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const ownedDiff = `--- a/src/a.ts
+++ b/src/a.ts
@@ -1,3 +1,3 @@
 line1
-old
+new
 line3
`

const strayDiff = `--- a/src/other.ts
+++ b/src/other.ts
@@ -1,1 +1,1 @@
-old
+new
`

func TestCheckScope(t *testing.T) {
	tests := []struct {
		name    string
		diff    string
		owned   []string
		wantErr string
	}{
		{"owned file passes", ownedDiff, []string{"src/a.ts"}, ""},
		{"unowned file rejected", strayDiff, []string{"src/a.ts"}, "does not own"},
		{"multi-file diff with stray rejected", ownedDiff + strayDiff, []string{"src/a.ts"}, "does not own"},
		{"non-diff text rejected", "not a diff at all", []string{"src/a.ts"}, "diff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckScope(tt.diff, tt.owned)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("CheckScope() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("CheckScope() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
