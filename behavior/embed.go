package behavior

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed scripts/*.tengo
var scriptsFS embed.FS

// loadScript prefers a disk copy under behavior/scripts/ so script
// edits do not need a rebuild, falling back to the embedded copy.
func loadScript(name string) ([]byte, error) {
	file := name + ".tengo"
	if data, err := os.ReadFile(filepath.Join("behavior", "scripts", file)); err == nil {
		return data, nil
	}
	data, err := scriptsFS.ReadFile("scripts/" + file)
	if err != nil {
		return nil, fmt.Errorf("behavior: unknown behavior %q: %w", name, err)
	}
	return data, nil
}
