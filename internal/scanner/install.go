package scanner

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ovc-go/internal/config"
)

// bundled holds the default scan and restore scripts. Both import
// devicepath.py from their own directory.
//
//go:embed scripts/*.py
var bundled embed.FS

const helperScript = "devicepath.py"

// InstallScripts writes the bundled scripts to the paths named by cfg,
// leaving existing files untouched. It returns the paths it wrote.
func InstallScripts(cfg config.ScannerConfig) ([]string, error) {
	var targets [][2]string
	for _, t := range [][2]string{{"scan.py", cfg.ScanScript}, {"restore.py", cfg.RestoreScript}} {
		if t[1] == "" {
			continue
		}
		targets = append(targets, t, [2]string{helperScript, filepath.Join(filepath.Dir(t[1]), helperScript)})
	}

	var written []string
	seen := make(map[string]bool)
	for _, t := range targets {
		name, path := t[0], t[1]
		if seen[path] {
			continue
		}
		seen[path] = true

		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return written, fmt.Errorf("checking %s: %w", path, err)
		}

		data, err := bundled.ReadFile("scripts/" + name)
		if err != nil {
			return written, fmt.Errorf("reading bundled %s: %w", name, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return written, fmt.Errorf("creating script directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0755); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
