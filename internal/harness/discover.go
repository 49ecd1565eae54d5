package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path         string
	ResolvedPath string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q does not exist (resolved to: %s)", e.Path, e.ResolvedPath)
}

// FindScenarios returns the scenario files under path, sorted. A file path
// is returned as is; a directory is walked for .yaml and .yml files.
// Relative paths are resolved against baseDir.
func FindScenarios(path, baseDir string) ([]string, error) {
	resolved := path
	if !filepath.IsAbs(resolved) && baseDir != "" {
		resolved = filepath.Join(baseDir, resolved)
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path, ResolvedPath: resolved}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{resolved}, nil
	}

	var files []string
	err = filepath.WalkDir(resolved, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenarios: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
