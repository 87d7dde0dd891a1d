// Package loader discovers YAML declaration files and applies them to a configuration
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover returns the declaration files under paths. Each path is walked recursively and
// its files are sorted; paths keep the order given. Missing paths are skipped.
func Discover(paths ...string) ([]string, error) {
	seen := make(map[string]struct{})

	var files []string
	for _, base := range paths {
		found, err := discoverInPath(base)
		if err != nil {
			return nil, fmt.Errorf("failed to discover declarations in %s: %w", base, err)
		}

		for _, f := range found {
			if _, dup := seen[f]; dup {
				continue
			}
			seen[f] = struct{}{}
			files = append(files, f)
		}
	}

	return files, nil
}

func discoverInPath(basePath string) ([]string, error) {
	var files []string

	err := filepath.Walk(basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Clean(path))
		}

		return nil
	})

	sort.Strings(files)

	return files, err
}
