package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Contains checks if a slice contains a specific string
func Contains(slice []string, val string) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}

// ListFiles returns the regular files of dir accepted by match, sorted by name.
// Subdirectories are not descended into.
func ListFiles(dir string, match func(path string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if match == nil || match(p) {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Dedup returns ss without repeated values, keeping the first occurrence.
func Dedup(ss []string) []string {
	seen := make(map[string]struct{}, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
