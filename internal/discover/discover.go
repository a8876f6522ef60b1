// Package discover expands command line arguments into secrets files.
package discover

import (
	"os"
	"path/filepath"
	"strings"
)

// ValidExtensions are the file types sops can encrypt in structured form
var ValidExtensions = []string{
	".yaml",
	".yml",
	".json",
	".env",
	".ini",
}

// IsSecretsFile returns true if the file has a recognized extension
func IsSecretsFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range ValidExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// Expand replaces every directory in paths with the secrets files found below
// it, in lexical order. Other paths are kept as given, in place.
func Expand(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		found, err := DiscoverFiles(path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// DiscoverFiles finds all secrets files in the specified directory.
// Hidden files and directories (names starting with ".") are skipped.
func DiscoverFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and directories (e.g. .git, .sops.yaml)
		if path != dir && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.IsDir() && IsSecretsFile(path) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
