package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"mochapipe/internal/textutil"
)

// VersionLabel renders a version number as v001.
func VersionLabel(number int) string {
	return fmt.Sprintf("v%03d", number)
}

// VersionDir returns <root>/<folder>/<product>/v###. Folder path segments
// are kept as directories; every segment is sanitized.
func VersionDir(root, folderPath, productName string, number int) string {
	parts := []string{root}
	for _, segment := range strings.Split(folderPath, "/") {
		if segment = sanitizeSegment(segment); segment != "" {
			parts = append(parts, segment)
		}
	}
	parts = append(parts, sanitizeSegment(productName), VersionLabel(number))
	return filepath.Join(parts...)
}

// VersionDir returns the directory version number of a product lives in.
func (s *Store) VersionDir(folderPath, productName string, number int) string {
	return VersionDir(s.root, folderPath, productName, number)
}

func sanitizeSegment(value string) string {
	value = textutil.SanitizeFileName(value)
	if value == "" || value == "." || value == ".." {
		return ""
	}
	return strings.ReplaceAll(value, " ", "_")
}
