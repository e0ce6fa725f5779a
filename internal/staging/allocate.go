package staging

import (
	"fmt"
	"os"
	"strings"

	"mochapipe/internal/services"
	"mochapipe/internal/textutil"
)

// nameSeparator splits the instance token from the random suffix added by
// os.MkdirTemp.
const nameSeparator = "-"

// Allocate creates a fresh staging directory for one instance under root.
// The directory name starts with the sanitized instance name so stale
// directories are recognizable.
func Allocate(root, name string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("%w: staging_dir is not configured", services.ErrConfiguration)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("create staging root: %w", err)
	}
	dir, err := os.MkdirTemp(root, textutil.SanitizeToken(name)+nameSeparator)
	if err != nil {
		return "", fmt.Errorf("allocate staging dir: %w", err)
	}
	return dir, nil
}

// instanceToken recovers the sanitized instance name from a directory name.
func instanceToken(dirName string) string {
	if i := strings.LastIndex(dirName, nameSeparator); i > 0 {
		return dirName[:i]
	}
	return dirName
}
