package staging

import (
	"cmp"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mochapipe/internal/logging"
)

// DirInfo describes one staging directory.
type DirInfo struct {
	Name     string `json:"name" yaml:"name"`
	Instance string `json:"instance" yaml:"instance"`
	Path     string `json:"path" yaml:"path"`
	// ModTime is the newest modification time of the directory or anything
	// below it, so a long export keeps its directory fresh.
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Size    int64     `json:"size" yaml:"size"`
	Files   int       `json:"files" yaml:"files"`
}

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// ListDirectories returns the staging directories under root, newest first.
// A missing or unset root yields nil.
func ListDirectories(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := inspect(filepath.Join(root, entry.Name()))
		if err != nil {
			continue
		}
		dirs = append(dirs, info)
	}
	slices.SortFunc(dirs, func(a, b DirInfo) int {
		return cmp.Or(b.ModTime.Compare(a.ModTime), cmp.Compare(a.Name, b.Name))
	})
	return dirs, nil
}

// CleanStale removes staging directories whose newest content is older than
// maxAge. A maxAge of zero removes every directory.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	var result CleanStaleResult
	if logger == nil {
		logger = logging.NewNop()
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: root, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		info, err := inspect(path)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if maxAge > 0 && !info.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale staging directory", "staging_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Info("removed stale staging directory",
			logging.String("path", path),
			logging.String(logging.FieldInstance, info.Instance),
			logging.Duration("age", time.Since(info.ModTime).Round(time.Second)),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
	return result
}

// inspect totals the files below path. Unreadable children are skipped.
func inspect(path string) (DirInfo, error) {
	root, err := os.Stat(path)
	if err != nil {
		return DirInfo{}, err
	}
	name := filepath.Base(path)
	info := DirInfo{
		Name:     name,
		Instance: instanceToken(name),
		Path:     path,
		ModTime:  root.ModTime(),
	}
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == path {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		if fi.ModTime().After(info.ModTime) {
			info.ModTime = fi.ModTime()
		}
		if !d.IsDir() {
			info.Size += fi.Size()
			info.Files++
		}
		return nil
	})
	return info, nil
}
