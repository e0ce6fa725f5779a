package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir   string `toml:"staging_dir"`
	PublishRoot  string `toml:"publish_root"`
	LogDir       string `toml:"log_dir"`
	RegistryPath string `toml:"registry_path"`
	ResourceDir  string `toml:"resource_dir"`
}

// Host describes the tracking application installation.
type Host struct {
	Name string `toml:"name"`
	// Version selects the exporter name tables ("2024.5", "2025", ...).
	Version    string `toml:"version"`
	Executable string `toml:"executable"`
	// Platform overrides runtime.GOOS when resolving install paths.
	Platform string `toml:"platform"`
}

// Session is the pipeline context the artist works in.
type Session struct {
	Project    string `toml:"project"`
	FolderPath string `toml:"folder_path"`
	Task       string `toml:"task"`
	TaskType   string `toml:"task_type"`
}

// CreatorSettings configures one creator plugin.
type CreatorSettings struct {
	Enabled bool `toml:"enabled"`
	// DefaultExporters lists exporter short names preselected on new instances.
	DefaultExporters []string `toml:"default_exporters"`
}

// Create groups the creator plugin settings.
type Create struct {
	TrackingPoints CreatorSettings `toml:"tracking_points"`
	ShapeData      CreatorSettings `toml:"shape_data"`
}

// Publish contains integration settings.
type Publish struct {
	VerifyCopies       bool `toml:"verify_copies"`
	StagingMaxAgeHours int  `toml:"staging_max_age_hours"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mochapipe.
//
// Configuration sections by subsystem:
//   - Paths: staging, publish root, logs and the version registry database
//   - Host: tracking application version and installation
//   - Session: project/folder/task the artist is working in
//   - Create: default exporters per creator
//   - Publish: copy verification and staging retention
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Host    Host    `toml:"host"`
	Session Session `toml:"session"`
	Create  Create  `toml:"create"`
	Publish Publish `toml:"publish"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mochapipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the resolved config
// (or in the working directory) is loaded first so MOCHAPIPE_* variables can
// be kept out of the TOML file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(dirs ...string) error {
	seen := make(map[string]struct{}, len(dirs)+1)
	for _, dir := range append(dirs, ".") {
		candidate := filepath.Join(dir, ".env")
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load %s: %w", candidate, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mochapipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for publishing.
// PublishRoot is created on a best-effort basis so sessions keep working
// while network storage is unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, filepath.Dir(c.Paths.RegistryPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.PublishRoot) != "" {
		_ = os.MkdirAll(c.Paths.PublishRoot, 0o755)
	}
	return nil
}

// PlaceholderClip returns the path of the bundled placeholder image used to
// create a project when none is open. Empty when no resource dir is set.
func (c *Config) PlaceholderClip() string {
	if strings.TrimSpace(c.Paths.ResourceDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.ResourceDir, "empty.exr")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
