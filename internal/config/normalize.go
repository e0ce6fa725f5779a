package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeHost()
	c.normalizeSession()
	c.Create.TrackingPoints.DefaultExporters = dedupeNames(c.Create.TrackingPoints.DefaultExporters)
	c.Create.ShapeData.DefaultExporters = dedupeNames(c.Create.ShapeData.DefaultExporters)
	if c.Publish.StagingMaxAgeHours <= 0 {
		c.Publish.StagingMaxAgeHours = defaultStagingMaxAgeHours
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.PublishRoot, err = expandPath(c.Paths.PublishRoot); err != nil {
		return fmt.Errorf("paths.publish_root: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RegistryPath) == "" {
		c.Paths.RegistryPath = defaultRegistryPath
	}
	if c.Paths.RegistryPath, err = expandPath(c.Paths.RegistryPath); err != nil {
		return fmt.Errorf("paths.registry_path: %w", err)
	}
	if c.Paths.ResourceDir, err = expandPath(strings.TrimSpace(c.Paths.ResourceDir)); err != nil {
		return fmt.Errorf("paths.resource_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeHost() {
	c.Host.Name = strings.TrimSpace(c.Host.Name)
	if c.Host.Name == "" {
		c.Host.Name = defaultHostName
	}
	if value, ok := os.LookupEnv("MOCHAPIPE_HOST_VERSION"); ok && strings.TrimSpace(value) != "" {
		c.Host.Version = value
	}
	c.Host.Version = strings.TrimSpace(c.Host.Version)
	if c.Host.Version == "" {
		c.Host.Version = defaultHostVersion
	}
	if c.Host.Executable == "" {
		if value, ok := os.LookupEnv("MOCHAPIPE_HOST_EXECUTABLE"); ok {
			c.Host.Executable = value
		}
	}
	c.Host.Executable = strings.TrimSpace(c.Host.Executable)
	c.Host.Platform = strings.ToLower(strings.TrimSpace(c.Host.Platform))
	if c.Host.Platform == "" {
		c.Host.Platform = runtime.GOOS
	}
}

func (c *Config) normalizeSession() {
	envOverrides := []struct {
		key    string
		target *string
	}{
		{"MOCHAPIPE_PROJECT", &c.Session.Project},
		{"MOCHAPIPE_FOLDER_PATH", &c.Session.FolderPath},
		{"MOCHAPIPE_TASK", &c.Session.Task},
		{"MOCHAPIPE_TASK_TYPE", &c.Session.TaskType},
	}
	for _, override := range envOverrides {
		if value, ok := os.LookupEnv(override.key); ok && strings.TrimSpace(value) != "" {
			*override.target = value
		}
		*override.target = strings.TrimSpace(*override.target)
	}
	if c.Session.FolderPath != "" && !strings.HasPrefix(c.Session.FolderPath, "/") {
		c.Session.FolderPath = "/" + c.Session.FolderPath
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func dedupeNames(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
