package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateHost(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.PublishRoot) == "" {
		return errors.New("paths.publish_root must be set")
	}
	if c.Paths.StagingDir == c.Paths.PublishRoot {
		return errors.New("paths.staging_dir and paths.publish_root must differ")
	}
	return nil
}

func (c *Config) validateHost() error {
	major, _, _ := strings.Cut(c.Host.Version, ".")
	if _, err := strconv.Atoi(major); err != nil {
		return fmt.Errorf("host.version %q must start with a release year (e.g. 2024.5)", c.Host.Version)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}
	return nil
}
