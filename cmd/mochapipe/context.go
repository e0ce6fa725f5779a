package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mochapipe/internal/config"
	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
	"mochapipe/internal/registry"
)

// projectEnv names the project file when --project is not given.
const projectEnv = "MOCHAPIPE_PROJECT"

type globalFlags struct {
	config  string
	project string
	json    bool
	yaml    bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// log returns the command logger. Logger construction failures fall back to
// a silent logger so they never block a command.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err == nil {
			c.logger, err = logging.NewFromConfig(cfg)
		}
		if err != nil || c.logger == nil {
			c.logger = logging.NewNop()
		}
	})
	return c.logger
}

func (c *commandContext) JSONMode() bool {
	return c.flags.json
}

func (c *commandContext) YAMLMode() bool {
	return c.flags.yaml
}

// structured reports whether output goes through writeStructured.
func (c *commandContext) structured() bool {
	return c.JSONMode() || c.YAMLMode()
}

func (c *commandContext) writeStructured(cmd *cobra.Command, v any) error {
	if c.YAMLMode() {
		return writeYAML(cmd, v)
	}
	return writeJSON(cmd, v)
}

func (c *commandContext) projectPath() (string, error) {
	path := strings.TrimSpace(c.flags.project)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(projectEnv))
	}
	if path == "" {
		return "", fmt.Errorf("no project given; pass --project or set %s", projectEnv)
	}
	return config.ExpandPath(path)
}

func (c *commandContext) openProject() (*host.Project, error) {
	path, err := c.projectPath()
	if err != nil {
		return nil, err
	}
	return host.Open(path)
}

// withProject opens the project, runs fn and saves the project when fn
// changed it, including when fn failed after a partial change.
func (c *commandContext) withProject(fn func(*host.Project) error) error {
	project, err := c.openProject()
	if err != nil {
		return err
	}
	runErr := fn(project)
	if project.Dirty() {
		if err := project.Save(); err != nil {
			return errors.Join(runErr, fmt.Errorf("save project: %w", err))
		}
	}
	return runErr
}

func (c *commandContext) exporters() (*exporter.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	reg := exporter.NewRegistry()
	if err := exporter.RegisterBuiltins(reg, cfg.Host.Version); err != nil {
		return nil, err
	}
	return reg, nil
}

func (c *commandContext) store() *metastore.Store {
	return metastore.NewStore(c.log())
}

func (c *commandContext) withRegistry(fn func(*registry.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := registry.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// pluginRegistry registers creators, loaders and publish plugins. versions
// may be nil when no publish will run.
func (c *commandContext) pluginRegistry(versions plugins.VersionStore) (*pipeline.Registry, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	reg := pipeline.NewRegistry()
	opts := plugins.Options{Config: cfg, Store: c.store(), Versions: versions, Logger: c.log()}
	if err := plugins.Register(reg, opts); err != nil {
		return nil, err
	}
	return reg, nil
}

func (c *commandContext) createContext(project *host.Project) (*pipeline.CreateContext, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	exporters, err := c.exporters()
	if err != nil {
		return nil, err
	}
	return plugins.NewCreateContext(cfg, project, c.store(), exporters, c.log()), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
