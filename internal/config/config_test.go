package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mochapipe/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "mochapipe", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.RegistryPath != filepath.Join(tempHome, ".local", "share", "mochapipe", "registry.db") {
		t.Fatalf("unexpected registry path: %q", cfg.Paths.RegistryPath)
	}
	if cfg.Host.Platform != runtime.GOOS {
		t.Fatalf("expected platform to default to %q, got %q", runtime.GOOS, cfg.Host.Platform)
	}
	if cfg.Host.Version != "2024.5" {
		t.Fatalf("unexpected host version %q", cfg.Host.Version)
	}
	if got := cfg.Create.TrackingPoints.DefaultExporters; len(got) != 1 || got[0] != "NukeAscii" {
		t.Fatalf("unexpected default tracking exporters %v", got)
	}
	if got := cfg.Create.ShapeData.DefaultExporters; len(got) != 0 {
		t.Fatalf("unexpected default shape exporters %v", got)
	}
}

func TestLoadReadsFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "mochapipe.toml")

	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(dir, "staging")
	cfg.Paths.PublishRoot = filepath.Join(dir, "publish")
	cfg.Create.TrackingPoints.DefaultExporters = []string{" NukeAscii ", "NukeAscii", ""}
	cfg.Logging.Level = "DEBUG"
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := "MOCHAPIPE_HOST_VERSION=2025.0\nMOCHAPIPE_FOLDER_PATH=shots/sh010\nMOCHAPIPE_TASK=track\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	for _, key := range []string{"MOCHAPIPE_HOST_VERSION", "MOCHAPIPE_FOLDER_PATH", "MOCHAPIPE_TASK"} {
		key := key
		old, had := os.LookupEnv(key)
		_ = os.Unsetenv(key)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, old)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", path, resolved, exists)
	}
	if loaded.Host.Version != "2025.0" {
		t.Fatalf("expected host version from .env, got %q", loaded.Host.Version)
	}
	if loaded.Session.FolderPath != "/shots/sh010" || loaded.Session.Task != "track" {
		t.Fatalf("unexpected session %+v", loaded.Session)
	}
	if got := loaded.Create.TrackingPoints.DefaultExporters; len(got) != 1 || got[0] != "NukeAscii" {
		t.Fatalf("expected deduplicated exporters, got %v", got)
	}
	if loaded.Logging.Level != "debug" {
		t.Fatalf("expected normalized level, got %q", loaded.Logging.Level)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"same staging and publish", func(c *config.Config) { c.Paths.PublishRoot = c.Paths.StagingDir }, "must differ"},
		{"bad version", func(c *config.Config) { c.Host.Version = "latest" }, "host.version"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load, exists=%v err=%v", exists, err)
	}
}
