package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mochapipe/internal/config"
	"mochapipe/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	project    string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv(projectEnv, "")

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	base := testsupport.BaseDir(cfg)

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		project:    filepath.Join(base, "work", "shot_v001.mocha"),
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	payload, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeTestPNG(t *testing.T, path string, width, height int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
}

func (env *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath, "--project", env.project}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (env *cliTestEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (env *cliTestEnv) initProject(t *testing.T) {
	t.Helper()
	clip := filepath.Join(env.baseDir, "footage", "plate.0001.png")
	writeTestPNG(t, clip, 320, 180)
	env.mustRun(t, "project", "init", env.project, "--clip", clip)
}

func TestCLIPublishWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.initProject(t)

	env.mustRun(t, "layers", "add", "screen", "--in", "1", "--out", "4")
	out := env.mustRun(t, "instances", "create", "matteshapes", "main", "--layer", "0", "--exporter", "Shape Point List")
	if !strings.Contains(out, "Created matteshapesMain") {
		t.Fatalf("unexpected create output: %q", out)
	}

	out = env.mustRun(t, "instances", "list")
	if !strings.Contains(out, "matteshapesMain") {
		t.Fatalf("instance missing from list: %q", out)
	}

	out = env.mustRun(t, "--yaml", "instances", "list")
	if !strings.Contains(out, "instance_id:") || !strings.Contains(out, "- 0") || strings.Contains(out, `"0"`) {
		t.Fatalf("unexpected yaml instances: %q", out)
	}

	out = env.mustRun(t, "publish")
	if !strings.Contains(out, "matteshapesScreenMain") || !strings.Contains(out, "workfileMain") {
		t.Fatalf("unexpected publish report: %q", out)
	}
	if !strings.Contains(out, "Published 2, failed 0") {
		t.Fatalf("unexpected publish summary: %q", out)
	}

	out = env.mustRun(t, "--json", "versions", "list")
	var versions []struct {
		ProductName string `json:"product_name"`
		Version     int    `json:"version"`
		Dir         string `json:"dir"`
	}
	if err := json.Unmarshal([]byte(out), &versions); err != nil {
		t.Fatalf("decode versions: %v\n%s", err, out)
	}
	if len(versions) != 2 {
		t.Fatalf("versions = %+v", versions)
	}
	for _, v := range versions {
		if v.Version != 1 || !strings.HasPrefix(v.Dir, env.cfg.Paths.PublishRoot) {
			t.Fatalf("unexpected version %+v", v)
		}
	}

	out = env.mustRun(t, "--yaml", "project", "info")
	if !strings.Contains(out, "instances: 2") || !strings.Contains(out, "name: screen") {
		t.Fatalf("unexpected project info: %q", out)
	}
}

func TestCLIPublishReportsFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.initProject(t)
	env.mustRun(t, "instances", "create", "trackpoints", "main")

	out, err := env.run(t, "publish")
	if !errors.Is(err, errPublishFailed) {
		t.Fatalf("expected errPublishFailed, got %v", err)
	}
	if !strings.Contains(out, "No layers set for instance trackpointsMain") {
		t.Fatalf("failure not reported: %q", out)
	}
}

func TestCLILoadAndContainers(t *testing.T) {
	env := setupCLITestEnv(t)
	env.initProject(t)

	bg := filepath.Join(env.baseDir, "footage", "bg.png")
	writeTestPNG(t, bg, 64, 64)
	out := env.mustRun(t, "load", "clip", bg, "--name", "bg", "--version", "v001")
	if !strings.Contains(out, "Loaded bg via LoadClip") {
		t.Fatalf("unexpected load output: %q", out)
	}

	newer := filepath.Join(env.baseDir, "footage", "bg_v002.png")
	writeTestPNG(t, newer, 64, 64)
	env.mustRun(t, "containers", "update", "bg", newer, "--version", "v002")

	out = env.mustRun(t, "containers", "list")
	if !strings.Contains(out, "bg") || !strings.Contains(out, "v002") {
		t.Fatalf("unexpected containers: %q", out)
	}

	env.mustRun(t, "containers", "remove", "bg")
	out = env.mustRun(t, "containers", "list")
	if !strings.Contains(out, "No containers") {
		t.Fatalf("container not removed: %q", out)
	}

	if _, err := env.run(t, "containers", "remove", "bg"); err == nil {
		t.Fatal("expected error removing a missing container")
	}
}

func TestCLIExportersList(t *testing.T) {
	env := setupCLITestEnv(t)
	out := env.mustRun(t, "--json", "exporters", "list", "--kind", "tracking")
	var rows []exporterRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode exporters: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("tracking exporters = %+v", rows)
	}
	for _, row := range rows {
		if row.Label == "Nuke Ascii" && row.Representation != "NukeAscii" {
			t.Fatalf("Nuke Ascii representation = %q", row.Representation)
		}
	}

	if _, err := env.run(t, "exporters", "list", "--kind", "mesh"); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
}

func TestCLIRequiresProject(t *testing.T) {
	env := setupCLITestEnv(t)
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", env.configPath, "instances", "list"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "no project given") {
		t.Fatalf("expected missing project error, got %v", err)
	}
}

func TestCLIConfigInitSkipsConfigLoad(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "broken.toml"), "config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config exists")
	}
}

func TestCLIStagingClean(t *testing.T) {
	env := setupCLITestEnv(t)
	old := filepath.Join(env.cfg.Paths.StagingDir, "old-123")
	if err := os.MkdirAll(old, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	out := env.mustRun(t, "staging", "list")
	if !strings.Contains(out, "old-123") {
		t.Fatalf("staging list = %q", out)
	}
	out = env.mustRun(t, "staging", "clean", "--max-age", "1h")
	if !strings.Contains(out, "Removed 1 staging directories") {
		t.Fatalf("staging clean = %q", out)
	}
}

func TestCLIDoctor(t *testing.T) {
	env := setupCLITestEnv(t)

	out := env.mustRun(t, "doctor")
	if !strings.Contains(out, "Publish root") || !strings.Contains(out, "warn") {
		t.Fatalf("unexpected doctor output:\n%s", out)
	}

	blocker := filepath.Join(env.baseDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	env.cfg.Paths.PublishRoot = filepath.Join(blocker, "publish")
	writeTestConfig(t, env.configPath, env.cfg)

	out, err := env.run(t, "doctor")
	if err == nil {
		t.Fatal("expected doctor to fail with an unusable publish root")
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("expected FAIL row, got:\n%s", out)
	}
}
