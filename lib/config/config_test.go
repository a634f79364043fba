// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Buffer.Size != 1024 {
		t.Errorf("expected buffer.size=1024, got %d", cfg.Buffer.Size)
	}
	if cfg.Render.Target != "auto" {
		t.Errorf("expected render.target=auto, got %s", cfg.Render.Target)
	}
	if !cfg.Source.VerifyFingerprint {
		t.Error("expected verify_fingerprint=true")
	}
}

func TestLoad_WithoutConfigUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if want := "expectrun_buffer_" + strconv.Itoa(os.Getpid()); cfg.Buffer.Name != want {
		t.Errorf("expected buffer.name=%s, got %s", want, cfg.Buffer.Name)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_WithConfigVariable(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "expectrun.yaml")
	configContent := `
environment: ci
buffer:
  name: shared_tests
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Environment != CI {
		t.Errorf("expected environment=ci, got %s", cfg.Environment)
	}
	if cfg.Buffer.Name != "shared_tests" {
		t.Errorf("expected buffer.name=shared_tests, got %s", cfg.Buffer.Name)
	}
	if cfg.Render.Target != "plain" {
		t.Errorf("expected ci default render.target=plain, got %s", cfg.Render.Target)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "expectrun.yaml")
	configContent := `
environment: development

buffer:
  size: 4096

render:
  target: color
  html_report: ${REPORT_DIR:-/tmp/reports}/run.html

effectful:
  child_command: [/opt/expectrun/bin/child, --verbose]
  timeout: 5s

snapshots:
  directory: ${HOME}/snapshots
  compression: lz4

source:
  verify_fingerprint: false

development:
  render:
    target: plain
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("REPORT_DIR", "")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Buffer.Size != 4096 {
		t.Errorf("expected buffer.size=4096, got %d", cfg.Buffer.Size)
	}
	if cfg.Render.Target != "plain" {
		t.Errorf("expected development override render.target=plain, got %s", cfg.Render.Target)
	}
	if cfg.Render.HTMLReport != "/tmp/reports/run.html" {
		t.Errorf("expected html_report default expansion, got %s", cfg.Render.HTMLReport)
	}
	if want := filepath.Join(os.Getenv("HOME"), "snapshots"); cfg.Snapshots.Directory != want {
		t.Errorf("expected snapshots.directory=%s, got %s", want, cfg.Snapshots.Directory)
	}
	if len(cfg.Effectful.ChildCommand) != 2 || cfg.Effectful.ChildCommand[1] != "--verbose" {
		t.Errorf("unexpected child_command %v", cfg.Effectful.ChildCommand)
	}
	if cfg.Source.VerifyFingerprint {
		t.Error("expected verify_fingerprint=false")
	}

	timeout, err := cfg.EffectfulTimeout()
	if err != nil || timeout != 5*time.Second {
		t.Errorf("EffectfulTimeout() = %v, %v; want 5s", timeout, err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(configPath, []byte("buffer: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Environment = "staging"
	cfg.Buffer.Name = ""
	cfg.Buffer.Size = 16
	cfg.Render.Target = "sepia"
	cfg.Effectful.Timeout = "-1s"
	cfg.Snapshots.Compression = "brotli"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"invalid environment: staging",
		"buffer.name is required",
		"buffer.size must be at least",
		"render.target must be one of",
		"effectful.timeout must be positive",
		"snapshots.compression",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, err)
		}
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("EXPECTRUN_TEST_VALUE", "from-env")
	vars := map[string]string{"PID": "42"}

	tests := []struct {
		input, want string
	}{
		{"buffer_${PID}", "buffer_42"},
		{"${EXPECTRUN_TEST_VALUE}/x", "from-env/x"},
		{"${EXPECTRUN_TEST_UNSET:-fallback}", "fallback"},
		{"plain", "plain"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestChildCommand(t *testing.T) {
	cfg := Default()
	cfg.Effectful.ChildCommand = nil
	command, err := cfg.ChildCommand()
	if err != nil || command != nil {
		t.Errorf("ChildCommand() with none configured = %v, %v", command, err)
	}

	cfg.Effectful.ChildCommand = []string{"expectrun-test-no-such-binary"}
	if _, err := cfg.ChildCommand(); err == nil {
		t.Error("ChildCommand() resolved a missing binary")
	}
}
