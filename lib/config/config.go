// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/shm"
	"github.com/bureau-foundation/expectrun/lib/snapshot"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "EXPECTRUN_CONFIG"

// Environment represents where the runner is used.
type Environment string

const (
	// Development is an interactive developer machine.
	Development Environment = "development"
	// CI is a continuous-integration job.
	CI Environment = "ci"
)

// Config is the master configuration for expectrun.
type Config struct {
	// Environment identifies where the runner is used.
	Environment Environment `yaml:"environment"`

	// Buffer configures the shared expectation buffer.
	Buffer BufferConfig `yaml:"buffer"`

	// Render configures diagnostic output.
	Render RenderConfig `yaml:"render"`

	// Effectful configures isolated execution of effectful tests.
	Effectful EffectfulConfig `yaml:"effectful"`

	// Snapshots configures buffer snapshots of failing tests.
	Snapshots SnapshotsConfig `yaml:"snapshots"`

	// Source configures how source files are read for diagnostics.
	Source SourceConfig `yaml:"source"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	CI          *ConfigOverrides `yaml:"ci,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Render    *RenderConfig    `yaml:"render,omitempty"`
	Effectful *EffectfulConfig `yaml:"effectful,omitempty"`
	Snapshots *SnapshotsConfig `yaml:"snapshots,omitempty"`
}

// BufferConfig configures the shared expectation buffer.
type BufferConfig struct {
	// Name is the shared-memory object name. A cooperating child
	// process attaches by this name.
	// Default: expectrun_buffer_<runner pid>
	Name string `yaml:"name"`

	// Size is the buffer length in bytes.
	// Default: 1024
	Size int `yaml:"size"`
}

// RenderConfig configures diagnostic output.
type RenderConfig struct {
	// Target is auto, color, or plain.
	// Default: auto (plain in ci)
	Target string `yaml:"target"`

	// HTMLReport, when set, is the path an HTML report of the run is
	// written to.
	HTMLReport string `yaml:"html_report"`
}

// EffectfulConfig configures isolated execution of effectful tests.
type EffectfulConfig struct {
	// ChildCommand is the program (and leading arguments) that runs
	// one effectful test in a separate process. Empty disables
	// effectful tests.
	// Default: [expectrun-child]
	ChildCommand []string `yaml:"child_command"`

	// Timeout bounds how long the runner waits for the child to
	// signal or exit.
	// Default: 30s
	Timeout string `yaml:"timeout"`
}

// SnapshotsConfig configures buffer snapshots of failing tests.
type SnapshotsConfig struct {
	// Directory receives one snapshot per failing test. Empty
	// disables snapshots.
	Directory string `yaml:"directory"`

	// Compression is none, lz4, or zstd.
	// Default: zstd
	Compression string `yaml:"compression"`
}

// SourceConfig configures how source files are read for diagnostics.
type SourceConfig struct {
	// VerifyFingerprint logs a warning when a source file no longer
	// matches the fingerprint recorded at compile time.
	// Default: true
	VerifyFingerprint bool `yaml:"verify_fingerprint"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Environment: Development,
		Buffer: BufferConfig{
			Name: shm.DefaultName(os.Getpid()),
			Size: expect.BufferSize,
		},
		Render: RenderConfig{
			Target: "auto",
		},
		Effectful: EffectfulConfig{
			ChildCommand: []string{"expectrun-child"},
			Timeout:      "30s",
		},
		Snapshots: SnapshotsConfig{
			Compression: "zstd",
		},
		Source: SourceConfig{
			VerifyFingerprint: true,
		},
	}
}

// Load loads configuration from the file named by EXPECTRUN_CONFIG, or
// returns the defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		cfg := Default()
		cfg.applyEnvironmentOverrides()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile merges a single configuration file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case CI:
		overrides = c.CI
		// CI logs are not terminals.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Render: &RenderConfig{Target: "plain"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Render != nil {
		if overrides.Render.Target != "" {
			c.Render.Target = overrides.Render.Target
		}
		if overrides.Render.HTMLReport != "" {
			c.Render.HTMLReport = overrides.Render.HTMLReport
		}
	}

	if overrides.Effectful != nil {
		if len(overrides.Effectful.ChildCommand) > 0 {
			c.Effectful.ChildCommand = overrides.Effectful.ChildCommand
		}
		if overrides.Effectful.Timeout != "" {
			c.Effectful.Timeout = overrides.Effectful.Timeout
		}
	}

	if overrides.Snapshots != nil {
		if overrides.Snapshots.Directory != "" {
			c.Snapshots.Directory = overrides.Snapshots.Directory
		}
		if overrides.Snapshots.Compression != "" {
			c.Snapshots.Compression = overrides.Snapshots.Compression
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in names
// and paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
		"PID":  strconv.Itoa(os.Getpid()),
	}

	c.Buffer.Name = expandVars(c.Buffer.Name, vars)
	c.Render.HTMLReport = expandVars(c.Render.HTMLReport, vars)
	c.Snapshots.Directory = expandVars(c.Snapshots.Directory, vars)
	for index, argument := range c.Effectful.ChildCommand {
		c.Effectful.ChildCommand[index] = expandVars(argument, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != CI {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Buffer.Name == "" {
		errs = append(errs, fmt.Errorf("buffer.name is required"))
	}
	if minimum := expect.StartOffset + expect.FrameHeaderSize; c.Buffer.Size < minimum {
		errs = append(errs, fmt.Errorf("buffer.size must be at least %d bytes, got %d", minimum, c.Buffer.Size))
	}

	targets := []string{"auto", "color", "plain"}
	if !contains(targets, c.Render.Target) {
		errs = append(errs, fmt.Errorf("render.target must be one of: %v", targets))
	}

	if _, err := c.EffectfulTimeout(); err != nil {
		errs = append(errs, err)
	}

	if _, err := snapshot.ParseCompressionTag(c.Snapshots.Compression); err != nil {
		errs = append(errs, fmt.Errorf("snapshots.compression: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EffectfulTimeout returns the parsed effectful timeout.
func (c *Config) EffectfulTimeout() (time.Duration, error) {
	timeout, err := time.ParseDuration(c.Effectful.Timeout)
	if err != nil {
		return 0, fmt.Errorf("effectful.timeout: %w", err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("effectful.timeout must be positive, got %s", c.Effectful.Timeout)
	}
	return timeout, nil
}

// SnapshotCompression returns the parsed snapshot compression tag.
func (c *Config) SnapshotCompression() (snapshot.CompressionTag, error) {
	return snapshot.ParseCompressionTag(c.Snapshots.Compression)
}

// ChildCommand returns the effectful child command with its program
// resolved through PATH. It returns nil when effectful execution is
// disabled.
func (c *Config) ChildCommand() ([]string, error) {
	if len(c.Effectful.ChildCommand) == 0 {
		return nil, nil
	}
	program, err := exec.LookPath(c.Effectful.ChildCommand[0])
	if err != nil {
		return nil, fmt.Errorf("effectful child %s not found: %w", c.Effectful.ChildCommand[0], err)
	}
	command := append([]string{program}, c.Effectful.ChildCommand[1:]...)
	return command, nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
