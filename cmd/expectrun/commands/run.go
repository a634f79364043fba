// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/expectrun/cmd/expectrun/cli"
	"github.com/bureau-foundation/expectrun/lib/config"
	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/render"
	"github.com/bureau-foundation/expectrun/lib/runner"
	"github.com/bureau-foundation/expectrun/lib/shm"
)

type runParams struct {
	configPath   string
	manifestPath string
	color        string
}

func runCommand(environment Environment) *cli.Command {
	var params runParams
	return &cli.Command{
		Name:    "run",
		Summary: "Run the tests of a compiled library",
		Description: `Run every test listed in a build manifest.

Effectful tests run first, each in an isolated child process; pure tests
run in-process afterwards. Failures are printed to stdout and the command
exits 1 when any test failed.`,
		Usage: "expectrun run [--config FILE] [--manifest FILE] [--color auto|always|never]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("run", pflag.ContinueOnError)
			flagSet.StringVar(&params.configPath, "config", "", "configuration file (default: $"+config.EnvironmentVariable+" or built-in defaults)")
			flagSet.StringVar(&params.manifestPath, "manifest", "expectrun.jsonc", "build manifest written by the compiler")
			flagSet.StringVar(&params.color, "color", "", "diagnostic styling: auto, always, or never (default: render.target from config)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			return runTests(ctx, environment, params, logger)
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runTests(ctx context.Context, environment Environment, params runParams, logger *slog.Logger) error {
	cfg, err := loadConfig(params.configPath)
	if err != nil {
		return err
	}

	build, err := manifest.ReadFile(params.manifestPath)
	if err != nil {
		return err
	}

	targetName := cfg.Render.Target
	if params.color != "" {
		targetName = params.color
	}
	stdoutFile, _ := environment.Stdout.(*os.File)
	target, err := render.ParseTarget(targetName, stdoutFile)
	if err != nil {
		return err
	}

	timeout, err := cfg.EffectfulTimeout()
	if err != nil {
		return err
	}

	buffer, err := shm.CreateOrAttach(cfg.Buffer.Name, cfg.Buffer.Size)
	if err != nil {
		return err
	}
	defer func() {
		if err := buffer.Close(); err != nil {
			logger.Warn("closing shared buffer", "error", err)
		}
		if err := buffer.Unlink(); err != nil {
			logger.Warn("removing shared buffer", "error", err)
		}
	}()
	expect.NewSequence(buffer)
	logger = logger.With("buffer", buffer.Name())

	library, err := environment.OpenLibrary(build.Library)
	if err != nil {
		return err
	}
	defer library.Close()

	var spawner runner.Spawner
	if len(build.Effectful) > 0 {
		command, err := cfg.ChildCommand()
		if err != nil {
			return err
		}
		if command != nil {
			spawner = &runner.ExecSpawner{
				Command:    command,
				BufferName: buffer.Name(),
				BufferSize: buffer.Len(),
				Library:    build.Library,
				Output:     os.Stderr,
			}
		}
	}

	var observers []runner.Observer
	var report *render.Report
	if cfg.Render.HTMLReport != "" {
		report = render.NewReport("expectrun: " + build.Library)
		observers = append(observers, runner.ReportObserver{Report: report})
	}
	if cfg.Snapshots.Directory != "" {
		compression, err := cfg.SnapshotCompression()
		if err != nil {
			return err
		}
		observers = append(observers, runner.SnapshotObserver{
			Directory:   cfg.Snapshots.Directory,
			Compression: compression,
			WordSize:    shm.WordSize,
			Logger:      logger,
		})
	}

	testRunner, err := runner.New(runner.Config{
		Buffer:    buffer,
		Library:   library,
		Manifest:  build,
		Target:    target,
		Sources:   runner.NewSourceLoader(cfg.Source.VerifyFingerprint, logger),
		Spawner:   spawner,
		Timeout:   timeout,
		Observers: observers,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	summary, err := testRunner.Run(ctx, environment.Stdout)
	if err != nil {
		return err
	}

	if report != nil {
		if err := writeReport(cfg.Render.HTMLReport, report); err != nil {
			return err
		}
		logger.Info("wrote run report", "path", cfg.Render.HTMLReport)
	}

	if summary.Failed > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func writeReport(path string, report *render.Report) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating run report: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	if err := report.WriteHTML(file); err != nil {
		return fmt.Errorf("writing run report %s: %w", path, err)
	}
	return nil
}
