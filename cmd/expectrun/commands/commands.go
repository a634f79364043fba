// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the expectrun command tree.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/expectrun/cmd/expectrun/cli"
	"github.com/bureau-foundation/expectrun/lib/runner"
	"github.com/bureau-foundation/expectrun/lib/version"
)

// Environment is what the commands touch outside the process. Zero
// fields take the production values.
type Environment struct {
	// Stdout receives diagnostics and command output.
	Stdout io.Writer

	// OpenLibrary loads the compiled test library named by a manifest.
	OpenLibrary func(path string) (runner.Library, error)

	// Logger overrides cli.NewCommandLogger.
	Logger *slog.Logger
}

func (e Environment) withDefaults() Environment {
	if e.Stdout == nil {
		e.Stdout = os.Stdout
	}
	if e.OpenLibrary == nil {
		e.OpenLibrary = OpenPlugin
	}
	return e
}

// OpenPlugin opens a test library built with -buildmode=plugin.
func OpenPlugin(path string) (runner.Library, error) {
	library, err := runner.OpenPlugin(path)
	if err != nil {
		return nil, err
	}
	return library, nil
}

// Root builds and returns the complete expectrun command tree.
func Root(environment Environment) *cli.Command {
	environment = environment.withDefaults()
	return &cli.Command{
		Name: "expectrun",
		Description: `expectrun: run the inline expectations of a compiled test library.

Tests share one memory region with the runner. Failed expectations and
debug records are decoded from it and rendered against the source.`,
		Logger: environment.Logger,
		Subcommands: []*cli.Command{
			runCommand(environment),
			inspectCommand(environment),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string, _ *slog.Logger) error {
					return version.Write(environment.Stdout, "expectrun")
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Run every test in a build",
				Command:     "expectrun run --manifest build/expectrun.jsonc",
			},
			{
				Description: "Decode a snapshot of a failed test",
				Command:     "expectrun inspect --manifest build/expectrun.jsonc snapshots/parse_header.snap",
			},
		},
	}
}
