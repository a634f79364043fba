// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/expectrun/cmd/expectrun/cli"
	"github.com/bureau-foundation/expectrun/lib/manifest"
	"github.com/bureau-foundation/expectrun/lib/snapshot"
)

func inspectCommand(environment Environment) *cli.Command {
	var manifestPath string
	return &cli.Command{
		Name:    "inspect",
		Summary: "Decode a buffer snapshot of a failed test",
		Description: `Walk the frames of a buffer snapshot and print each captured value
in CBOR diagnostic notation, labelled with the names from the manifest.`,
		Usage: "expectrun inspect [--manifest FILE] SNAPSHOT",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.StringVar(&manifestPath, "manifest", "expectrun.jsonc", "build manifest the snapshot was recorded against")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one snapshot file, got %d arguments", len(args))
			}
			build, err := manifest.ReadFile(manifestPath)
			if err != nil {
				return err
			}
			recorded, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			logger.Debug("inspecting snapshot", "test", recorded.Test, "bytes", len(recorded.Memory))
			return snapshot.Inspect(environment.Stdout, recorded, build)
		},
	}
}
