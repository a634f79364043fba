// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for expectrun.
//
// Configuration is loaded from a single file named by either the
// EXPECTRUN_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). When neither is given, [Load] returns
// [Default]. There is no discovery of files in well-known locations.
//
// The file may contain environment-specific sections (development,
// ci) that override base values when [Config].Environment matches. The
// ci environment defaults to plain output, since CI logs are not
// terminals.
//
// Variable expansion is performed on names and paths after loading:
// ${HOME}, ${PID} (the runner's process id), and ${VAR:-default}
// patterns are expanded. No other environment variables override
// config values.
//
// Key exports:
//
//   - [Config] -- master struct with Buffer, Render, Effectful,
//     Snapshots, Source
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
