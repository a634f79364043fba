// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for the expectrun
// binaries. It centralizes the raw stderr writes that happen before a
// structured logger exists or after main has given up:
//
//   - Fatal reports an unrecoverable error and exits 1.
//   - Exit honors an error's ExitCode method so that a handled
//     non-zero outcome (tests failed, test crashed) does not print an
//     extra error line.
package process
