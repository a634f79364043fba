// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Expectrun runs the inline expectations of a compiled test library and
// prints a diagnostic for every failed expectation, debug record, and
// crashed test. Subcommands: run, inspect (decode a buffer snapshot),
// and version.
package main
