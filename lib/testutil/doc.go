// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for expectrun packages.
//
// [RequireReceive] encapsulates the timeout safety
// valve pattern (select with time.After fallback) so that tests which
// wait on a spinning child-signal loop or a simulated child goroutine
// cannot hang the suite. These are the only place in the test suite
// where real wall-clock timeouts are used; protocol timeouts under test
// go through clock.Fake.
//
// [UniqueID] generates monotonically increasing identifiers. Tests use
// it to name shared memory regions so that parallel tests never attach
// to each other's regions.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no expectrun-internal dependencies.
package testutil
