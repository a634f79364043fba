// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package runner executes the tests of a compiled library and reports
// the expectations that failed.
//
// A [Runner] owns one shared buffer for the whole run. Before any test
// runs, it hands the buffer's address to the library through the
// library's SetSharedBuffer export. Then, for each test:
//
//   - Pure tests are called in-process. The runner resets the buffer
//     header, calls the test, and reads the failure count afterwards.
//     A nonzero count means the compiled code wrote that many frames;
//     the runner walks them from the start offset, asking the value
//     decoder how many payload bytes each one used.
//   - Effectful tests run in a child process started by a [Spawner].
//     The child writes one frame at a time and raises the signal word;
//     the runner renders the frame, acknowledges it, and waits again
//     until the child exits or the configured timeout passes.
//
// A test that crashes is reported once with its crash message and its
// own declared region. Either way the run continues with the next
// test, and [Runner.Run] returns the failed and passed counts.
//
// The [Bridge] turns a frame into a diagnostic: it finds the module's
// source text, looks up which variables the expectation captured,
// decodes their values, and hands everything to the renderer. A frame
// whose region or identity the manifest does not know means the
// library and the manifest disagree, and the bridge panics.
package runner
