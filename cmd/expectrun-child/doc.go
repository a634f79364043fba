// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Expectrun-child runs one effectful test in isolation. The runner
// starts it with the name and size of its shared buffer; the child
// attaches the buffer, loads the test library in isolated mode, and
// calls the test. Every failed expectation and debug record is handed
// to the runner through the buffer's signal word, and the child waits
// for the runner to acknowledge each one before continuing.
//
// Exit status: 0 when the test returned, 2 when it crashed, 1 when the
// child could not set itself up.
package main
