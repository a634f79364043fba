// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shm provides the fixed-size memory region shared between the
// expectation runner and the code under test.
//
// A [Buffer] owns one mapping. [CreateOrAttach] opens a named shared
// memory object (creating it if absent, growing it if undersized), maps
// it MAP_SHARED, and fills it with [FillPattern] so that reads of
// never-written bytes are recognizable in hex dumps. [Attach] maps an
// existing object without creating or filling it; the isolated child
// process uses it to find the host's region by name without inheriting
// a file descriptor.
//
// Every accessor is bounds-checked. An access outside the mapping is a
// programming error in the protocol layer and panics rather than
// silently reading adjacent memory. Failures to create, size, or map
// the object are environment errors wrapped in [ErrEnvironment]: the
// runner cannot do anything useful without the region, so callers
// treat them as fatal.
//
// [FromSlice] wraps ordinary heap memory in the same accessor type. It
// is used by tests and by tooling that decodes a snapshot of a region
// after the fact.
package shm
