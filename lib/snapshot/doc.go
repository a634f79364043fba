// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot persists copies of the shared expectation buffer
// taken after a failing test, so the raw frames can be examined after
// the run with "expectrun inspect".
//
// A snapshot file is a 16-byte header, the test name, and the buffer
// contents, optionally compressed:
//
//	offset  size  field
//	0       4     magic "XRSN"
//	4       1     format version (1)
//	5       1     compression tag
//	6       1     word size of the host that wrote it
//	7       1     reserved, zero
//	8       4     uncompressed buffer length (little endian)
//	12      2     test name length (little endian)
//	14      2     reserved, zero
//	16      n     test name
//	16+n    ...   buffer bytes
package snapshot
