// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest reads the build manifest the compiler writes next to
// a test library.
//
// The manifest names the library, lists its test functions partitioned
// into pure and effectful, and carries the side tables the runner needs
// to explain a failure: for every module, the source path, the type
// substitutions, the variables each expectation captures keyed by the
// expectation's region, and the debug records keyed by identity.
//
// Manifests are JSONC (JSON with comments and trailing commas):
//
//	{
//	  "library": "sample.so",
//	  "tests": {
//	    "pure": [{"name": "TestAdd", "symbol": {"module": 1, "ident": 4},
//	              "region": {"start": {"line": 3, "column": 1}, "end": {"line": 5, "column": 2}}}],
//	  },
//	  "modules": {
//	    "1": {
//	      "path": "add.roc",
//	      "expectations": [{"region": ..., "lookups": [{"symbol": "x", "type": "I64"}]}],
//	    },
//	  },
//	}
//
// Relative paths are resolved against the manifest's directory by
// [ReadFile].
package manifest
