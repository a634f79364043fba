// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package values turns the payload bytes of an expectation frame into
// typed values the renderer can print.
//
// A frame does not record how long its payload is. The payload is a
// CBOR sequence with one item per captured variable, so a [Decoder]
// learns the length by decoding exactly as many items as the
// expectation captured and reporting the bytes it consumed. The
// runner advances its cursor by that amount to reach the next frame.
//
// Each captured variable carries a declared type name from the
// compiler's side table. Names that begin with a lowercase letter are
// type variables: the first value observed for a variable binds it in
// the module's [TypeTable], and later captures of the same variable
// within the module must agree with that binding.
package values
