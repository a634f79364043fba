// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR configuration used for values
// captured by expectations.
//
// When an expectation fails, the compiled code writes the values of the
// variables it captured into the shared buffer after the frame header.
// Those values are a CBOR sequence (RFC 8742): one self-delimiting data
// item per captured variable, back to back. The frame does not record
// the payload length; a reader learns it by decoding exactly as many
// items as the expectation captured. [UnmarshalFirst] is the primitive
// for that walk: it decodes one item and returns the unconsumed bytes.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same captured values always produce identical bytes. Snapshots of
// the shared buffer can therefore be compared byte for byte.
//
//	payload, err := codec.AppendSequence(nil, 42, "hello", []int{1, 2})
//	rest, err := codec.UnmarshalFirst(payload, &value)
package codec
