// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package values

import (
	"fmt"

	"github.com/bureau-foundation/expectrun/lib/codec"
)

// Result is what a decode step produced.
type Result struct {
	// Consumed is the number of payload bytes the values occupied.
	// The next frame, if any, starts Consumed bytes after the payload
	// offset.
	Consumed int

	Values []Value
}

// Decoder materializes captured values from raw buffer memory.
// Implementations may bind type variables in table.
type Decoder interface {
	Decode(memory []byte, offset int, declared []string, table *TypeTable) (Result, error)
}

// CBORDecoder decodes payloads written as CBOR sequences.
type CBORDecoder struct{}

var _ Decoder = CBORDecoder{}

// Decode reads one item per declared type starting at offset. An error
// means the payload does not match what the compiled code should have
// written.
func (CBORDecoder) Decode(memory []byte, offset int, declared []string, table *TypeTable) (Result, error) {
	if offset < 0 || offset > len(memory) {
		return Result{}, fmt.Errorf("payload offset %d outside %d-byte buffer", offset, len(memory))
	}

	result := Result{Values: make([]Value, 0, len(declared))}
	remaining := memory[offset:]
	for index, declaredType := range declared {
		var data any
		rest, err := codec.UnmarshalFirst(remaining, &data)
		if err != nil {
			return Result{}, fmt.Errorf("decoding value %d (%s) at offset %d: %w",
				index, declaredType, offset+result.Consumed, err)
		}
		result.Consumed += len(remaining) - len(rest)
		remaining = rest

		value, err := typeValue(declaredType, data, table)
		if err != nil {
			return Result{}, fmt.Errorf("value %d: %w", index, err)
		}
		result.Values = append(result.Values, value)
	}
	return result, nil
}

// typeValue resolves the declared type of one decoded item, binding
// an unbound type variable to the item's kind.
func typeValue(declared string, data any, table *TypeTable) (Value, error) {
	kind := KindOf(data)
	resolved := declared
	if table != nil {
		resolved = table.Resolve(declared)
		if IsVariable(resolved) {
			if err := table.Bind(resolved, kind.String()); err != nil {
				return Value{}, err
			}
			resolved = kind.String()
		}
	}

	if want, known := kindForType(resolved); known && want != kind {
		return Value{}, fmt.Errorf("decoded %s does not match declared type %s", kind, resolved)
	}
	return Value{Type: resolved, Kind: kind, Data: data}, nil
}
