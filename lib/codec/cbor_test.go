// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"reflect"
	"testing"
)

func TestAppendSequence_WalkWithUnmarshalFirst(t *testing.T) {
	payload, err := AppendSequence(nil, 42, "hello", []int{1, 2}, map[string]any{"x": true})
	if err != nil {
		t.Fatalf("AppendSequence: %v", err)
	}

	var decoded []any
	rest := payload
	for len(rest) > 0 {
		var value any
		rest, err = UnmarshalFirst(rest, &value)
		if err != nil {
			t.Fatalf("UnmarshalFirst after %d items: %v", len(decoded), err)
		}
		decoded = append(decoded, value)
	}

	want := []any{
		uint64(42),
		"hello",
		[]any{uint64(1), uint64(2)},
		map[string]any{"x": true},
	}
	if !reflect.DeepEqual(decoded, want) {
		t.Errorf("decoded sequence = %#v, want %#v", decoded, want)
	}
}

func TestUnmarshalFirst_LeavesTrailingBytes(t *testing.T) {
	payload, err := AppendSequence([]byte{}, 1)
	if err != nil {
		t.Fatalf("AppendSequence: %v", err)
	}
	trailing := []byte{0xAA, 0xAA}
	payload = append(payload, trailing...)

	var value int
	rest, err := UnmarshalFirst(payload, &value)
	if err != nil {
		t.Fatalf("UnmarshalFirst: %v", err)
	}
	if value != 1 {
		t.Errorf("value = %d, want 1", value)
	}
	if !bytes.Equal(rest, trailing) {
		t.Errorf("rest = %x, want %x", rest, trailing)
	}
}

func TestAppendSequenceDeterministic(t *testing.T) {
	record := map[string]any{"zeta": 1, "alpha": 2, "mid": []string{"a"}}
	first, err := AppendSequence(nil, record)
	if err != nil {
		t.Fatalf("first AppendSequence: %v", err)
	}
	second, err := AppendSequence(nil, record)
	if err != nil {
		t.Fatalf("second AppendSequence: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestUnmarshalFirstInvalidCBOR(t *testing.T) {
	var value any
	if _, err := UnmarshalFirst([]byte{0xFF, 0xFE, 0xFD}, &value); err == nil {
		t.Error("UnmarshalFirst should reject invalid CBOR")
	}
}

func TestDiagnoseFirst(t *testing.T) {
	payload, err := AppendSequence(nil, "status", 7)
	if err != nil {
		t.Fatalf("AppendSequence: %v", err)
	}

	notation, rest, err := DiagnoseFirst(payload)
	if err != nil {
		t.Fatalf("DiagnoseFirst: %v", err)
	}
	if notation != `"status"` {
		t.Errorf("first item notation = %s, want \"status\"", notation)
	}

	notation, rest, err = DiagnoseFirst(rest)
	if err != nil {
		t.Fatalf("DiagnoseFirst on remainder: %v", err)
	}
	if notation != "7" {
		t.Errorf("second item notation = %s, want 7", notation)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %x after last item, want empty", rest)
	}
}
