// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package values

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Kind classifies a decoded value independently of its declared type.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindList
	KindRecord
	KindTag
)

var kindNames = [...]string{
	KindUnknown: "Unknown",
	KindUnit:    "Unit",
	KindBool:    "Bool",
	KindInt:     "Int",
	KindFloat:   "Frac",
	KindStr:     "Str",
	KindBytes:   "Bytes",
	KindList:    "List",
	KindRecord:  "Record",
	KindTag:     "Tag",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// KindOf classifies a value produced by the CBOR decoder.
func KindOf(data any) Kind {
	switch data.(type) {
	case nil:
		return KindUnit
	case bool:
		return KindBool
	case int64, uint64, big.Int, *big.Int:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindStr
	case []byte:
		return KindBytes
	case []any:
		return KindList
	case map[string]any:
		return KindRecord
	case cbor.Tag:
		return KindTag
	default:
		return KindUnknown
	}
}

// Value is one captured variable after decoding.
type Value struct {
	// Type is the declared type after type-variable substitution.
	Type string

	Kind Kind

	// Data is the decoded CBOR item: nil, bool, uint64, int64, float64,
	// string, []byte, []any, map[string]any, or cbor.Tag.
	Data any
}

// String renders the value in source-like notation.
func (v Value) String() string {
	return Format(v.Data)
}

// Format renders a decoded item in source-like notation: strings are
// quoted, lists use brackets, records list their fields in key order.
func Format(data any) string {
	var builder strings.Builder
	format(&builder, data)
	return builder.String()
}

func format(builder *strings.Builder, data any) {
	switch value := data.(type) {
	case nil:
		builder.WriteString("{}")
	case bool:
		if value {
			builder.WriteString("Bool.true")
		} else {
			builder.WriteString("Bool.false")
		}
	case int64:
		builder.WriteString(strconv.FormatInt(value, 10))
	case uint64:
		builder.WriteString(strconv.FormatUint(value, 10))
	case big.Int:
		builder.WriteString(value.String())
	case *big.Int:
		builder.WriteString(value.String())
	case float32:
		builder.WriteString(formatFloat(float64(value), 32))
	case float64:
		builder.WriteString(formatFloat(value, 64))
	case string:
		builder.WriteString(strconv.Quote(value))
	case []byte:
		builder.WriteByte('[')
		for index, b := range value {
			if index > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(strconv.Itoa(int(b)))
		}
		builder.WriteByte(']')
	case []any:
		builder.WriteByte('[')
		for index, element := range value {
			if index > 0 {
				builder.WriteString(", ")
			}
			format(builder, element)
		}
		builder.WriteByte(']')
	case map[string]any:
		if len(value) == 0 {
			builder.WriteString("{}")
			return
		}
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		builder.WriteString("{ ")
		for index, key := range keys {
			if index > 0 {
				builder.WriteString(", ")
			}
			builder.WriteString(key)
			builder.WriteString(": ")
			format(builder, value[key])
		}
		builder.WriteString(" }")
	case cbor.Tag:
		fmt.Fprintf(builder, "#%d(", value.Number)
		format(builder, value.Content)
		builder.WriteByte(')')
	default:
		fmt.Fprintf(builder, "%v", value)
	}
}

// formatFloat always shows a fractional part so 3.0 does not read as
// an integer.
func formatFloat(f float64, bits int) string {
	text := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(text, ".eEnN") {
		text += ".0"
	}
	return text
}
