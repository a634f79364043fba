// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package values

import (
	"fmt"
	"maps"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TypeTable holds the type-variable substitutions for one module.
// The zero value is not usable; call [NewTypeTable].
type TypeTable struct {
	bindings map[string]string
}

// NewTypeTable returns a table seeded with the given substitutions.
// The map is copied.
func NewTypeTable(bindings map[string]string) *TypeTable {
	table := &TypeTable{bindings: make(map[string]string, len(bindings))}
	maps.Copy(table.bindings, bindings)
	return table
}

// IsVariable reports whether a declared type name is a type variable.
func IsVariable(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsLower(r)
}

// Resolve follows substitutions until it reaches a concrete type or an
// unbound variable.
func (t *TypeTable) Resolve(declared string) string {
	seen := 0
	for IsVariable(declared) {
		bound, ok := t.bindings[declared]
		if !ok {
			return declared
		}
		declared = bound
		seen++
		if seen > len(t.bindings) {
			panic(fmt.Sprintf("values: cyclic type substitution through %q", declared))
		}
	}
	return declared
}

// Bind records the concrete type for a variable. Rebinding a variable
// to the same type is a no-op; rebinding it to a different one is an
// error.
func (t *TypeTable) Bind(variable, concrete string) error {
	if !IsVariable(variable) {
		return fmt.Errorf("cannot bind %q: not a type variable", variable)
	}
	if existing, ok := t.bindings[variable]; ok && existing != concrete {
		return fmt.Errorf("type variable %q is bound to %s, cannot rebind to %s", variable, existing, concrete)
	}
	t.bindings[variable] = concrete
	return nil
}

// Bindings returns a copy of the current substitutions.
func (t *TypeTable) Bindings() map[string]string {
	return maps.Clone(t.bindings)
}

// kindForType maps a concrete declared type to the kind its values
// must have. Unrecognized types accept any kind.
func kindForType(declared string) (Kind, bool) {
	head, _, _ := strings.Cut(declared, " ")
	switch head {
	case "Str":
		return KindStr, true
	case "Bool":
		return KindBool, true
	case "I8", "I16", "I32", "I64", "I128", "U8", "U16", "U32", "U64", "U128", "Int", "Nat":
		return KindInt, true
	case "F32", "F64", "Dec", "Frac":
		return KindFloat, true
	case "List":
		return KindList, true
	default:
		return KindUnknown, false
	}
}
