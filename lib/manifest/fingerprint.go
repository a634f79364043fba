// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Fingerprint is the BLAKE3 digest of a source file's contents.
type Fingerprint [32]byte

// sourceDomainKey keys source fingerprints. Changing it invalidates
// every fingerprint a compiler has already written.
var sourceDomainKey = [32]byte{
	'e', 'x', 'p', 'e', 'c', 't', 'r', 'u', 'n', '.', 's', 'o', 'u', 'r', 'c', 'e',
}

// FingerprintSource computes the fingerprint of source text.
func FingerprintSource(data []byte) Fingerprint {
	hasher, err := blake3.NewKeyed(sourceDomainKey[:])
	if err != nil {
		panic("manifest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint
}

// ParseFingerprint decodes a 64-character hex fingerprint.
func ParseFingerprint(text string) (Fingerprint, error) {
	var fingerprint Fingerprint
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return fingerprint, fmt.Errorf("invalid fingerprint %q: %w", text, err)
	}
	if len(decoded) != len(fingerprint) {
		return fingerprint, fmt.Errorf("invalid fingerprint %q: %d bytes, want %d", text, len(decoded), len(fingerprint))
	}
	copy(fingerprint[:], decoded)
	return fingerprint, nil
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}
