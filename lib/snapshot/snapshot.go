// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const (
	magic         = "XRSN"
	formatVersion = 1
	headerSize    = 16
)

// Snapshot is a copy of the shared buffer after one test.
type Snapshot struct {
	Test     string
	WordSize int
	Memory   []byte
}

// Encode serializes a snapshot. Data that does not shrink under the
// requested compression is stored uncompressed.
func Encode(snapshot Snapshot, tag CompressionTag) ([]byte, error) {
	if len(snapshot.Test) > math.MaxUint16 {
		return nil, fmt.Errorf("test name of %d bytes is too long", len(snapshot.Test))
	}
	if uint64(len(snapshot.Memory)) > math.MaxUint32 {
		return nil, fmt.Errorf("buffer of %d bytes is too large", len(snapshot.Memory))
	}
	if snapshot.WordSize <= 0 || snapshot.WordSize > math.MaxUint8 {
		return nil, fmt.Errorf("invalid word size %d", snapshot.WordSize)
	}

	body, err := compress(snapshot.Memory, tag)
	if errors.Is(err, errIncompressible) {
		body, tag = snapshot.Memory, CompressionNone
	} else if err != nil {
		return nil, err
	}

	data := make([]byte, headerSize, headerSize+len(snapshot.Test)+len(body))
	copy(data[0:4], magic)
	data[4] = formatVersion
	data[5] = byte(tag)
	data[6] = byte(snapshot.WordSize)
	binary.LittleEndian.PutUint32(data[8:12], uint32(len(snapshot.Memory)))
	binary.LittleEndian.PutUint16(data[12:14], uint16(len(snapshot.Test)))
	data = append(data, snapshot.Test...)
	return append(data, body...), nil
}

// Decode parses a snapshot produced by [Encode].
func Decode(data []byte) (Snapshot, error) {
	if len(data) < headerSize || string(data[0:4]) != magic {
		return Snapshot{}, errors.New("not a snapshot file")
	}
	if data[4] != formatVersion {
		return Snapshot{}, fmt.Errorf("unsupported snapshot version %d", data[4])
	}
	tag := CompressionTag(data[5])
	size := int(binary.LittleEndian.Uint32(data[8:12]))
	nameLength := int(binary.LittleEndian.Uint16(data[12:14]))
	if len(data) < headerSize+nameLength {
		return Snapshot{}, errors.New("snapshot truncated in test name")
	}

	memory, err := decompress(data[headerSize+nameLength:], tag, size)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Test:     string(data[headerSize : headerSize+nameLength]),
		WordSize: int(data[6]),
		Memory:   memory,
	}, nil
}

// WriteFile stores a snapshot in directory under a name derived from
// the test name and returns its path. The file appears atomically.
func WriteFile(directory string, snapshot Snapshot, tag CompressionTag) (string, error) {
	data, err := Encode(snapshot, tag)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot of %s: %w", snapshot.Test, err)
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	path := filepath.Join(directory, FileName(snapshot.Test))
	temporary, err := os.CreateTemp(directory, ".snapshot-*")
	if err != nil {
		return "", fmt.Errorf("creating snapshot file: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		os.Remove(temporary.Name())
		return "", fmt.Errorf("installing snapshot: %w", err)
	}
	return path, nil
}

// ReadFile loads a snapshot from disk.
func ReadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	snapshot, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snapshot, nil
}

// FileName maps a test name to a snapshot file name.
func FileName(test string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, test)
	if safe == "" || strings.Trim(safe, ".") == "" {
		safe = "_"
	}
	return safe + ".snap"
}
