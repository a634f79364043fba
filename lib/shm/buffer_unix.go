// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package shm

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// CreateOrAttach maps the shared memory object called name, creating it
// if it does not exist and growing it if it is smaller than size. The
// mapping is filled with FillPattern.
func CreateOrAttach(name string, size int) (*Buffer, error) {
	buffer, err := open(name, size, unix.O_RDWR|unix.O_CREAT)
	if err != nil {
		return nil, err
	}
	buffer.Fill(FillPattern)
	return buffer, nil
}

// Attach maps an existing shared memory object without creating or
// filling it. The object must already be at least size bytes.
func Attach(name string, size int) (*Buffer, error) {
	return open(name, size, unix.O_RDWR)
}

func open(name string, size int, flags int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: region size must be positive, got %d", ErrEnvironment, size)
	}
	path, err := objectPath(name)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrEnvironment, path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: stating %s: %w", ErrEnvironment, path, err)
	}
	if stat.Size < int64(size) {
		if flags&unix.O_CREAT == 0 {
			unix.Close(fd)
			return nil, fmt.Errorf("%w: %s is %d bytes, need %d", ErrEnvironment, path, stat.Size, size)
		}
		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("%w: truncating %s to %d bytes: %w", ErrEnvironment, path, size, err)
		}
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: mapping %s: %w", ErrEnvironment, path, err)
	}

	return &Buffer{
		data:   data,
		name:   name,
		path:   path,
		fd:     fd,
		mapped: true,
	}, nil
}

func unmap(b *Buffer) error {
	var firstErr error
	if err := unix.Munmap(b.data); err != nil {
		firstErr = fmt.Errorf("unmapping %s: %w", b.path, err)
	}
	if err := unix.Close(b.fd); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing %s: %w", b.path, err)
	}
	return firstErr
}

// objectPath maps a region name onto the filesystem. Linux keeps POSIX
// shared memory objects in /dev/shm; elsewhere the temporary directory
// serves the same purpose for cooperating processes of one user.
func objectPath(name string) (string, error) {
	trimmed := strings.TrimPrefix(name, "/")
	if trimmed == "" || strings.ContainsRune(trimmed, '/') {
		return "", fmt.Errorf("%w: invalid region name %q", ErrEnvironment, name)
	}
	directory := os.TempDir()
	if runtime.GOOS == "linux" {
		if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
			directory = "/dev/shm"
		}
	}
	return filepath.Join(directory, trimmed), nil
}
