// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/bureau-foundation/expectrun/lib/manifest"
)

// ErrEffectfulUnsupported is returned by Run when the manifest lists
// effectful tests and no Spawner is configured.
var ErrEffectfulUnsupported = errors.New("effectful tests require an isolation spawner")

// Spawner starts an isolated execution context for one effectful test.
// The child attaches the run's shared buffer by name and hands off
// each record through the signal word.
type Spawner interface {
	Spawn(ctx context.Context, test manifest.Descriptor) (Child, error)
}

// Child is a running isolated test.
type Child interface {
	// Exited reports, without blocking, whether the child is gone.
	Exited() bool

	// Wait blocks until the child is gone. A non-nil error means the
	// test did not finish normally.
	Wait() error

	Kill() error
}

// ExecSpawner runs each effectful test as a child process:
//
//	Command... --buffer NAME --size N --library PATH --test NAME
type ExecSpawner struct {
	Command    []string
	BufferName string
	BufferSize int
	Library    string

	// Output receives the child's stdout and stderr. Nil discards it.
	Output io.Writer
}

func (s *ExecSpawner) Spawn(ctx context.Context, test manifest.Descriptor) (Child, error) {
	if len(s.Command) == 0 {
		return nil, ErrEffectfulUnsupported
	}
	arguments := append([]string(nil), s.Command[1:]...)
	arguments = append(arguments,
		"--buffer", s.BufferName,
		"--size", strconv.Itoa(s.BufferSize),
		"--library", s.Library,
		"--test", test.Name,
	)

	// Not CommandContext: the runner decides when to kill, so it can
	// report the reason.
	command := exec.Command(s.Command[0], arguments...)
	child := &execChild{command: command, done: make(chan struct{})}
	output := s.Output
	if output == nil {
		output = io.Discard
	}
	command.Stdout = output
	command.Stderr = io.MultiWriter(output, &child.stderr)

	if err := command.Start(); err != nil {
		return nil, fmt.Errorf("starting child for %s: %w", test.Name, err)
	}
	go func() {
		err := command.Wait()
		child.mu.Lock()
		child.err = err
		child.mu.Unlock()
		close(child.done)
	}()
	return child, nil
}

type execChild struct {
	command *exec.Cmd
	done    chan struct{}

	mu     sync.Mutex
	err    error
	stderr lockedBuffer
}

func (c *execChild) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *execChild) Wait() error {
	<-c.done
	c.mu.Lock()
	err := c.err
	c.mu.Unlock()
	if err == nil {
		return nil
	}
	if message := strings.TrimSpace(c.stderr.String()); message != "" {
		return fmt.Errorf("%w\n%s", err, message)
	}
	return err
}

func (c *execChild) Kill() error {
	if err := c.command.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// lockedBuffer collects child stderr while Wait may read it.
type lockedBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}
