// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/expectrun/lib/expect"
	"github.com/bureau-foundation/expectrun/lib/process"
	"github.com/bureau-foundation/expectrun/lib/runner"
	"github.com/bureau-foundation/expectrun/lib/shm"
	"github.com/bureau-foundation/expectrun/lib/version"
)

// crashExitCode is the status of a child whose test terminated
// abnormally. The runner reports the captured stderr as the crash
// message.
const crashExitCode = 2

// isolatedLibrary is a test library that can be told it runs in a
// child process.
type isolatedLibrary interface {
	runner.Library
	SetIsolated(isolated bool) error
}

type options struct {
	bufferName  string
	bufferSize  int
	libraryPath string
	test        string
}

// crashError ends the child with crashExitCode after the crash message
// has been written to stderr.
type crashError struct{}

func (crashError) Error() string { return "test crashed" }
func (crashError) ExitCode() int { return crashExitCode }

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr, openLibrary)
	var crashed crashError
	if err != nil && !errors.As(err, &crashed) {
		process.Fatal(err)
	}
	process.Exit(err)
}

func openLibrary(path string) (isolatedLibrary, error) {
	library, err := runner.OpenPlugin(path)
	if err != nil {
		return nil, err
	}
	return library, nil
}

func parseOptions(args []string, stdout io.Writer) (options, bool, error) {
	var opts options
	var showVersion bool
	flagSet := pflag.NewFlagSet("expectrun-child", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.bufferName, "buffer", "", "name of the runner's shared buffer")
	flagSet.IntVar(&opts.bufferSize, "size", expect.BufferSize, "size of the shared buffer in bytes")
	flagSet.StringVar(&opts.libraryPath, "library", "", "path of the compiled test library")
	flagSet.StringVar(&opts.test, "test", "", "exported name of the effectful test to run")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return opts, false, err
	}
	if showVersion {
		return opts, true, version.Write(stdout, "expectrun-child")
	}

	var errs []error
	if opts.bufferName == "" {
		errs = append(errs, errors.New("--buffer is required"))
	}
	if opts.libraryPath == "" {
		errs = append(errs, errors.New("--library is required"))
	}
	if opts.test == "" {
		errs = append(errs, errors.New("--test is required"))
	}
	if opts.bufferSize < expect.StartOffset+expect.FrameHeaderSize {
		errs = append(errs, fmt.Errorf("--size %d is too small for a frame", opts.bufferSize))
	}
	if flagSet.NArg() > 0 {
		errs = append(errs, fmt.Errorf("unexpected arguments: %v", flagSet.Args()))
	}
	return opts, false, errors.Join(errs...)
}

func run(args []string, stdout, stderr io.Writer, open func(string) (isolatedLibrary, error)) error {
	opts, done, err := parseOptions(args, stdout)
	if err != nil || done {
		return err
	}

	// The runner created and initialized the region; attaching must not
	// touch its header.
	buffer, err := shm.Attach(opts.bufferName, opts.bufferSize)
	if err != nil {
		return err
	}
	defer buffer.Close()

	library, err := open(opts.libraryPath)
	if err != nil {
		return err
	}
	defer library.Close()

	if err := library.SetIsolated(true); err != nil {
		return err
	}
	if err := library.ShareBuffer(buffer); err != nil {
		return err
	}
	test, err := library.Lookup(opts.test)
	if err != nil {
		return err
	}

	err = test()
	var crash *runner.AbnormalTermination
	if errors.As(err, &crash) {
		fmt.Fprintln(stderr, crash.Message)
		return crashError{}
	}
	return err
}
