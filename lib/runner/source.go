// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/expectrun/lib/manifest"
)

// SourceLoader reads module source text for diagnostics. Each file is
// read at most once per run.
type SourceLoader struct {
	verify bool
	logger *slog.Logger
	cache  map[string]string
}

// NewSourceLoader returns a loader. With verify set, a source file
// whose contents no longer match the fingerprint recorded at compile
// time is logged as a warning; the diagnostics may quote the wrong
// lines.
func NewSourceLoader(verify bool, logger *slog.Logger) *SourceLoader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SourceLoader{verify: verify, logger: logger, cache: make(map[string]string)}
}

// Load returns the source text of module.
func (l *SourceLoader) Load(module *manifest.Module) (string, error) {
	if source, ok := l.cache[module.Path]; ok {
		return source, nil
	}

	data, err := os.ReadFile(module.Path)
	if err != nil {
		return "", fmt.Errorf("reading source of module %d: %w", module.ID, err)
	}

	if l.verify && !module.Fingerprint.IsZero() {
		if actual := manifest.FingerprintSource(data); actual != module.Fingerprint {
			l.logger.Warn("source changed since compilation",
				"module", module.ID,
				"path", module.Path,
				"compiled", module.Fingerprint.String(),
				"current", actual.String(),
			)
		}
	}

	source := string(data)
	l.cache[module.Path] = source
	return source, nil
}
