package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/modoterra/colacup/pkg/core"
	"github.com/modoterra/colacup/pkg/manifest"
	"github.com/modoterra/colacup/pkg/sources/journald"
	"github.com/modoterra/colacup/pkg/sources/jsonl"
)

// loadManifest reads the manifest at path, or ./colacup.yaml when path is
// empty. A missing default manifest is not an error.
func loadManifest(path string, required bool) (*manifest.Manifest, error) {
	if path == "" {
		path = defaultManifest
	}
	m, err := manifest.Load(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if errs := manifest.Validate(m); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	return m, nil
}

// openSources loads the backlog of every file source and builds the live
// sources (followed files and journald units), in source-name order.
func openSources(specs map[string]manifest.Source, logger *slog.Logger) ([]core.LogRecord, []core.Source, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		records []core.LogRecord
		live    []core.Source
	)
	for _, name := range names {
		src := specs[name]
		switch src.Kind {
		case manifest.KindJSONL:
			paths, err := expand(src.Files)
			if err != nil {
				return nil, nil, fmt.Errorf("source %s: %w", name, err)
			}
			for _, path := range paths {
				recs, err := loadFile(path, logger)
				if err != nil {
					return nil, nil, fmt.Errorf("source %s: %w", name, err)
				}
				records = append(records, recs...)
				if src.Follow {
					live = append(live, jsonl.NewTailer(path, logger))
				}
			}
		case manifest.KindJournald:
			live = append(live, journald.New(src.Unit, src.Lines, logger))
		default:
			return nil, nil, fmt.Errorf("source %s: unknown kind %q", name, src.Kind)
		}
	}

	// Interleave files by timestamp; untimed records sort first.
	slices.SortStableFunc(records, func(a, b core.LogRecord) int {
		return a.Time.Compare(b.Time)
	})
	return records, live, nil
}

// expand resolves glob patterns, keeping literal paths that match nothing so
// the open error names them.
func expand(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		out = append(out, matches...)
	}
	return out, nil
}

func loadFile(path string, logger *slog.Logger) ([]core.LogRecord, error) {
	recs, lineErrs, err := jsonl.Load(path)
	if err != nil {
		return nil, err
	}
	for _, le := range lineErrs {
		logger.Warn("skipping malformed record", "file", path, "line", le.Line, "err", le.Err)
	}
	return recs, nil
}

// recordAt loads path and returns the record at the zero-based index.
func recordAt(path string, index int) (core.LogRecord, error) {
	recs, err := loadFile(path, cliLogger())
	if err != nil {
		return core.LogRecord{}, err
	}
	if index < 0 || index >= len(recs) {
		return core.LogRecord{}, fmt.Errorf("index %d out of range: %s has %d records", index, path, len(recs))
	}
	return recs[index], nil
}

// shareFunc returns the share action for target. The stdout target cannot
// write while the TUI owns the screen, so shares are buffered and written by
// flush once the program exits.
func shareFunc(target string, w io.Writer) (share func(string) error, flush func()) {
	if target != manifest.ShareStdout {
		return clipboard.WriteAll, func() {}
	}

	var (
		mu     sync.Mutex
		shared []string
	)
	share = func(text string) error {
		mu.Lock()
		defer mu.Unlock()
		shared = append(shared, text)
		return nil
	}
	flush = func() {
		mu.Lock()
		defer mu.Unlock()
		if len(shared) > 0 {
			fmt.Fprintln(w, strings.Join(shared, "\n"))
		}
	}
	return share, flush
}
