package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/modoterra/colacup/pkg/core"
)

const defaultPollInterval = 250 * time.Millisecond

// Tailer follows a JSON Lines file and emits records appended after Subscribe.
type Tailer struct {
	path         string
	logger       *slog.Logger
	pollInterval time.Duration
}

// NewTailer creates a tailer for the file at path.
func NewTailer(path string, logger *slog.Logger) *Tailer {
	return &Tailer{
		path:         path,
		logger:       logger,
		pollInterval: defaultPollInterval,
	}
}

// Name implements core.Source.
func (t *Tailer) Name() string { return "jsonl:" + t.path }

// Subscribe starts tailing from the current end of the file.
func (t *Tailer) Subscribe(ctx context.Context) (<-chan core.LogRecord, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.path, err)
	}

	// Seek to end
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s: %w", t.path, err)
	}

	ch := make(chan core.LogRecord, 100)

	go func() {
		defer f.Close()
		defer close(ch)

		reader := bufio.NewReader(f)
		var pending strings.Builder
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			chunk, err := reader.ReadString('\n')
			pending.WriteString(chunk)
			if err != nil {
				// No complete line yet — poll
				select {
				case <-ctx.Done():
					return
				case <-time.After(t.pollInterval):
				}
				// Check for truncation (file rotation)
				info, serr := f.Stat()
				if serr != nil {
					continue
				}
				pos, _ := f.Seek(0, io.SeekCurrent)
				if info.Size() < pos {
					t.logger.Info("file truncated, rewinding", "path", t.path)
					f.Seek(0, io.SeekStart)
					reader.Reset(f)
					pending.Reset()
				}
				continue
			}

			line := strings.TrimSpace(pending.String())
			pending.Reset()
			if line == "" {
				continue
			}
			rec, perr := ParseLine(line)
			if perr != nil {
				t.logger.Warn("skipping malformed line", "path", t.path, "err", perr)
				continue
			}
			select {
			case ch <- rec:
			default:
				t.logger.Debug("record dropped, subscriber is slow", "path", t.path)
			}
		}
	}()

	t.logger.Info("tailing file", "path", t.path)
	return ch, nil
}
