// Package journald streams captured records for one systemd unit from journalctl.
package journald

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/modoterra/colacup/pkg/core"
)

const defaultLines = 50

var parserPool fastjson.ParserPool

// Provider streams journal entries of a systemd unit as log records.
type Provider struct {
	unit   string
	lines  int
	logger *slog.Logger

	// command builds the journalctl invocation; replaced in tests.
	command func(ctx context.Context, args ...string) *exec.Cmd
}

// New creates a journald provider for unit, starting with a backlog of lines
// entries (0 selects the default).
func New(unit string, lines int, logger *slog.Logger) *Provider {
	if lines <= 0 {
		lines = defaultLines
	}
	return &Provider{
		unit:    unit,
		lines:   lines,
		logger:  logger,
		command: func(ctx context.Context, args ...string) *exec.Cmd { return exec.CommandContext(ctx, "journalctl", args...) },
	}
}

// Name implements core.Source.
func (p *Provider) Name() string { return "journald:" + p.unit }

// Subscribe starts following the journal for the unit.
func (p *Provider) Subscribe(ctx context.Context) (<-chan core.LogRecord, error) {
	ch := make(chan core.LogRecord, 100)

	cmd := p.command(ctx, "-f", "-o", "json", "-u", p.unit, "-n", strconv.Itoa(p.lines))
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("journalctl pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("journalctl start: %w", err)
	}

	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			rec, err := ParseEntry(scanner.Bytes())
			if err != nil {
				p.logger.Warn("skipping journal entry", "unit", p.unit, "err", err)
				continue
			}
			select {
			case ch <- rec:
			default:
			}
		}
		if err := scanner.Err(); err != nil {
			p.logger.Error("journal read failed", "unit", p.unit, "err", err)
			// journalctl would block on the undrained pipe.
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	}()

	p.logger.Info("subscribed to journal", "unit", p.unit)
	return ch, nil
}

// ParseEntry maps one line of `journalctl -o json` output onto a LogRecord.
func ParseEntry(data []byte) (core.LogRecord, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return core.LogRecord{}, fmt.Errorf("parse journal entry: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return core.LogRecord{}, fmt.Errorf("parse journal entry: expected object, got %s", v.Type())
	}

	rec := core.LogRecord{
		Content:  message(v.Get("MESSAGE")),
		File:     string(v.GetStringBytes("CODE_FILE")),
		Function: string(v.GetStringBytes("CODE_FUNC")),
		Flag:     string(PriorityFlag(string(v.GetStringBytes("PRIORITY")))),
		Module:   string(v.GetStringBytes("SYSLOG_IDENTIFIER")),
	}
	if rec.Module == "" {
		rec.Module = strings.TrimSuffix(string(v.GetStringBytes("_SYSTEMD_UNIT")), ".service")
	}
	rec.Line, _ = strconv.Atoi(string(v.GetStringBytes("CODE_LINE")))

	if us, err := strconv.ParseInt(string(v.GetStringBytes("__REALTIME_TIMESTAMP")), 10, 64); err == nil {
		rec.Time = time.UnixMicro(us)
		rec.FormattedTime = core.FormatTime(rec.Time)
	}
	return rec, nil
}

// message decodes MESSAGE, which journalctl emits as an array of bytes when
// the payload is not valid UTF-8.
func message(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeArray:
		arr, _ := v.Array()
		b := make([]byte, 0, len(arr))
		for _, x := range arr {
			b = append(b, byte(x.GetUint()))
		}
		return string(b)
	}
	return ""
}

// PriorityFlag maps a syslog priority (0-7) onto a flag.
func PriorityFlag(priority string) core.Flag {
	n, err := strconv.Atoi(priority)
	if err != nil {
		return core.FlagInfo
	}
	switch {
	case n <= 3:
		return core.FlagError
	case n == 4:
		return core.FlagWarning
	case n <= 6:
		return core.FlagInfo
	default:
		return core.FlagDebug
	}
}
