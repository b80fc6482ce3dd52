package journald

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/modoterra/colacup/pkg/core"
)

const sampleEntry = `{"__REALTIME_TIMESTAMP":"1710000000123456","PRIORITY":"3","SYSLOG_IDENTIFIER":"nginx","_SYSTEMD_UNIT":"nginx.service","MESSAGE":"upstream timed out {\"upstream\":\"127.0.0.1:9000\"}","CODE_FILE":"src/http/ngx_http_upstream.c","CODE_LINE":"4412","CODE_FUNC":"ngx_http_upstream_next"}`

func TestParseEntry(t *testing.T) {
	rec, err := ParseEntry([]byte(sampleEntry))
	if err != nil {
		t.Fatal(err)
	}

	if rec.Content != `upstream timed out {"upstream":"127.0.0.1:9000"}` {
		t.Errorf("content: got %q", rec.Content)
	}
	if rec.Flag != "error" {
		t.Errorf("flag: got %q", rec.Flag)
	}
	if rec.Module != "nginx" {
		t.Errorf("module: got %q", rec.Module)
	}
	if rec.File != "src/http/ngx_http_upstream.c" || rec.Line != 4412 || rec.Function != "ngx_http_upstream_next" {
		t.Errorf("call site: got %+v", rec)
	}
	if !rec.Time.Equal(time.UnixMicro(1710000000123456)) {
		t.Errorf("time: got %v", rec.Time)
	}
	if rec.FormattedTime != core.FormatTime(rec.Time) {
		t.Errorf("formatted time: got %q", rec.FormattedTime)
	}
}

func TestParseEntryFallbacks(t *testing.T) {
	rec, err := ParseEntry([]byte(`{"_SYSTEMD_UNIT":"php8.3-fpm.service","MESSAGE":[104,105]}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Module != "php8.3-fpm" {
		t.Errorf("module: got %q", rec.Module)
	}
	if rec.Content != "hi" {
		t.Errorf("byte array message: got %q", rec.Content)
	}
	if rec.Flag != "info" {
		t.Errorf("missing priority should map to info, got %q", rec.Flag)
	}
	if !rec.Time.IsZero() || rec.FormattedTime != "" {
		t.Errorf("time should be unset: %+v", rec)
	}
}

func TestParseEntryErrors(t *testing.T) {
	for _, input := range []string{"", "{", `"string"`, `[1]`} {
		if _, err := ParseEntry([]byte(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestPriorityFlag(t *testing.T) {
	tests := []struct {
		priority string
		want     core.Flag
	}{
		{"0", core.FlagError},
		{"2", core.FlagError},
		{"3", core.FlagError},
		{"4", core.FlagWarning},
		{"5", core.FlagInfo},
		{"6", core.FlagInfo},
		{"7", core.FlagDebug},
		{"", core.FlagInfo},
		{"x", core.FlagInfo},
	}
	for _, tt := range tests {
		if got := PriorityFlag(tt.priority); got != tt.want {
			t.Errorf("PriorityFlag(%q): got %q, want %q", tt.priority, got, tt.want)
		}
	}
}

func TestSubscribeStreamsEntries(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "journal.json")
	data := sampleEntry + "\n" + "garbage\n" + `{"MESSAGE":"second","PRIORITY":"6"}` + "\n"
	if err := os.WriteFile(out, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New("nginx.service", 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var gotArgs []string
	p.command = func(ctx context.Context, args ...string) *exec.Cmd {
		gotArgs = args
		return exec.CommandContext(ctx, "cat", out)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ch, err := p.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var contents []string
	for rec := range ch {
		contents = append(contents, rec.Content)
	}
	want := []string{`upstream timed out {"upstream":"127.0.0.1:9000"}`, "second"}
	if !slices.Equal(contents, want) {
		t.Errorf("got %v, want %v", contents, want)
	}
	wantArgs := []string{"-f", "-o", "json", "-u", "nginx.service", "-n", "50"}
	if !slices.Equal(gotArgs, wantArgs) {
		t.Errorf("args: got %v, want %v", gotArgs, wantArgs)
	}
	if p.Name() != "journald:nginx.service" {
		t.Errorf("name: got %q", p.Name())
	}
}

func TestSubscribeStopsOnOversizedEntry(t *testing.T) {
	var logs bytes.Buffer
	p := New("nginx.service", 0, slog.New(slog.NewTextHandler(&logs, nil)))
	p.command = func(ctx context.Context, args ...string) *exec.Cmd {
		// A 2 MiB line, then a journalctl that never exits on its own.
		return exec.CommandContext(ctx, "sh", "-c", "head -c 2097152 /dev/zero | tr '\\0' a; echo; sleep 30")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ch, err := p.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	for range ch {
		t.Error("oversized entry should not be delivered")
	}
	if time.Since(start) > 20*time.Second {
		t.Errorf("source took %v to stop after a read error", time.Since(start))
	}
	if !strings.Contains(logs.String(), "journal read failed") {
		t.Errorf("read error not logged:\n%s", logs.String())
	}
}
