package filter

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/modoterra/colacup/pkg/core"
)

var base = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

func records() []core.LogRecord {
	return []core.LogRecord{
		{Content: "boot", Flag: "info", Module: "App", Time: base},
		{Content: "GET /users failed", Flag: "error", Module: "Network", Function: "fetchUsers()", Time: base.Add(time.Minute)},
		{Content: "cache miss", Flag: "debug", Module: "Cache", Time: base.Add(2 * time.Minute)},
		{Content: "retrying", Flag: "warning", Module: "Network", Time: base.Add(3 * time.Minute)},
		{Content: "no timestamp", Flag: "info", Module: "App"},
	}
}

func contents(recs []core.LogRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Content
	}
	return out
}

func TestNewModelCollectsValues(t *testing.T) {
	m := NewModel(records())

	wantFlags := []Selection{{All, true}, {"info", false}, {"error", false}, {"debug", false}, {"warning", false}}
	if !slices.Equal(m.Flags, wantFlags) {
		t.Errorf("flags:\n got %v\nwant %v", m.Flags, wantFlags)
	}
	wantModules := []Selection{{All, true}, {"App", false}, {"Network", false}, {"Cache", false}}
	if !slices.Equal(m.Modules, wantModules) {
		t.Errorf("modules:\n got %v\nwant %v", m.Modules, wantModules)
	}
	if m.Sort != SortOldestFirst {
		t.Errorf("sort: got %q", m.Sort)
	}
}

func TestApplyAllPassesEverything(t *testing.T) {
	recs := records()
	got := NewModel(recs).Apply(recs)
	if len(got) != len(recs) {
		t.Errorf("got %d records, want %d", len(got), len(recs))
	}
}

func TestSelectionRules(t *testing.T) {
	m := NewModel(records())

	m.SelectFlag("error")
	if got := m.SelectedFlags(); !slices.Equal(got, []string{"error"}) {
		t.Fatalf("after selecting error: got %v", got)
	}
	if m.Flags[0].Selected {
		t.Error("selecting a concrete flag should clear all")
	}

	m.SelectFlag("warning")
	if got := m.SelectedFlags(); !slices.Equal(got, []string{"error", "warning"}) {
		t.Fatalf("after selecting warning: got %v", got)
	}

	m.SelectFlag(All)
	if got := m.SelectedFlags(); got != nil {
		t.Fatalf("selecting all should clear concrete flags, got %v", got)
	}

	m.SelectFlag("debug")
	m.SelectFlag("debug")
	if !m.Flags[0].Selected {
		t.Error("deselecting the last concrete flag should fall back to all")
	}
}

func TestApplyFlagsAndModules(t *testing.T) {
	recs := records()
	m := NewModel(recs)
	m.SetFlags([]string{"error", "warning"})
	m.SetModules([]string{"Network"})

	got := contents(m.Apply(recs))
	want := []string{"GET /users failed", "retrying"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSetFlagsEmptyMeansAll(t *testing.T) {
	m := NewModel(records())
	m.SetFlags([]string{"error"})
	m.SetFlags(nil)
	if got := m.SelectedFlags(); got != nil {
		t.Errorf("got %v, want all", got)
	}
}

func TestSetFlagsUnknownValueIsAdded(t *testing.T) {
	m := NewModel(records())
	m.SetFlags([]string{"network"})
	if got := m.SelectedFlags(); !slices.Equal(got, []string{"network"}) {
		t.Errorf("got %v", got)
	}
}

func TestApplyTimeRange(t *testing.T) {
	recs := records()
	m := NewModel(recs)
	m.TimeRange = TimeRange{Start: base.Add(time.Minute), End: base.Add(2 * time.Minute)}

	got := contents(m.Apply(recs))
	want := []string{"GET /users failed", "cache miss", "no timestamp"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestApplyKeyword(t *testing.T) {
	recs := records()
	m := NewModel(recs)

	for _, tt := range []struct {
		q    string
		want []string
	}{
		{"users", []string{"GET /users failed"}},
		{"FETCHUSERS", []string{"GET /users failed"}},
		{"cache", []string{"cache miss"}},
		{"network", []string{"GET /users failed", "retrying"}},
		{"nothing-matches", []string{}},
	} {
		t.Run(tt.q, func(t *testing.T) {
			m.Keyword = tt.q
			got := contents(m.Apply(recs))
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyNewestFirstDoesNotMutateInput(t *testing.T) {
	recs := records()
	m := NewModel(recs)
	m.Sort = SortNewestFirst

	got := contents(m.Apply(recs))
	if got[0] != "no timestamp" || got[len(got)-1] != "boot" {
		t.Errorf("unexpected order: %v", got)
	}
	if recs[0].Content != "boot" {
		t.Error("input slice was reordered")
	}
}

func TestTimeRangeValidate(t *testing.T) {
	tests := []struct {
		name string
		r    TimeRange
		err  error
	}{
		{"open", TimeRange{}, nil},
		{"start only", TimeRange{Start: base}, nil},
		{"end only", TimeRange{End: base}, nil},
		{"equal", TimeRange{Start: base, End: base}, nil},
		{"ordered", TimeRange{Start: base, End: base.Add(time.Hour)}, nil},
		{"inverted", TimeRange{Start: base.Add(time.Hour), End: base}, ErrTimeRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.r.Validate(); !errors.Is(err, tt.err) {
				t.Errorf("got %v, want %v", err, tt.err)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    Sort
		wantErr bool
	}{
		{"", SortOldestFirst, false},
		{"oldest-first", SortOldestFirst, false},
		{"newest-first", SortNewestFirst, false},
		{"random", "", true},
	} {
		got, err := ParseSort(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSort(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSort(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
	if SortOldestFirst.Toggle() != SortNewestFirst || SortNewestFirst.Toggle() != SortOldestFirst {
		t.Error("toggle should flip the order")
	}
}

func TestParseBound(t *testing.T) {
	got, err := ParseBound("2024-03-09 12:30", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(base.Add(30 * time.Minute)) {
		t.Errorf("got %v", got)
	}

	if got, err := ParseBound("  ", time.UTC); err != nil || !got.IsZero() {
		t.Errorf("blank bound: got %v, %v", got, err)
	}
	if _, err := ParseBound("yesterday", time.UTC); err == nil {
		t.Error("expected error for unparseable bound")
	}
}

func TestEqualAndSummary(t *testing.T) {
	a := NewModel(records())
	b := NewModel(records())
	if !a.Equal(b) {
		t.Error("fresh models should be equal")
	}
	if a.Summary() != "oldest-first" {
		t.Errorf("summary: got %q", a.Summary())
	}

	b.SelectFlag("error")
	b.Keyword = "users"
	if a.Equal(b) {
		t.Error("models with different flags should differ")
	}
	if got := b.Summary(); got != `flags=error q="users" oldest-first` {
		t.Errorf("summary: got %q", got)
	}
}

func TestObserveKeepsSelection(t *testing.T) {
	m := NewModel(records())
	m.SelectFlag("error")
	m.Observe(core.LogRecord{Flag: "success", Module: "Auth"})

	if got := m.SelectedFlags(); !slices.Equal(got, []string{"error"}) {
		t.Errorf("selection changed: %v", got)
	}
	if m.Flags[len(m.Flags)-1].Value != "success" {
		t.Errorf("new flag not offered: %v", m.Flags)
	}
}
