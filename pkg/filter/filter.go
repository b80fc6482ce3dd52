// Package filter holds the user's current filter criteria for the record list.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/modoterra/colacup/pkg/core"
)

// All is the sentinel selection value meaning "no restriction".
const All = "all"

// ErrTimeRange is returned when a time range starts after it ends.
var ErrTimeRange = errors.New("time range error")

// Sort is the display order of records.
type Sort string

const (
	SortOldestFirst Sort = "oldest-first"
	SortNewestFirst Sort = "newest-first"
)

// ParseSort accepts the manifest/CLI spelling of a sort order.
func ParseSort(s string) (Sort, error) {
	switch Sort(s) {
	case "", SortOldestFirst:
		return SortOldestFirst, nil
	case SortNewestFirst:
		return SortNewestFirst, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want %s or %s)", s, SortOldestFirst, SortNewestFirst)
	}
}

// Toggle returns the opposite order.
func (s Sort) Toggle() Sort {
	if s == SortNewestFirst {
		return SortOldestFirst
	}
	return SortNewestFirst
}

// TimeRange bounds records by their machine timestamp. A zero bound is open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Validate reports ErrTimeRange when both bounds are set and Start is after End.
func (r TimeRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End) {
		return ErrTimeRange
	}
	return nil
}

// Contains reports whether t lies within the range. Unknown (zero) times
// always pass so records without a timestamp are never hidden.
func (r TimeRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both ends.
func (r TimeRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Selection is one selectable value of a flag or module list.
type Selection struct {
	Value    string
	Selected bool
}

// Model is the complete set of filter criteria.
type Model struct {
	Sort      Sort
	TimeRange TimeRange
	Flags     []Selection
	Modules   []Selection
	Keyword   string
}

// NewModel builds a model offering every distinct flag and module seen in
// records, in first-seen order, with "all" selected.
func NewModel(records []core.LogRecord) Model {
	m := Model{
		Sort:    SortOldestFirst,
		Flags:   []Selection{{Value: All, Selected: true}},
		Modules: []Selection{{Value: All, Selected: true}},
	}
	m.Observe(records...)
	return m
}

// Observe adds flags and modules from newly arrived records without
// changing the current selection.
func (m *Model) Observe(records ...core.LogRecord) {
	for _, rec := range records {
		m.Flags = addValue(m.Flags, rec.Flag)
		m.Modules = addValue(m.Modules, rec.Module)
	}
}

func addValue(list []Selection, v string) []Selection {
	if v == "" || v == All {
		return list
	}
	for _, s := range list {
		if s.Value == v {
			return list
		}
	}
	// New values stay unselected unless "all" is active, which covers them.
	return append(list, Selection{Value: v})
}

// SelectFlag toggles a flag. See toggle for the "all" rules.
func (m *Model) SelectFlag(v string) {
	m.Flags = toggle(m.Flags, v)
}

// SelectModule toggles a module.
func (m *Model) SelectModule(v string) {
	m.Modules = toggle(m.Modules, v)
}

// SetFlags selects exactly vs; an empty list selects "all".
func (m *Model) SetFlags(vs []string) {
	m.Flags = setOnly(m.Flags, vs)
}

// SetModules selects exactly vs; an empty list selects "all".
func (m *Model) SetModules(vs []string) {
	m.Modules = setOnly(m.Modules, vs)
}

// toggle applies the selection rules: choosing "all" clears every concrete
// value, choosing a concrete value clears "all", and deselecting the last
// concrete value falls back to "all".
func toggle(list []Selection, v string) []Selection {
	out := slices.Clone(list)
	if v == All {
		for i := range out {
			out[i].Selected = out[i].Value == All
		}
		return out
	}

	idx := slices.IndexFunc(out, func(s Selection) bool { return s.Value == v })
	if idx < 0 {
		out = append(out, Selection{Value: v})
		idx = len(out) - 1
	}
	out[idx].Selected = !out[idx].Selected

	picked := false
	for i := range out {
		if out[i].Value == All {
			continue
		}
		picked = picked || out[i].Selected
	}
	for i := range out {
		if out[i].Value == All {
			out[i].Selected = !picked
		}
	}
	return out
}

func setOnly(list []Selection, vs []string) []Selection {
	out := toggle(list, All)
	for _, v := range vs {
		v = strings.TrimSpace(v)
		if v == "" || v == All {
			continue
		}
		idx := slices.IndexFunc(out, func(s Selection) bool { return s.Value == v })
		if idx >= 0 && out[idx].Selected {
			continue
		}
		out = toggle(out, v)
	}
	return out
}

// selected returns the chosen concrete values, or nil when "all" is active.
func selected(list []Selection) []string {
	var vals []string
	for _, s := range list {
		if s.Value == All && s.Selected {
			return nil
		}
		if s.Selected {
			vals = append(vals, s.Value)
		}
	}
	return vals
}

// SelectedFlags returns the chosen flags, or nil for "all".
func (m Model) SelectedFlags() []string { return selected(m.Flags) }

// SelectedModules returns the chosen modules, or nil for "all".
func (m Model) SelectedModules() []string { return selected(m.Modules) }

// Match reports whether rec passes every criterion.
func (m Model) Match(rec core.LogRecord) bool {
	if flags := m.SelectedFlags(); flags != nil && !slices.Contains(flags, rec.Flag) {
		return false
	}
	if modules := m.SelectedModules(); modules != nil && !slices.Contains(modules, rec.Module) {
		return false
	}
	if !m.TimeRange.Contains(rec.Time) {
		return false
	}

	q := strings.ToLower(strings.TrimSpace(m.Keyword))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(rec.Content), q) ||
		strings.Contains(strings.ToLower(rec.File), q) ||
		strings.Contains(strings.ToLower(rec.Function), q) ||
		strings.Contains(strings.ToLower(rec.Module), q)
}

// Apply returns the matching records in the model's sort order. The input
// slice is left untouched.
func (m Model) Apply(records []core.LogRecord) []core.LogRecord {
	out := make([]core.LogRecord, 0, len(records))
	for _, rec := range records {
		if m.Match(rec) {
			out = append(out, rec)
		}
	}
	if m.Sort == SortNewestFirst {
		slices.Reverse(out)
	}
	return out
}

// Equal reports whether two models describe the same criteria.
func (m Model) Equal(o Model) bool {
	return m.Sort == o.Sort &&
		m.TimeRange.Start.Equal(o.TimeRange.Start) &&
		m.TimeRange.End.Equal(o.TimeRange.End) &&
		m.Keyword == o.Keyword &&
		slices.Equal(m.Flags, o.Flags) &&
		slices.Equal(m.Modules, o.Modules)
}

// Summary is a one-line description for status bars.
func (m Model) Summary() string {
	var parts []string
	if flags := m.SelectedFlags(); flags != nil {
		parts = append(parts, "flags="+strings.Join(flags, ","))
	}
	if modules := m.SelectedModules(); modules != nil {
		parts = append(parts, "modules="+strings.Join(modules, ","))
	}
	if !m.TimeRange.IsZero() {
		parts = append(parts, "time="+formatBound(m.TimeRange.Start)+".."+formatBound(m.TimeRange.End))
	}
	if m.Keyword != "" {
		parts = append(parts, fmt.Sprintf("q=%q", m.Keyword))
	}
	parts = append(parts, string(m.Sort))
	return strings.Join(parts, " ")
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}

// TimeLayout is the editable form of a time range bound.
const TimeLayout = "2006-01-02 15:04"

// ParseBound parses a time range bound typed by the user; empty means open.
func ParseBound(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(TimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: want %s", s, TimeLayout)
	}
	return t, nil
}
