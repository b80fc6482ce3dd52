package model

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/colacup/pkg/filter"
)

const (
	fieldFlags = iota
	fieldModules
	fieldStart
	fieldEnd
	fieldKeyword
)

// EditorField is a named text input in the editor form.
type EditorField struct {
	Label string
	Input textinput.Model
}

// EditorModel is the filter form. Changes only reach the app on confirm.
type EditorModel struct {
	base      filter.Model
	fields    []EditorField
	activeIdx int
	err       string
	loc       *time.Location
}

// NewFilterEditor creates an editor pre-filled from f.
func NewFilterEditor(f filter.Model) *EditorModel {
	fields := []EditorField{
		newField("flags", strings.Join(f.SelectedFlags(), ",")),
		newField("modules", strings.Join(f.SelectedModules(), ",")),
		newField("from", boundValue(f.TimeRange.Start)),
		newField("to", boundValue(f.TimeRange.End)),
		newField("keyword", f.Keyword),
	}
	fields[fieldFlags].Input.Placeholder = "all"
	fields[fieldModules].Input.Placeholder = "all"
	fields[fieldStart].Input.Placeholder = filter.TimeLayout
	fields[fieldEnd].Input.Placeholder = filter.TimeLayout

	fields[0].Input.Focus()
	return &EditorModel{base: f, fields: fields, loc: time.Local}
}

func newField(label, value string) EditorField {
	ti := textinput.New()
	ti.Placeholder = label
	ti.SetValue(value)
	ti.CharLimit = 256
	return EditorField{Label: label, Input: ti}
}

func boundValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(filter.TimeLayout)
}

// Result builds the filter described by the form.
func (e *EditorModel) Result() (filter.Model, error) {
	f := e.base
	f.SetFlags(splitList(e.fields[fieldFlags].Input.Value()))
	f.SetModules(splitList(e.fields[fieldModules].Input.Value()))

	start, err := filter.ParseBound(e.fields[fieldStart].Input.Value(), e.loc)
	if err != nil {
		return f, err
	}
	end, err := filter.ParseBound(e.fields[fieldEnd].Input.Value(), e.loc)
	if err != nil {
		return f, err
	}
	f.TimeRange = filter.TimeRange{Start: start, End: end}
	if err := f.TimeRange.Validate(); err != nil {
		return f, err
	}

	f.Keyword = strings.TrimSpace(e.fields[fieldKeyword].Input.Value())
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// HandleKey processes key events in editor mode.
func (e *EditorModel) HandleKey(a App, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = ModeNormal
		a.editor = nil
		return a, nil

	case "enter":
		f, err := e.Result()
		if err != nil {
			if errors.Is(err, filter.ErrTimeRange) {
				e.err = filter.ErrTimeRange.Error()
			} else {
				e.err = err.Error()
			}
			a.statusMsg = e.err
			return a, nil
		}
		a.mode = ModeNormal
		a.editor = nil
		a.applyFilter(f)
		return a, nil

	case "tab", "down":
		e.focus(e.activeIdx + 1)
		return a, textinput.Blink

	case "shift+tab", "up":
		e.focus(e.activeIdx - 1)
		return a, textinput.Blink

	default:
		var cmd tea.Cmd
		e.fields[e.activeIdx].Input, cmd = e.fields[e.activeIdx].Input.Update(msg)
		return a, cmd
	}
}

func (e *EditorModel) focus(i int) {
	e.fields[e.activeIdx].Input.Blur()
	e.activeIdx = (i + len(e.fields)) % len(e.fields)
	e.fields[e.activeIdx].Input.Focus()
}

// View renders the editor form.
func (e *EditorModel) View(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Filter ") + "\n\n")
	for i, f := range e.fields {
		prefix := "  "
		if i == e.activeIdx {
			prefix = "▸ "
		}
		b.WriteString(prefix + dimStyle.Render(f.Label+": ") + f.Input.View() + "\n")
	}
	if e.err != "" {
		b.WriteString("\n  " + errorStyle.Render(truncate(e.err, max(width-4, 8))) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("  comma-separated flags and modules, empty means all"))
	b.WriteString("\n" + helpStyle.Render("  tab:next  shift+tab:prev  enter:apply  esc:cancel"))
	return b.String()
}
