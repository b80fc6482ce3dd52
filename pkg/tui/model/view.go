package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/TylerBrock/colorjson"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/modoterra/colacup/pkg/core"
	"github.com/modoterra/colacup/pkg/details"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	flagError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	flagWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	flagInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	flagDebug   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	flagSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(lipgloss.Color("205"))

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// icons resolves the processor's opaque icon keys to terminal glyphs.
var icons = map[string]string{
	details.IconModule:   "◈",
	details.IconFile:     "▤",
	details.IconLine:     "#",
	details.IconFunction: "ƒ",
}

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	// Editor overlay
	if a.mode == ModeFilter && a.editor != nil {
		editorView := a.editor.View(a.width - 4)
		return paneStyle.Width(a.width - 4).Height(a.height - 2).Render(editorView)
	}

	listW, detailW, mainH := a.layout()

	list := a.renderList(listW, mainH)
	listPane := a.paneBox(PaneList, a.listTitle(), list, listW, mainH)

	detailPane := a.paneBox(PaneDetail, a.detailTitle(), a.detail.View(), detailW, mainH)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
	return lipgloss.JoinVertical(lipgloss.Left, topRow, a.renderStatusBar())
}

// layout returns the inner widths of the two panes and their shared height.
func (a App) layout() (listW, detailW, mainH int) {
	statusBarH := 1 + lipgloss.Height(a.help.View(a.keys))
	mainH = max(a.height-statusBarH-2, 3)
	listW = max(a.width*2/5-2, 10)
	detailW = max(a.width-listW-8, 10)
	return listW, detailW, mainH
}

func (a App) paneBox(pane Pane, title, content string, w, h int) string {
	style := paneStyle
	if a.activePane == pane {
		style = activePaneStyle
	}
	return style.Width(w).Height(h).Render(
		titleStyle.Render(title) + "\n" + content,
	)
}

func (a App) listTitle() string {
	return fmt.Sprintf(" Records %d/%d ", len(a.visible), len(a.records))
}

func (a App) detailTitle() string {
	rec := a.selectedRecord()
	if rec == nil {
		return " Detail "
	}
	return " " + flagStyle(rec.Flag).Render(details.Title(*rec)) + " "
}

func (a App) renderList(w, h int) string {
	if len(a.visible) == 0 {
		return dimStyle.Render("no records")
	}

	var b strings.Builder
	maxVisible := h - 2
	if a.mode == ModeSearch {
		maxVisible -= 2
	}
	maxVisible = max(maxVisible, 1)
	start := 0
	if a.selectedIdx >= maxVisible {
		start = a.selectedIdx - maxVisible + 1
	}

	for i := start; i < len(a.visible) && i-start < maxVisible; i++ {
		rec := a.visible[i]
		flag := fmt.Sprintf("%-7s", truncate(rec.Flag, 7))
		text := truncate(firstLine(rec.Content), max(w-9, 1))
		line := " " + flag + " " + text

		if i == a.selectedIdx {
			line = selectedStyle.Width(w).Render(line)
		} else {
			line = " " + flagStyle(rec.Flag).Render(flag) + " " + text
		}
		b.WriteString(line + "\n")
	}

	if a.mode == ModeSearch {
		b.WriteString("\n" + a.search.View())
	}

	return b.String()
}

func (a App) renderStatusBar() string {
	left := a.statusMsg
	if left == "" {
		left = a.filter.Summary()
	}
	if a.mode == ModeSearch {
		left = "enter:apply esc:clear"
	}

	a.help.Width = a.width
	right := a.help.View(a.keys)
	if a.help.ShowAll {
		return helpStyle.Render(left) + "\n" + right
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return helpStyle.Render(left+strings.Repeat(" ", gap)) + right
}

// RenderDetails formats the sections of a record for a terminal of the given
// width (0 disables wrapping). JSON sections are pretty-printed, coloured
// when color is set, and shown verbatim when they do not parse.
func RenderDetails(d details.Details, width int, color bool) string {
	var b strings.Builder
	wrap := lipgloss.NewStyle()
	if width > 0 {
		wrap = wrap.Width(width)
	}

	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if s.Title != "" {
			b.WriteString(sectionStyle.Render(s.Title) + "\n")
		}

		switch {
		case s.Kind == core.SectionJSON:
			b.WriteString(renderJSON(s.Value, color) + "\n")
		case len(s.Items) > 0:
			for _, it := range s.Items {
				icon := icons[it.Icon]
				if icon == "" {
					icon = "•"
				}
				b.WriteString(wrap.Render(fmt.Sprintf("%s %s %s", icon, labelStyle.Render(it.Label+":"), it.Value)) + "\n")
			}
		default:
			b.WriteString(wrap.Render(s.Value) + "\n")
		}
	}

	if !d.Shareable {
		b.WriteString("\n" + errorStyle.Render("share unavailable") + "\n")
	}
	return b.String()
}

// renderJSON pretty-prints a JSON section. Number literals and, on the plain
// path, key order are kept exactly as written.
func renderJSON(raw string, color bool) string {
	if color {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var obj any
		if err := dec.Decode(&obj); err == nil {
			if _, err := dec.Token(); err == io.EOF {
				f := colorjson.NewFormatter()
				f.Indent = 2
				if out, err := f.Marshal(obj); err == nil {
					return string(out)
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}

func flagStyle(flag string) lipgloss.Style {
	switch core.ParseFlag(flag) {
	case core.FlagError:
		return flagError
	case core.FlagWarning:
		return flagWarning
	case core.FlagInfo:
		return flagInfo
	case core.FlagDebug:
		return flagDebug
	case core.FlagSuccess:
		return flagSuccess
	default:
		return dimStyle
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

func truncate(s string, maxLen int) string {
	return ansi.Truncate(s, maxLen, "...")
}
