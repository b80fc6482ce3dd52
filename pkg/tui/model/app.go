package model

import (
	"context"
	"io"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/modoterra/colacup/pkg/core"
	"github.com/modoterra/colacup/pkg/details"
	"github.com/modoterra/colacup/pkg/filter"
)

// maxRecords bounds the in-memory history when sources keep streaming.
const maxRecords = 5000

// Pane identifies which TUI pane is focused.
type Pane int

const (
	PaneList Pane = iota
	PaneDetail
)

// Mode identifies the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeFilter
)

// Config carries everything the app needs at start-up.
type Config struct {
	Records []core.LogRecord
	Sources []core.Source

	// Filter is the initial filter; nil means everything is shown.
	Filter *filter.Model

	// Share receives the text of the share and copy actions. Defaults to
	// the system clipboard.
	Share func(string) error

	// ColorJSON enables syntax colouring of JSON sections.
	ColorJSON bool

	Logger  *slog.Logger
	Context context.Context
}

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	sources []core.Source
	share   func(string) error
	logger  *slog.Logger

	// State
	records     []core.LogRecord
	visible     []core.LogRecord
	filter      filter.Model
	selectedIdx int

	// UI
	activePane Pane
	mode       Mode
	search     textinput.Model
	detail     viewport.Model
	help       help.Model
	keys       keyMap
	colorJSON  bool
	width      int
	height     int

	// Editor
	editor *EditorModel

	statusMsg string
}

// New creates a new TUI app model.
func New(cfg Config) App {
	si := textinput.New()
	si.Placeholder = "search..."
	si.CharLimit = 64

	a := App{
		ctx:        cfg.Context,
		sources:    cfg.Sources,
		share:      cfg.Share,
		logger:     cfg.Logger,
		records:    cfg.Records,
		search:     si,
		detail:     viewport.New(0, 0),
		help:       help.New(),
		keys:       defaultKeyMap(),
		colorJSON:  cfg.ColorJSON,
		activePane: PaneList,
		mode:       ModeNormal,
	}
	if a.ctx == nil {
		a.ctx = context.Background()
	}
	if a.share == nil {
		a.share = clipboard.WriteAll
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if len(a.records) > maxRecords {
		a.records = a.records[len(a.records)-maxRecords:]
	}

	if cfg.Filter != nil {
		a.filter = *cfg.Filter
		a.filter.Observe(a.records...)
	} else {
		a.filter = filter.NewModel(a.records)
	}
	a.refresh()
	return a
}

// Init subscribes to the live sources.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.SetWindowTitle("colacup")}
	for _, src := range a.sources {
		cmds = append(cmds, subscribeCmd(a.ctx, src))
	}
	return tea.Batch(cmds...)
}

// subscribedMsg carries a live record channel.
type subscribedMsg struct {
	name string
	ch   <-chan core.LogRecord
}

// recordMsg carries one live record and the channel to keep listening on.
type recordMsg struct {
	name string
	rec  core.LogRecord
	ch   <-chan core.LogRecord
}

// sourceClosedMsg indicates a source stopped delivering.
type sourceClosedMsg struct{ name string }

// errorMsg carries an error to display.
type errorMsg struct{ err error }

// shareResultMsg carries the outcome of a share or copy action.
type shareResultMsg struct {
	what string
	err  error
}

func subscribeCmd(ctx context.Context, src core.Source) tea.Cmd {
	return func() tea.Msg {
		ch, err := src.Subscribe(ctx)
		if err != nil {
			return errorMsg{err}
		}
		return subscribedMsg{name: src.Name(), ch: ch}
	}
}

func listenCmd(name string, ch <-chan core.LogRecord) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-ch
		if !ok {
			return sourceClosedMsg{name}
		}
		return recordMsg{name: name, rec: rec, ch: ch}
	}
}

func shareCmd(share func(string) error, what, text string) tea.Cmd {
	return func() tea.Msg {
		return shareResultMsg{what: what, err: share(text)}
	}
}

// Update handles messages.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case subscribedMsg:
		a.logger.Info("source subscribed", "source", msg.name)
		return a, listenCmd(msg.name, msg.ch)

	case recordMsg:
		a.appendRecord(msg.rec)
		return a, listenCmd(msg.name, msg.ch)

	case sourceClosedMsg:
		a.logger.Info("source closed", "source", msg.name)
		a.statusMsg = msg.name + " closed"
		return a, nil

	case shareResultMsg:
		if msg.err != nil {
			a.logger.Warn("share failed", "what", msg.what, "err", msg.err)
			a.statusMsg = "share failed: " + msg.err.Error()
		} else {
			a.statusMsg = msg.what + " copied"
		}
		return a, nil

	case errorMsg:
		a.logger.Error("source error", "err", msg.err)
		a.statusMsg = "error: " + msg.err.Error()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search mode
	if a.mode == ModeSearch {
		switch msg.String() {
		case "esc":
			a.mode = ModeNormal
			a.search.SetValue("")
			a.search.Blur()
			a.filter.Keyword = ""
			a.refresh()
			return a, nil
		case "enter":
			a.mode = ModeNormal
			a.search.Blur()
			return a, nil
		default:
			var cmd tea.Cmd
			a.search, cmd = a.search.Update(msg)
			a.filter.Keyword = a.search.Value()
			a.refresh()
			return a, cmd
		}
	}

	// Filter editor mode
	if a.mode == ModeFilter && a.editor != nil {
		return a.editor.HandleKey(a, msg)
	}

	// Normal mode
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.resize()

	case key.Matches(msg, a.keys.Pane):
		a.activePane = (a.activePane + 1) % 2

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		a.search.SetValue(a.filter.Keyword)
		return a, a.search.Focus()

	case key.Matches(msg, a.keys.Filter):
		a.editor = NewFilterEditor(a.filter)
		a.mode = ModeFilter
		return a, textinput.Blink

	case key.Matches(msg, a.keys.Sort):
		a.filter.Sort = a.filter.Sort.Toggle()
		a.refresh()
		a.statusMsg = "sort: " + string(a.filter.Sort)

	case key.Matches(msg, a.keys.Share):
		rec := a.selectedRecord()
		if rec == nil {
			return a, nil
		}
		text, ok := details.ShareableJSON(*rec)
		if !ok {
			a.statusMsg = "share unavailable for this record"
			return a, nil
		}
		return a, shareCmd(a.share, "record", text)

	case key.Matches(msg, a.keys.CopyJSON):
		rec := a.selectedRecord()
		if rec == nil {
			return a, nil
		}
		payload, ok := details.ExtractJSON(rec.Content)
		if !ok {
			a.statusMsg = "no JSON in this record"
			return a, nil
		}
		return a, shareCmd(a.share, "JSON", payload)

	case a.activePane == PaneDetail:
		var cmd tea.Cmd
		a.detail, cmd = a.detail.Update(msg)
		return a, cmd

	case key.Matches(msg, a.keys.Down):
		a.selectIndex(a.selectedIdx + 1)
	case key.Matches(msg, a.keys.Up):
		a.selectIndex(a.selectedIdx - 1)
	case key.Matches(msg, a.keys.Top):
		a.selectIndex(0)
	case key.Matches(msg, a.keys.Bottom):
		a.selectIndex(len(a.visible) - 1)
	}

	return a, nil
}

// applyFilter replaces the filter and re-renders.
func (a *App) applyFilter(f filter.Model) {
	a.filter = f
	a.search.SetValue(f.Keyword)
	a.selectedIdx = 0
	a.refresh()
	a.statusMsg = "filter: " + f.Summary()
}

func (a *App) appendRecord(rec core.LogRecord) {
	a.records = append(a.records, rec)
	var dropped []core.LogRecord
	if n := len(a.records) - maxRecords; n > 0 {
		dropped = a.records[:n]
		a.records = a.records[n:]
	}
	a.filter.Observe(rec)

	hadSelection := a.selectedRecord() != nil
	a.visible = a.filter.Apply(a.records)

	// Keep the same record selected while the list grows at one end and
	// loses its oldest entries at the other.
	switch a.filter.Sort {
	case filter.SortNewestFirst:
		if hadSelection && a.filter.Match(rec) {
			a.selectedIdx++
		}
	default:
		for _, d := range dropped {
			if a.filter.Match(d) {
				a.selectedIdx--
			}
		}
	}
	a.clampSelection()
	a.renderDetail(false)
}

func (a *App) selectIndex(i int) {
	prev := a.selectedIdx
	a.selectedIdx = i
	a.clampSelection()
	if a.selectedIdx != prev {
		a.renderDetail(true)
	}
}

func (a *App) clampSelection() {
	if a.selectedIdx >= len(a.visible) {
		a.selectedIdx = len(a.visible) - 1
	}
	if a.selectedIdx < 0 {
		a.selectedIdx = 0
	}
}

// refresh recomputes the visible records and the detail pane.
func (a *App) refresh() {
	a.visible = a.filter.Apply(a.records)
	a.clampSelection()
	a.renderDetail(true)
}

func (a *App) renderDetail(top bool) {
	rec := a.selectedRecord()
	if rec == nil {
		a.detail.SetContent(dimStyle.Render("no records match the filter"))
		return
	}
	a.detail.SetContent(RenderDetails(details.Build(*rec), a.detail.Width, a.colorJSON))
	if top {
		a.detail.GotoTop()
	}
}

func (a *App) resize() {
	_, detailW, mainH := a.layout()
	a.detail.Width = detailW
	a.detail.Height = max(mainH-1, 1)
	a.renderDetail(false)
}

func (a App) selectedRecord() *core.LogRecord {
	if a.selectedIdx >= 0 && a.selectedIdx < len(a.visible) {
		return &a.visible[a.selectedIdx]
	}
	return nil
}

// Visible returns the records currently passing the filter, in display order.
func (a App) Visible() []core.LogRecord { return a.visible }

// Filter returns the active filter.
func (a App) Filter() filter.Model { return a.filter }
