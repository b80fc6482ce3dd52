package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/modoterra/colacup/internal/buildinfo"
	"github.com/modoterra/colacup/pkg/core"
	"github.com/modoterra/colacup/pkg/details"
	"github.com/modoterra/colacup/pkg/manifest"
	"github.com/modoterra/colacup/pkg/manifest/presets"
	tuimodel "github.com/modoterra/colacup/pkg/tui/model"
)

const defaultManifest = "colacup.yaml"

var (
	manifestPath string
	files        []string
	follow       bool
	logFile      string
	noColor      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "colacup",
	Short:        "Terminal viewer for captured application logs",
	Long:         "Colacup opens JSON Lines log captures and journald units in a TUI with a detail view and one-key sharing.",
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if noColor {
			color.NoColor = true
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "", "path to colacup.yaml (default ./colacup.yaml when present)")
	rootCmd.Flags().StringArrayVarP(&files, "file", "f", nil, "JSONL or JSON array log file (repeatable, globs allowed)")
	rootCmd.Flags().BoolVar(&follow, "follow", false, "keep tailing --file sources")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write diagnostics to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colour output")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(shareCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(manifestCmd)
}

// --- Root: TUI ---

func runTUI(cmd *cobra.Command, _ []string) error {
	logger, closeLog, err := tuiLogger(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	m, err := loadManifest(manifestPath, manifestPath != "")
	if err != nil {
		return err
	}

	var specs map[string]manifest.Source
	if len(files) > 0 {
		specs = map[string]manifest.Source{
			"files": {Kind: manifest.KindJSONL, Files: files, Follow: follow},
		}
	} else if m != nil {
		specs = m.Sources
	} else {
		return errors.New("no log sources: pass --file or create colacup.yaml (colacup manifest init)")
	}

	records, sources, err := openSources(specs, logger)
	if err != nil {
		return err
	}
	logger.Info("records loaded", "records", len(records), "live", len(sources))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	f := manifest.DefaultFilter(m, records, time.Now())
	logger.Info("initial filter", "filter", f.Summary())
	share, flush := shareFunc(manifest.ShareTarget(m), cmd.OutOrStdout())

	app := tuimodel.New(tuimodel.Config{
		Records:   records,
		Sources:   sources,
		Filter:    &f,
		Share:     share,
		ColorJSON: !noColor,
		Logger:    logger,
		Context:   ctx,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	flush()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// tuiLogger keeps diagnostics off the alternate screen.
func tuiLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, nil)), func() { f.Close() }, nil
}

func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// --- Show ---

var (
	showIndex int
	showJSON  bool
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the detail sections of one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recordAt(args[0], showIndex)
		if err != nil {
			return err
		}

		d := details.Build(rec)
		out := cmd.OutOrStdout()
		if showJSON {
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Title    string               `json:"title"`
				Sections []core.DetailSection `json:"sections"`
			}{d.Title, d.Sections})
		}

		flagColor(d.Title).Fprintf(out, "[%s]\n\n", d.Title)
		fmt.Fprint(out, tuimodel.RenderDetails(d, 0, false))
		return nil
	},
}

func init() {
	showCmd.Flags().IntVarP(&showIndex, "index", "i", 0, "zero-based record index")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output sections as JSON")
}

func flagColor(flag string) *color.Color {
	switch core.ParseFlag(flag) {
	case core.FlagError:
		return color.New(color.FgRed, color.Bold)
	case core.FlagWarning:
		return color.New(color.FgYellow, color.Bold)
	case core.FlagSuccess:
		return color.New(color.FgGreen, color.Bold)
	case core.FlagDebug:
		return color.New(color.FgHiBlack, color.Bold)
	default:
		return color.New(color.FgCyan, color.Bold)
	}
}

// --- Share ---

var shareIndex int

var shareCmd = &cobra.Command{
	Use:   "share <file>",
	Short: "Print the shareable JSON of one record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recordAt(args[0], shareIndex)
		if err != nil {
			return err
		}
		text, ok := details.ShareableJSON(rec)
		if !ok {
			return fmt.Errorf("record %d cannot be shared", shareIndex)
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	shareCmd.Flags().IntVarP(&shareIndex, "index", "i", 0, "zero-based record index")
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "colacup %s (%s) built %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

// --- Manifest ---

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage colacup.yaml manifest",
}

var manifestInitCmd = &cobra.Command{
	Use:   "init [preset]",
	Short: "Generate a colacup.yaml manifest",
	Long:  "Available presets: laravel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset := args[0]
		switch preset {
		case "laravel":
			m, err := presets.GenerateLaravel(manifestInitRoot)
			if err != nil {
				return err
			}
			path := manifestInitOutput
			if err := manifest.Save(m, path); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %s with %d sources\n", path, len(m.Sources))
			for name, src := range m.Sources {
				fmt.Fprintf(out, "  %s (%s)\n", name, src.Kind)
			}
			return nil
		default:
			return fmt.Errorf("unknown preset: %s (available: laravel)", preset)
		}
	},
}

var (
	manifestInitRoot   string
	manifestInitOutput string
)

func init() {
	manifestInitCmd.Flags().StringVar(&manifestInitRoot, "root", ".", "project root directory")
	manifestInitCmd.Flags().StringVar(&manifestInitOutput, "output", defaultManifest, "output file path")
	manifestCmd.AddCommand(manifestInitCmd)
	manifestCmd.AddCommand(manifestValidateCmd)
}

var manifestValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a colacup.yaml manifest",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultManifest
		if len(args) > 0 {
			path = args[0]
		}

		m, err := manifest.Load(path)
		if err != nil {
			return err
		}

		errs := manifest.Validate(m)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d sources)\n", path, len(m.Sources))
			return nil
		}

		w := cmd.ErrOrStderr()
		fmt.Fprintf(w, "%s: %d error(s)\n", path, len(errs))
		for _, e := range errs {
			fmt.Fprintf(w, "  • %s\n", e)
		}
		return fmt.Errorf("%s: invalid manifest", path)
	},
}
