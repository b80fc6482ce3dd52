// Package details turns a single log record into the sectioned structure shown
// by the detail view, and into the text offered by the share action.
package details

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/modoterra/colacup/pkg/core"
)

// JSONPlaceholder replaces an extracted payload inside the Content section.
const JSONPlaceholder = "{ JSON at the bottom }"

// Section titles.
const (
	TitleContent  = "Content"
	TitleTime     = "Time"
	TitlePosition = "Position"
	TitleJSON     = "JSON"
)

// Icon keys handed to the renderer.
const (
	IconModule   = "module-cube"
	IconFile     = "document"
	IconLine     = "number"
	IconFunction = "function"
)

// jsonPattern spans from the first opening bracket that has a closing partner
// to the last closing bracket of the same type. Unrelated fragments in
// between are swallowed; callers rely on that span, so keep it greedy.
var jsonPattern = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

// Details is everything the detail view needs for one record.
type Details struct {
	Title    string
	Sections []core.DetailSection

	// Shared is the human-readable export of the record. Shareable is false
	// when it could not be produced and the share action must be disabled.
	Shared    string
	Shareable bool
}

// Build assembles the full detail view for rec.
func Build(rec core.LogRecord) Details {
	shared, ok := ShareableJSON(rec)
	return Details{
		Title:     Title(rec),
		Sections:  Sections(rec),
		Shared:    shared,
		Shareable: ok,
	}
}

// Title is the detail view title: the record's flag.
func Title(rec core.LogRecord) string {
	return rec.Flag
}

// Sections builds the ordered sections for rec: Content, Time, Position, the
// untitled Function section and, when the content embeds JSON, a trailing
// JSON section. The matched payload is replaced by JSONPlaceholder in Content.
func Sections(rec core.LogRecord) []core.DetailSection {
	content := strings.TrimSpace(rec.Content)

	payload, found := ExtractJSON(content)
	if found {
		content = strings.Replace(content, payload, JSONPlaceholder, 1)
	}

	sections := make([]core.DetailSection, 0, 5)
	sections = append(sections,
		core.DetailSection{Title: TitleContent, Kind: core.SectionPlainText, Value: content},
		core.DetailSection{Title: TitleTime, Kind: core.SectionPlainText, Value: rec.FormattedTime},
		core.DetailSection{Title: TitlePosition, Kind: core.SectionPlainText, Items: []core.DetailItem{
			{Kind: core.ItemPosition, Icon: IconModule, Label: "Module", Value: rec.Module},
			{Kind: core.ItemPosition, Icon: IconFile, Label: "File", Value: rec.File},
			{Kind: core.ItemPosition, Icon: IconLine, Label: "Line", Value: strconv.Itoa(rec.Line)},
		}},
		core.DetailSection{Kind: core.SectionPlainText, Items: []core.DetailItem{
			{Kind: core.ItemFunction, Icon: IconFunction, Label: "Function", Value: rec.Function},
		}},
	)

	if found {
		sections = append(sections, core.DetailSection{Title: TitleJSON, Kind: core.SectionJSON, Value: payload})
	}
	return sections
}

// ExtractJSON finds the first bracket-delimited span in text that looks like
// a JSON object or array. The result is the literal substring; it is not
// validated. ok is false when nothing matched.
func ExtractJSON(text string) (payload string, ok bool) {
	loc := jsonPattern.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}

// shared is the export layout. Field order is irrelevant because the encoder
// sorts map keys; a map keeps that ordering explicit.
func shared(rec core.LogRecord) map[string]any {
	return map[string]any{
		"content":    rec.Content,
		"file":       rec.File,
		"function":   rec.Function,
		"line":       rec.Line,
		"flag":       rec.Flag,
		"module":     rec.Module,
		"formatTime": rec.FormattedTime,
	}
}

// ShareableJSON renders rec as indented JSON for sharing. Keys are sorted
// alphabetically. Escaped newlines and quotes are unescaped afterwards so the
// text reads naturally; the result is not guaranteed to parse as JSON.
func ShareableJSON(rec core.LogRecord) (string, bool) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(shared(rec)); err != nil {
		return "", false
	}

	out := strings.TrimSuffix(buf.String(), "\n")
	out = strings.ReplaceAll(out, `\n`, "\n")
	out = strings.ReplaceAll(out, `\"`, `"`)
	return out, true
}
