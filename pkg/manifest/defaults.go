package manifest

import (
	"time"

	"github.com/modoterra/colacup/pkg/core"
	"github.com/modoterra/colacup/pkg/filter"
)

// DefaultFilter builds the initial filter for records from the manifest
// defaults. A nil manifest yields the unrestricted filter. now anchors the
// "since" window. Invalid defaults are ignored; Validate reports them.
func DefaultFilter(m *Manifest, records []core.LogRecord, now time.Time) filter.Model {
	f := filter.NewModel(records)
	if m == nil {
		return f
	}

	if s, err := filter.ParseSort(m.Defaults.Sort); err == nil {
		f.Sort = s
	}
	f.SetFlags(m.Defaults.Flags)
	f.SetModules(m.Defaults.Modules)

	if m.Defaults.Since != "" {
		if d, err := time.ParseDuration(m.Defaults.Since); err == nil && d > 0 {
			f.TimeRange.Start = now.Add(-d)
		}
	}
	return f
}

// ShareTarget returns the configured share target, defaulting to the clipboard.
func ShareTarget(m *Manifest) string {
	if m == nil || m.Share.Target == "" {
		return ShareClipboard
	}
	return m.Share.Target
}
