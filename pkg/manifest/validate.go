package manifest

import (
	"fmt"
	"time"

	"github.com/modoterra/colacup/pkg/filter"
)

// Validate checks the manifest for structural correctness.
func Validate(m *Manifest) []error {
	var errs []error

	if m.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", m.Version))
	}

	if len(m.Sources) == 0 {
		errs = append(errs, fmt.Errorf("manifest must define at least one source"))
	}

	for name, src := range m.Sources {
		switch src.Kind {
		case KindJSONL:
			if len(src.Files) == 0 {
				errs = append(errs, fmt.Errorf("source %q (jsonl): files is required", name))
			}
		case KindJournald:
			if src.Unit == "" {
				errs = append(errs, fmt.Errorf("source %q (journald): unit is required", name))
			}
			if src.Lines < 0 {
				errs = append(errs, fmt.Errorf("source %q (journald): lines must not be negative", name))
			}
		case "":
			errs = append(errs, fmt.Errorf("source %q: kind is required", name))
		default:
			errs = append(errs, fmt.Errorf("source %q: unknown kind %q", name, src.Kind))
		}
	}

	if _, err := filter.ParseSort(m.Defaults.Sort); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if m.Defaults.Since != "" {
		if d, err := time.ParseDuration(m.Defaults.Since); err != nil {
			errs = append(errs, fmt.Errorf("defaults: since %q is not a duration", m.Defaults.Since))
		} else if d <= 0 {
			errs = append(errs, fmt.Errorf("defaults: since must be positive, got %s", m.Defaults.Since))
		}
	}

	switch m.Share.Target {
	case "", ShareClipboard, ShareStdout:
	default:
		errs = append(errs, fmt.Errorf("share: target must be clipboard or stdout; got %q", m.Share.Target))
	}

	return errs
}
