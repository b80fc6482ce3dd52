package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/modoterra/colacup/pkg/manifest"
)

// unitDirs are searched for systemd unit files.
var unitDirs = []string{
	"/etc/systemd/system",
	"/lib/systemd/system",
	"/usr/lib/systemd/system",
}

// GenerateLaravel creates a manifest for a Laravel project at the given root.
func GenerateLaravel(root string) (*manifest.Manifest, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	// Verify it's a Laravel project
	if _, err := os.Stat(filepath.Join(absRoot, "artisan")); err != nil {
		return nil, fmt.Errorf("%s does not appear to be a Laravel project (no artisan file)", absRoot)
	}

	m := &manifest.Manifest{
		Version:  1,
		Project:  filepath.Base(absRoot),
		Root:     absRoot,
		Sources:  make(map[string]manifest.Source),
		Defaults: manifest.Defaults{Sort: "newest-first", Since: "24h"},
		Share:    manifest.Share{Target: manifest.ShareClipboard},
	}

	// Structured channel logs (Monolog JsonFormatter) under storage/logs.
	logDir := filepath.Join(absRoot, "storage", "logs")
	matches, _ := filepath.Glob(filepath.Join(logDir, "*.jsonl"))
	sort.Strings(matches)
	files := make([]string, 0, len(matches))
	for _, p := range matches {
		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			continue
		}
		files = append(files, "${root}/"+filepath.ToSlash(rel))
	}
	if len(files) == 0 {
		files = []string{"${root}/storage/logs/laravel.jsonl"}
	}
	m.Sources["app"] = manifest.Source{
		Kind:   manifest.KindJSONL,
		Files:  files,
		Follow: true,
	}

	// Journald sources for services the app usually sits behind.
	journalSources := []struct {
		name  string
		units []string
	}{
		{"nginx", []string{"nginx.service"}},
		{"redis", []string{"redis.service", "redis-server.service"}},
		{"mysql", []string{"mysql.service", "mysqld.service", "mariadb.service"}},
	}

	for _, js := range journalSources {
		for _, unit := range js.units {
			if unitExists(unit) {
				m.Sources[js.name] = manifest.Source{Kind: manifest.KindJournald, Unit: unit}
				break
			}
		}
	}

	// PHP-FPM — auto-detect version
	for _, ver := range []string{"8.4", "8.3", "8.2", "8.1", "8.0", "7.4"} {
		unit := fmt.Sprintf("php%s-fpm.service", ver)
		if unitExists(unit) {
			m.Sources["php-fpm"] = manifest.Source{Kind: manifest.KindJournald, Unit: unit}
			break
		}
	}

	return m, nil
}

// unitExists checks if a systemd unit file is installed.
func unitExists(unit string) bool {
	for _, dir := range unitDirs {
		if _, err := os.Stat(filepath.Join(dir, unit)); err == nil {
			return true
		}
	}
	return false
}
