package manifest

// Manifest represents a colacup.yaml configuration file.
type Manifest struct {
	Version  int               `yaml:"version"  json:"version"`
	Project  string            `yaml:"project"  json:"project"`
	Root     string            `yaml:"root"     json:"root"`
	Sources  map[string]Source `yaml:"sources"  json:"sources"`
	Defaults Defaults          `yaml:"defaults" json:"defaults,omitempty"`
	Share    Share             `yaml:"share"    json:"share,omitempty"`
}

// Source kinds.
const (
	KindJSONL    = "jsonl"
	KindJournald = "journald"
)

// Source is a place captured records are read from.
type Source struct {
	Kind   string   `yaml:"kind"             json:"kind"`
	Files  []string `yaml:"files,omitempty"  json:"files,omitempty"`  // jsonl
	Follow bool     `yaml:"follow,omitempty" json:"follow,omitempty"` // jsonl: keep tailing after the initial load
	Unit   string   `yaml:"unit,omitempty"   json:"unit,omitempty"`   // journald
	Lines  int      `yaml:"lines,omitempty"  json:"lines,omitempty"`  // journald: backlog size
}

// Defaults seed the filter when the viewer opens.
type Defaults struct {
	Sort    string   `yaml:"sort,omitempty"    json:"sort,omitempty"`
	Flags   []string `yaml:"flags,omitempty"   json:"flags,omitempty"`
	Modules []string `yaml:"modules,omitempty" json:"modules,omitempty"`
	Since   string   `yaml:"since,omitempty"   json:"since,omitempty"` // Go duration, e.g. "24h"
}

// Share target values.
const (
	ShareClipboard = "clipboard"
	ShareStdout    = "stdout"
)

// Share configures where the share action sends its text.
type Share struct {
	Target string `yaml:"target,omitempty" json:"target,omitempty"`
}
