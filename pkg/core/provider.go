package core

import "context"

// Source is implemented by everything that can feed captured records to the viewer.
type Source interface {
	// Name returns the source's identifier (e.g., "jsonl", "journald").
	Name() string

	// Subscribe starts streaming records. The channel is closed when the
	// source ends or ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan LogRecord, error)
}
