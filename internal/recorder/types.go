package recorder

import (
	"time"
)

// Config contains batching configuration for the recorder.
type Config struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:     1000,
		FlushInterval: 5 * time.Second,
	}
}

// changeRow represents a row to be inserted into the stat_changes table.
type changeRow struct {
	ObservedAt int64  // Microseconds
	MessageID  string // Feed envelope id
	Channel    string
	Kind       string // "chatters" or "emotes"
	Key        string
	EmoteID    string // Empty for chatter changes
	Provider   string // Empty for chatter changes
	Amount     int64
}

// Metrics holds counters for a recorder.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
}
