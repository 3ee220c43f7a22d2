package config

import "time"

// Sync configures the reconciliation pass and its triggers.
type Sync struct {
	// OnlineDebounce is the trailing-edge debounce window applied to
	// reachability triggers before a sync pass runs.
	OnlineDebounce time.Duration `env:"SYNC_ONLINE_DEBOUNCE" envDefault:"1s"`

	// ForegroundDebounce is the (longer) debounce window applied to
	// application-foreground triggers.
	ForegroundDebounce time.Duration `env:"SYNC_FOREGROUND_DEBOUNCE" envDefault:"2s"`

	// ProbeInterval is how often the connectivity monitor probes the remote
	// store for reachability.
	ProbeInterval time.Duration `env:"SYNC_PROBE_INTERVAL" envDefault:"10s"`

	// Retention is how long confirmed (synced) journal entries are kept
	// before being pruned at the end of a successful sync pass.
	Retention time.Duration `env:"SYNC_RETENTION" envDefault:"720h"`
}
