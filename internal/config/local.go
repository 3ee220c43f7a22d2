package config

// Local configures the on-device SQLite store.
type Local struct {
	// Path is the SQLite database file. Parent directories are created on open.
	Path string `env:"LOCAL_DB_PATH" envDefault:"data/pos.db"`

	// DeviceID identifies this terminal in logs. Defaults to the hostname
	// when empty.
	DeviceID string `env:"DEVICE_ID"`
}
