package config

import "time"

// Engine is the host side of the configuration tree, filled from the
// "global" section of the user file.
type Engine struct {
	HTTP
	DB              DB
	LogLevel        string        `default:"info" desc:"log level: trace, debug, info, warn, error"`
	EventBufferSize int           `default:"16" desc:"per subscriber event buffer"`
	PulseInterval   time.Duration `default:"5s" desc:"system summary refresh interval"`
	DisableAll      bool          `desc:"disable all plugins"`
}
