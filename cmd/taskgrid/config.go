package main

import "errors"

// Config holds the process-level settings for one invocation of the
// taskgrid CLI: which grid file to load and how the executor and its
// logging should be configured.
type Config struct {
	GridPath string // path to a single .tg.hcl file

	LogFormat string
	LogLevel  string

	WorkerCount  int
	ObserverAddr string // non-empty starts x/observer's HTTP server
}

// NewConfig validates cfg and returns it, mirroring the teacher's
// app.NewConfig constructor: a required-field check plus a defined place to
// grow future validations.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
