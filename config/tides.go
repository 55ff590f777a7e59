package config

import (
	"fmt"
	"time"
)

// TidesConfig locates the annual prediction files and the remote service.
type TidesConfig struct {
	DataDir        string `json:"data_dir"`
	BaseURL        string `json:"base_url"`
	Application    string `json:"application"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// Offline disables remote fetches; only annual files are used.
	Offline bool `json:"offline"`
}

// SetDefaults applies sane defaults.
func (c *TidesConfig) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data/tides"
	}
	if c.Application == "" {
		c.Application = "haulplan"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
}

// Validate checks mandatory fields.
func (c TidesConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("tides: data_dir is required")
	}
	return nil
}

// Timeout returns the remote fetch timeout.
func (c TidesConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }
