package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays LEASE_* environment variables. Unset variables leave
// the current values alone. A malformed value panics, like a broken config
// file does.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
