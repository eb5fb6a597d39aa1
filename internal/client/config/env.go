package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
)

// parseEnv overlays Config with VITALKEEPER_* environment variables. Unset
// variables leave the current value in place.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: common.EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
