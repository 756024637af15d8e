package cmd

import (
	"fmt"

	"github.com/ziadkadry99/pagebuild/internal/config"
)

// loadConfig loads the config file and environment overrides. A missing
// config file is not an error; defaults apply.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pagebuild init` to create a config file", err)
	}
	return cfg, nil
}
