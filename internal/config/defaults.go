package config

import "github.com/ziadkadry99/pagebuild/internal/assets"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SrcDir:    "src",
		DistDir:   "dist",
		AssetsDir: "assets",
		Mode:      assets.ModeReference,
		Serve: ServeConfig{
			Port:       8080,
			LiveReload: true,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    ".pagebuild/history.db",
			Keep:    100,
		},
	}
}
