package config

import "github.com/ziadkadry99/pagebuild/internal/assets"

// Config is the top-level pagebuild configuration, corresponding to .pagebuild.yml.
type Config struct {
	SrcDir             string        `yaml:"src_dir" koanf:"src_dir"`
	DistDir            string        `yaml:"dist_dir" koanf:"dist_dir"`
	AssetsDir          string        `yaml:"assets_dir" koanf:"assets_dir"`
	Mode               assets.Mode   `yaml:"mode" koanf:"mode"`
	MarkdownComponents bool          `yaml:"markdown_components" koanf:"markdown_components"`
	Exclude            []string      `yaml:"exclude" koanf:"exclude"`
	Watch              WatchConfig   `yaml:"watch" koanf:"watch"`
	Serve              ServeConfig   `yaml:"serve" koanf:"serve"`
	History            HistoryConfig `yaml:"history" koanf:"history"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Enabled bool `yaml:"enabled" koanf:"enabled"`
	// DebounceMS coalesces bursts of change notifications into one rebuild.
	// Zero rebuilds once per notification.
	DebounceMS int `yaml:"debounce_ms" koanf:"debounce_ms"`
}

// ServeConfig holds settings for the development server.
type ServeConfig struct {
	Enabled         bool `yaml:"enabled" koanf:"enabled"`
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	// LiveReload reloads open pages after each watch-mode rebuild.
	LiveReload bool `yaml:"live_reload" koanf:"live_reload"`
}

// HistoryConfig controls the local build log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Path    string `yaml:"path" koanf:"path"`
	// Keep is how many builds are retained. Zero keeps everything.
	Keep int `yaml:"keep" koanf:"keep"`
}
