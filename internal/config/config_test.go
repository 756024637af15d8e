package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/pagebuild/internal/assets"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.SrcDir != "src" {
		t.Errorf("expected default src_dir %q, got %q", "src", cfg.SrcDir)
	}
	if cfg.DistDir != "dist" {
		t.Errorf("expected default dist_dir %q, got %q", "dist", cfg.DistDir)
	}
	if cfg.Mode != assets.ModeReference {
		t.Errorf("expected default mode %q, got %q", assets.ModeReference, cfg.Mode)
	}
	if cfg.Watch.DebounceMS != 0 {
		t.Errorf("expected debouncing off by default, got %d", cfg.Watch.DebounceMS)
	}
	if !cfg.History.Enabled || cfg.History.Path == "" {
		t.Errorf("expected build history on by default, got %+v", cfg.History)
	}
	if len(cfg.Exclude) != 0 {
		t.Errorf("expected no exclude patterns by default, got %v", cfg.Exclude)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pagebuild.yml")

	original := DefaultConfig()
	original.SrcDir = "site/src"
	original.DistDir = "public"
	original.Mode = assets.ModeInline
	original.MarkdownComponents = true
	original.Exclude = []string{"**/*.map", "drafts/**"}
	original.Watch.DebounceMS = 150
	original.Serve.Port = 9000

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.SrcDir != original.SrcDir {
		t.Errorf("src_dir: got %q, want %q", loaded.SrcDir, original.SrcDir)
	}
	if loaded.DistDir != original.DistDir {
		t.Errorf("dist_dir: got %q, want %q", loaded.DistDir, original.DistDir)
	}
	if loaded.Mode != original.Mode {
		t.Errorf("mode: got %q, want %q", loaded.Mode, original.Mode)
	}
	if !loaded.MarkdownComponents {
		t.Error("markdown_components: got false, want true")
	}
	if loaded.Watch.DebounceMS != 150 {
		t.Errorf("watch.debounce_ms: got %d, want 150", loaded.Watch.DebounceMS)
	}
	if loaded.Serve.Port != 9000 {
		t.Errorf("serve.port: got %d, want 9000", loaded.Serve.Port)
	}
	if len(loaded.Exclude) != len(original.Exclude) {
		t.Fatalf("exclude length: got %d, want %d", len(loaded.Exclude), len(original.Exclude))
	}
	for i, v := range loaded.Exclude {
		if v != original.Exclude[i] {
			t.Errorf("exclude[%d]: got %q, want %q", i, v, original.Exclude[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.SrcDir != "src" {
		t.Errorf("expected default src_dir, got %q", cfg.SrcDir)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("mode: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PAGEBUILD_MODE", "inline")
	t.Setenv("PAGEBUILD_DIST_DIR", "out")
	t.Setenv("PAGEBUILD_WATCH__DEBOUNCE_MS", "250")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Mode != assets.ModeInline {
		t.Errorf("env override failed: got %q, want %q", loaded.Mode, assets.ModeInline)
	}
	if loaded.DistDir != "out" {
		t.Errorf("env override failed: got %q, want %q", loaded.DistDir, "out")
	}
	if loaded.Watch.DebounceMS != 250 {
		t.Errorf("nested env override failed: got %d, want 250", loaded.Watch.DebounceMS)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateNormalisesMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = "Inline"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Mode != assets.ModeInline {
		t.Errorf("mode = %q, want %q", cfg.Mode, assets.ModeInline)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty src_dir", func(c *Config) { c.SrcDir = "" }},
		{"blank dist_dir", func(c *Config) { c.DistDir = "  " }},
		{"unknown mode", func(c *Config) { c.Mode = "optimize" }},
		{"empty mode", func(c *Config) { c.Mode = "" }},
		{"negative debounce", func(c *Config) { c.Watch.DebounceMS = -1 }},
		{"port too large", func(c *Config) { c.Serve.Port = 70000 }},
		{"history without path", func(c *Config) { c.History.Path = "" }},
		{"negative history keep", func(c *Config) { c.History.Keep = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
