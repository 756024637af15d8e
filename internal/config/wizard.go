package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/pagebuild/internal/assets"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pagebuild! Let's configure your site.")
	fmt.Println()

	defaults := DefaultConfig()

	srcDir, err := prompt("Source directory (data, components, templates, styles, scripts)", defaults.SrcDir)
	if err != nil {
		return nil, fmt.Errorf("source dir: %w", err)
	}
	if _, statErr := os.Stat(srcDir); os.IsNotExist(statErr) {
		fmt.Printf("Note: %s does not exist yet; the default page template will be used.\n\n", srcDir)
	}

	distDir, err := prompt("Output directory", defaults.DistDir)
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	assetsDir, err := prompt("Static assets directory (copied verbatim)", defaults.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("assets dir: %w", err)
	}

	modePrompt := promptui.Select{
		Label: "Asset mode",
		Items: []string{
			"reference — link styles and scripts as separate files",
			"inline    — embed styles and scripts in index.html",
		},
	}
	modeIdx, _, err := modePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("mode selection: %w", err)
	}
	modes := []assets.Mode{assets.ModeReference, assets.ModeInline}

	mdPrompt := promptui.Select{
		Label: "Render components/*.md as HTML fragments?",
		Items: []string{"no", "yes"},
	}
	mdIdx, _, err := mdPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("markdown selection: %w", err)
	}

	cfg := DefaultConfig()
	cfg.SrcDir = srcDir
	cfg.DistDir = distDir
	cfg.AssetsDir = assetsDir
	cfg.Mode = modes[modeIdx]
	cfg.MarkdownComponents = mdIdx == 1

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func prompt(label, def string) (string, error) {
	p := promptui.Prompt{
		Label:   label,
		Default: def,
	}
	return p.Run()
}
