package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/nbask/pkg/askdir"
	"github.com/germanamz/nbask/pkg/engine"
	"github.com/germanamz/nbask/pkg/render"
	"github.com/germanamz/nbask/pkg/secrets"
	"github.com/germanamz/nbask/pkg/session"
	"gopkg.in/yaml.v3"
)

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: nbask init [flags]\n\nInitialize a .nbask directory with default structure and config.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	dir := fs.String("dir", ".nbask", "path to .nbask directory")
	force := fs.Bool("force", false, "overwrite an existing config")
	yes := fs.Bool("yes", false, "accept defaults without prompting")
	_ = fs.Parse(args)

	cfg := defaultConfig()
	if !*yes {
		if err := initWizard(&cfg); err != nil {
			return err
		}
	}

	d := askdir.New(*dir)
	if err := writeInit(d, cfg, *force); err != nil {
		return err
	}

	fmt.Printf("Initialized %s\n", d.Root())
	fmt.Printf("Put provider API keys in %s\n", d.SecretsPath())

	return nil
}

func defaultConfig() engine.Config {
	return engine.Config{
		Defaults: engine.DefaultsConfig{Model: session.DefaultModel},
		Render:   engine.RenderConfig{Highlight: string(render.HighlightPrism)},
	}
}

func initWizard(cfg *engine.Config) error {
	return huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Default model").
			Options(huh.NewOptions(modelChoices(cfg.Defaults.Model, *cfg)...)...).
			Value(&cfg.Defaults.Model),
		huh.NewSelect[string]().
			Title("Code highlighting in HTML answers").
			Options(
				huh.NewOption("Prism.js in the page", string(render.HighlightPrism)),
				huh.NewOption("Chroma, inline styles", string(render.HighlightChroma)),
			).
			Value(&cfg.Render.Highlight),
		huh.NewConfirm().
			Title("Fail when the invoking cell is not in the notebook?").
			Value(&cfg.Context.StrictCellID),
	)).Run()
}

// writeInit creates the directory structure, the config file and a
// commented secrets template. An existing config is kept unless force is
// set; an existing secrets file is always kept.
func writeInit(d askdir.Dir, cfg engine.Config, force bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := askdir.EnsureStructure(d); err != nil {
		return err
	}

	if _, err := os.Stat(d.ConfigPath()); err == nil && !force {
		return fmt.Errorf("init: %s already exists (use --force to overwrite)", d.ConfigPath())
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("init: marshal config: %w", err)
	}
	if err := os.WriteFile(d.ConfigPath(), data, 0o600); err != nil {
		return fmt.Errorf("init: write config: %w", err)
	}

	if _, err := os.Stat(d.SecretsPath()); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(d.SecretsPath(), []byte(secretsTemplate()), 0o600); err != nil {
			return fmt.Errorf("init: write secrets: %w", err)
		}
	}

	return nil
}

func secretsTemplate() string {
	var sb strings.Builder
	sb.WriteString("# Provider credentials exported when nbask starts.\n")
	for _, k := range secrets.ProviderKeys {
		sb.WriteString("# " + k + "=\n")
	}
	return sb.String()
}
