package main

import (
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/germanamz/nbask/pkg/engine"
)

const customModel = "__custom__"

// suggestedModels are offered by the picker, one or two per built-in kind.
var suggestedModels = []string{
	"claude-sonnet-4-5-20250929",
	"claude-opus-4-1-20250805",
	"gpt-4o",
	"gpt-4o-mini",
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"grok-4",
}

// modelChoices lists current first, then the suggestions, then the
// suggestions of each configured provider addressed by its name.
func modelChoices(current string, cfg engine.Config) []string {
	choices := []string{current}
	add := func(m string) {
		if !slices.Contains(choices, m) {
			choices = append(choices, m)
		}
	}

	for _, m := range suggestedModels {
		add(m)
	}
	for _, p := range cfg.Providers {
		if p.Name == p.Kind {
			continue
		}
		for _, m := range suggestedModels {
			if engine.InferKind(m) == p.Kind {
				add(p.Name + "/" + m)
			}
		}
	}

	return choices
}

// pickModel asks the user to choose a model. Choosing "Other..." prompts for
// a free-form identifier, validated by routing it through cfg.
func pickModel(current string, cfg engine.Config) (string, error) {
	var opts []huh.Option[string]
	for _, m := range modelChoices(current, cfg) {
		opts = append(opts, huh.NewOption(m, m))
	}
	opts = append(opts, huh.NewOption("Other...", customModel))

	choice := current
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Model").
			Options(opts...).
			Value(&choice),
	)).Run(); err != nil {
		return "", err
	}

	if choice != customModel {
		return choice, nil
	}

	var custom string
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Model identifier (<model> or <provider>/<model>)").
			Value(&custom).
			Validate(func(s string) error {
				_, err := cfg.ResolveModel(s)
				return err
			}),
	)).Run(); err != nil {
		return "", err
	}

	return custom, nil
}
