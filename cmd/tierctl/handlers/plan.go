package handlers

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
	"github.com/tierstack/tierstack/internal/provisioning"
	"github.com/tierstack/tierstack/internal/provisioning/destroy"
)

// Plan validates the configuration and prints the resources apply would
// converge, grouped by level. Plan never talks to AWS.
func Plan(configPath string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	graph, err := manifest.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build resource graph: %w", err)
	}

	var errs, warns []provisioning.ValidationError
	for _, ve := range provisioning.Validate(cfg, graph, destroy.Handlers()) {
		if ve.IsError() {
			errs = append(errs, ve)
		} else {
			warns = append(warns, ve)
		}
	}

	levels, err := graph.Levels()
	if err != nil && len(errs) == 0 {
		return fmt.Errorf("failed to order resources: %w", err)
	}

	printf("%s", renderPlan(planView{
		Title:    fmt.Sprintf("%s-%s (%s)", cfg.Project, cfg.Environment, cfg.Region),
		Levels:   levels,
		Total:    graph.Len(),
		Errors:   errs,
		Warnings: warns,
	}, isTerminal()))

	if len(errs) > 0 {
		return fmt.Errorf("plan has %d validation error(s)", len(errs))
	}
	return nil
}
