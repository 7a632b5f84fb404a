package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tierstack/tierstack/internal/provisioning"
)

// Outputs prints the outputs document of the last apply.
func Outputs(ctx context.Context, configPath string, asJSON bool) error {
	cfg, configPath, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	stores, err := outputStores(ctx, cfg, configPath)
	if err != nil {
		return err
	}

	out, err := stores.Load(ctx)
	if err != nil {
		if errors.Is(err, provisioning.ErrNoOutputs) {
			return fmt.Errorf("%w for %s-%s: run 'tierctl apply' first", err, cfg.Project, cfg.Environment)
		}
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal outputs: %w", err)
		}
		printf("%s\n", data)
		return nil
	}

	printOutputs(out)
	return nil
}

// printOutputs writes the summary of an outputs document.
func printOutputs(out *provisioning.StackOutputs) {
	printf("\nStack %s-%s (%s)\n", out.Project, out.Environment, out.Region)
	rows := []struct{ label, value string }{
		{"Public URL", out.PublicURL},
		{"Backend URL", out.BackendURL},
		{"Database", out.DatabaseEndpoint},
		{"Secret", out.SecretARN},
		{"Cluster", out.ClusterName},
	}
	for _, row := range rows {
		if row.value != "" {
			printf("  %-12s %s\n", row.label+":", row.value)
		}
	}

	printf("  %d resources recorded, updated %s\n", len(out.Resources), out.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
}
