package handlers

import (
	"fmt"

	"github.com/tierstack/tierstack/internal/manifest"
)

// Graph prints the resource graph as dot, json or yaml.
func Graph(configPath, format string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	graph, err := manifest.Build(cfg)
	if err != nil {
		return fmt.Errorf("failed to build resource graph: %w", err)
	}

	data, err := graph.Export(format)
	if err != nil {
		return err
	}
	printf("%s", data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		printf("\n")
	}
	return nil
}
