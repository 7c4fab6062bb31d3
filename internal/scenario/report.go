package scenario

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// WriteResults writes a sweep's scenario results to a YAML file in grid
// order.
func WriteResults(path string, results []ScenarioResult) error {
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep results to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sweep results to file: %w", err)
	}

	return nil
}
