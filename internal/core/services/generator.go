package services

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// WriteDefinition marshals a connector definition to YAML and writes it
// as <id>.yaml into dir, creating the directory if needed. It refuses to
// overwrite an existing file. Returns the written path.
func WriteDefinition(def *domain.ConnectorDefinition, dir string) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, def.ID+".yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("marshalling definition: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
