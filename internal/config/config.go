package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from codesynapse.yml.
// Command-line flags override anything set here.
type ProjectConfig struct {
	Output      string   `yaml:"output,omitempty"`
	Format      string   `yaml:"format,omitempty"`
	ExcludeDirs []string `yaml:"excludeDirs,omitempty"`
	Verbose     bool     `yaml:"verbose,omitempty"`
	NoCache     bool     `yaml:"noCache,omitempty"`
	Workers     int      `yaml:"workers,omitempty"`
}

// Load attempts to read codesynapse.yml or codesynapse.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"codesynapse.yml", "codesynapse.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
