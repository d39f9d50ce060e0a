package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of an inference configuration.
// Zero fields leave the corresponding Config value untouched.
type FileConfig struct {
	Backend     string   `yaml:"backend"`
	Host        string   `yaml:"host"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	Temperature *float64 `yaml:"temperature"`
}

// LoadConfigFile reads a YAML inference configuration from path.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	return &fc, nil
}

// Options converts the file settings into ConfigOptions.
func (fc *FileConfig) Options() []ConfigOption {
	if fc == nil {
		return nil
	}

	var opts []ConfigOption
	if fc.Backend != "" {
		opts = append(opts, WithBackend(Backend(fc.Backend)))
	}
	if fc.Host != "" {
		opts = append(opts, WithHost(fc.Host))
	}
	if fc.Model != "" {
		opts = append(opts, WithModel(fc.Model))
	}
	if fc.APIKey != "" {
		opts = append(opts, WithAPIKey(fc.APIKey))
	}
	if fc.Temperature != nil {
		opts = append(opts, WithTemperature(*fc.Temperature))
	}
	return opts
}
