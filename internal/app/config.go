package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults and error messages.
const (
	DefaultPort     = 8080
	DefaultDataFile = "planner_data.json"
	DefaultAuthFile = "auth.secret"

	ErrInvalidFormat   = "Invalid format"
	ErrInternalServer  = "Internal server error"
	ErrInvalidJSONBody = "Invalid JSON body"
)

// Config is the optional YAML configuration file. Flags override any value
// set here.
type Config struct {
	Port     int    `yaml:"port"`
	DataFile string `yaml:"data_file"`
	AuthFile string `yaml:"auth_file"`
	Verbose  bool   `yaml:"verbose"`
}

// LoadConfig reads the YAML config at path. A missing file yields the
// defaults; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		Port:     DefaultPort,
		DataFile: DefaultDataFile,
		AuthFile: DefaultAuthFile,
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DataFile == "" {
		cfg.DataFile = DefaultDataFile
	}
	if cfg.AuthFile == "" {
		cfg.AuthFile = DefaultAuthFile
	}
	return cfg, nil
}
