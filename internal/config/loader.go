package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv names the variable that points at the YAML file.
const PathEnv = "CONFIG_PATH"

const defaultPath = "./config.yaml"

// Load reads the YAML file (if any), overlays the environment and validates
// the result. Precedence is env, then YAML, then env-default tags.
// A missing default file is fine; a missing file named by CONFIG_PATH is not.
func Load() (*Config, error) {
	path, explicit := os.Getenv(PathEnv), true
	if path == "" {
		path, explicit = defaultPath, false
	}

	cfg, err := read(path, explicit)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func read(path string, explicit bool) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}
	return &cfg, nil
}
