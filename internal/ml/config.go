package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apex/log"
)

// BaseConfig provides common configuration functionality
type BaseConfig struct {
	ConfigPath string
}

// LoadConfig loads configuration from a file, falling back to environment variables.
// An explicit path that exists but does not parse is an error; a missing
// default file is not.
func (c *BaseConfig) LoadConfig(configPath string, envPrefix string, config interface{}) error {
	// Try to load from file first
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return fmt.Errorf("failed to parse %s: %w", configPath, err)
			}
			log.Infof("Loaded %s configuration from file: %s", envPrefix, configPath)
			return nil
		}
		log.WithError(err).Warnf("Could not read %s configuration file %s", envPrefix, configPath)
	}

	// Try default config file in config directory
	defaultPath := filepath.Join("config", fmt.Sprintf("%s.json", envPrefix))
	if data, err := os.ReadFile(defaultPath); err == nil {
		if err := json.Unmarshal(data, config); err == nil {
			log.Infof("Loaded %s configuration from default file: %s", envPrefix, defaultPath)
			return nil
		}
		log.Warnf("Ignoring unparsable default file %s", defaultPath)
	}

	// Fall back to environment variables
	log.Debugf("Using environment variables for %s configuration", envPrefix)
	return nil
}
