package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string `json:"port"`
		StaticDir string `json:"static_dir"`
		Debug     bool   `json:"debug"`
	} `json:"server"`

	Database struct {
		Path string `json:"path"` // empty disables the analysis journal
	} `json:"database"`

	ML struct {
		Type       string `json:"type"`        // "google" or "local"
		ConfigPath string `json:"config_path"` // backend specific file, optional
	} `json:"ml"`

	Limits struct {
		RequestsPerMinute int `json:"requests_per_minute"` // per client on /api/analyze
	} `json:"limits"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	var config Config
	config.Server.Port = "8080"
	config.Server.StaticDir = "./static"
	config.Database.Path = "nutrilens.db"
	config.ML.Type = "google"
	config.Limits.RequestsPerMinute = 30
	return &config
}

// LoadConfig loads configuration from a JSON file, then applies .env and
// environment overrides. A missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	// .env is a development convenience; real deployments set the environment
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded environment from .env")
	}

	config := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.WithField("path", configPath).Warn("Config file not found, using defaults and environment")
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	// Handle missing values
	if config.Server.Port == "" {
		return nil, fmt.Errorf("server port is not set")
	}
	if config.Server.StaticDir == "" {
		config.Server.StaticDir = "./static"
	}
	if config.ML.Type == "" {
		config.ML.Type = "google"
	}
	if config.Limits.RequestsPerMinute <= 0 {
		config.Limits.RequestsPerMinute = 30
	}

	return config, nil
}

func applyEnv(config *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		config.Server.Port = v
	}
	if v := os.Getenv("NUTRILENS_STATIC_DIR"); v != "" {
		config.Server.StaticDir = v
	}
	if v := os.Getenv("NUTRILENS_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid NUTRILENS_DEBUG %q: %w", v, err)
		}
		config.Server.Debug = debug
	}
	if v, ok := os.LookupEnv("NUTRILENS_DB_PATH"); ok {
		config.Database.Path = v
	}
	if v := os.Getenv("NUTRILENS_MODEL"); v != "" {
		config.ML.Type = v
	}
	if v := os.Getenv("NUTRILENS_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NUTRILENS_RATE_LIMIT %q: %w", v, err)
		}
		config.Limits.RequestsPerMinute = n
	}
	return nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("NUTRILENS_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
