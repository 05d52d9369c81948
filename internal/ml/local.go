package ml

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/apex/log"
)

// LocalConfig holds configuration for the local model
type LocalConfig struct {
	BaseConfig
	ModelPath string `json:"model_path"` // JSON fixture replayed for every prompt
}

// Load loads the local configuration
func (c *LocalConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "local", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.ModelPath == "" {
		c.ModelPath = os.Getenv("LOCAL_MODEL_PATH")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("local model path is not set (LOCAL_MODEL_PATH)")
	}
	return nil
}

// LocalModel replays a recorded answer so the app runs without cloud access
type LocalModel struct {
	config LocalConfig

	mu      sync.RWMutex
	fixture string
	loaded  bool
}

// LocalModelFactory implements ModelFactory for local models
type LocalModelFactory struct {
	config LocalConfig
}

// NewLocalModelFactory creates a new local model factory
func NewLocalModelFactory(config LocalConfig) *LocalModelFactory {
	return &LocalModelFactory{config: config}
}

// CreateModel creates a new local model instance
func (f *LocalModelFactory) CreateModel() (Model, error) {
	return &LocalModel{
		config: f.config,
	}, nil
}

// Load reads the fixture into memory
func (m *LocalModel) Load(ctx context.Context) error {
	data, err := os.ReadFile(m.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to read fixture: %w", err)
	}

	m.mu.Lock()
	m.fixture = string(data)
	m.loaded = true
	m.mu.Unlock()

	log.WithField("path", m.config.ModelPath).Info("Local model fixture loaded")
	return nil
}

// Generate returns the fixture regardless of the prompt
func (m *LocalModel) Generate(ctx context.Context, prompt *Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.loaded {
		return "", fmt.Errorf("model not loaded")
	}
	return m.fixture, nil
}

// Close is a no-op for the local model
func (m *LocalModel) Close() error {
	return nil
}
