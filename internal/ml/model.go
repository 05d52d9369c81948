package ml

import (
	"context"
	"fmt"
)

// Model represents a generative model that answers a prompt with text
type Model interface {
	// Load initializes the model with its configuration
	Load(ctx context.Context) error
	// Generate sends the prompt and returns the text of the answer
	Generate(ctx context.Context, prompt *Prompt) (string, error)
	// Close releases the model's client resources
	Close() error
}

// ModelFactory creates a new model instance based on configuration
type ModelFactory interface {
	// CreateModel creates a new model instance
	CreateModel() (Model, error)
}

// Image is an inline image part of a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Prompt is a single multi-part request to the model.
type Prompt struct {
	SystemInstruction string
	Image             *Image
	Text              string

	// ResponseMIMEType and ResponseSchema constrain the shape of the answer.
	ResponseMIMEType string
	ResponseSchema   *Schema
}

// SchemaType names a JSON value type in a response schema.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
)

// Schema is a backend-neutral description of the expected JSON answer.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Items       *Schema
	Required    []string
	Enum        []string
}

// NewModel creates a new model instance based on the model type.
// configPath may be empty, in which case the backend falls back to
// config/<type>.json and then to environment variables.
func NewModel(modelType, configPath string) (Model, error) {
	var factory ModelFactory

	switch modelType {
	case "google":
		config := GoogleConfig{
			BaseConfig: BaseConfig{
				ConfigPath: configPath,
			},
		}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load Google config: %w", err)
		}
		factory = NewGoogleModelFactory(config)
	case "local":
		config := LocalConfig{
			BaseConfig: BaseConfig{
				ConfigPath: configPath,
			},
		}
		if err := config.Load(); err != nil {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
		factory = NewLocalModelFactory(config)
	default:
		return nil, fmt.Errorf("unsupported model type: %s", modelType)
	}
	return factory.CreateModel()
}
