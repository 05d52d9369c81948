package ml

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/apex/log"
	"google.golang.org/api/option"
)

const (
	defaultGoogleLocation = "us-central1"
	defaultGoogleModel    = "gemini-2.0-flash"
)

// GoogleConfig holds configuration for the Google model
type GoogleConfig struct {
	BaseConfig
	ProjectID       string `json:"project_id"`
	Location        string `json:"location"`
	CredentialsFile string `json:"credentials_file"`
	APIKey          string `json:"api_key"`
	ModelName       string `json:"model"`
}

// Load loads the Google configuration
func (c *GoogleConfig) Load() error {
	if err := c.LoadConfig(c.ConfigPath, "google", c); err != nil {
		return err
	}

	// Fall back to environment variables if not set
	if c.ProjectID == "" {
		c.ProjectID = os.Getenv("GOOGLE_PROJECT_ID")
	}
	if c.Location == "" {
		c.Location = os.Getenv("GOOGLE_LOCATION")
	}
	if c.CredentialsFile == "" {
		c.CredentialsFile = os.Getenv("GOOGLE_CREDENTIALS_FILE")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.ModelName == "" {
		c.ModelName = os.Getenv("GEMINI_MODEL")
	}

	if c.Location == "" {
		c.Location = defaultGoogleLocation
	}
	if c.ModelName == "" {
		c.ModelName = defaultGoogleModel
	}
	if c.ProjectID == "" {
		return fmt.Errorf("google project id is not set (GOOGLE_PROJECT_ID)")
	}
	return nil
}

// GoogleModel implements the Model interface for Gemini on Vertex AI
type GoogleModel struct {
	config GoogleConfig
	client *genai.Client
}

// GoogleModelFactory implements ModelFactory for Google models
type GoogleModelFactory struct {
	config GoogleConfig
}

// NewGoogleModelFactory creates a new Google model factory
func NewGoogleModelFactory(config GoogleConfig) *GoogleModelFactory {
	return &GoogleModelFactory{config: config}
}

// CreateModel creates a new Google model instance
func (f *GoogleModelFactory) CreateModel() (Model, error) {
	return &GoogleModel{
		config: f.config,
	}, nil
}

// Load initializes the Vertex AI client
func (m *GoogleModel) Load(ctx context.Context) error {
	opts := []option.ClientOption{}

	if m.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(m.config.CredentialsFile))
	}
	if m.config.APIKey != "" {
		opts = append(opts, option.WithAPIKey(m.config.APIKey))
	}

	client, err := genai.NewClient(ctx, m.config.ProjectID, m.config.Location, opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	m.client = client
	log.WithFields(log.Fields{
		"project":  m.config.ProjectID,
		"location": m.config.Location,
		"model":    m.config.ModelName,
	}).Info("Vertex AI client ready")
	return nil
}

// Generate sends the prompt to Gemini and returns the concatenated text of
// the first candidate. An answer without candidates yields an empty string.
func (m *GoogleModel) Generate(ctx context.Context, prompt *Prompt) (string, error) {
	if m.client == nil {
		return "", fmt.Errorf("model not loaded")
	}

	// GenerativeModel carries per-request settings, so each call gets its own
	model := m.client.GenerativeModel(m.config.ModelName)
	if prompt.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(prompt.SystemInstruction)},
		}
	}
	model.ResponseMIMEType = prompt.ResponseMIMEType
	model.ResponseSchema = toGenaiSchema(prompt.ResponseSchema)

	parts := make([]genai.Part, 0, 2)
	if prompt.Image != nil {
		parts = append(parts, genai.Blob{MIMEType: prompt.Image.MIMEType, Data: prompt.Image.Data})
	}
	if prompt.Text != "" {
		parts = append(parts, genai.Text(prompt.Text))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to call ai: %w", err)
	}
	return responseText(resp), nil
}

// Close closes the Vertex AI client
func (m *GoogleModel) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String()
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Items:       toGenaiSchema(s.Items),
		Required:    s.Required,
		Enum:        s.Enum,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func genaiType(t SchemaType) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
