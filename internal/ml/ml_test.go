package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGenaiSchema(t *testing.T) {
	schema := &Schema{
		Type: TypeObject,
		Properties: map[string]*Schema{
			"foodName": {Type: TypeString, Description: "Nome"},
			"tags":     {Type: TypeArray, Items: &Schema{Type: TypeString}},
			"level":    {Type: TypeString, Enum: []string{"a", "b"}},
		},
		Required: []string{"foodName"},
	}

	out := toGenaiSchema(schema)
	require.NotNil(t, out)
	assert.Equal(t, genai.TypeObject, out.Type)
	assert.Equal(t, []string{"foodName"}, out.Required)
	require.Len(t, out.Properties, 3)
	assert.Equal(t, genai.TypeString, out.Properties["foodName"].Type)
	assert.Equal(t, "Nome", out.Properties["foodName"].Description)
	assert.Equal(t, genai.TypeArray, out.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, out.Properties["tags"].Items.Type)
	assert.Equal(t, []string{"a", "b"}, out.Properties["level"].Enum)

	assert.Nil(t, toGenaiSchema(nil))
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
		}},
	}
	assert.Equal(t, `{"a":1}`, responseText(resp))
}

func TestGoogleModelGenerateRequiresLoad(t *testing.T) {
	m := &GoogleModel{}
	_, err := m.Generate(context.Background(), &Prompt{Text: "x"})
	assert.Error(t, err)
	assert.NoError(t, m.Close())
}

func TestGoogleConfigFromEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_PROJECT_ID", "nutrilens-test")
	t.Setenv("GOOGLE_LOCATION", "")
	t.Setenv("GOOGLE_API_KEY", "secret")
	t.Setenv("GEMINI_MODEL", "")

	cfg := GoogleConfig{}
	require.NoError(t, cfg.Load())
	assert.Equal(t, "nutrilens-test", cfg.ProjectID)
	assert.Equal(t, defaultGoogleLocation, cfg.Location)
	assert.Equal(t, defaultGoogleModel, cfg.ModelName)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestGoogleConfigFileWinsOverEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_PROJECT_ID", "from-env")
	path := filepath.Join(t.TempDir(), "google.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"project_id":"from-file","model":"gemini-2.5-flash"}`), 0o600))

	cfg := GoogleConfig{BaseConfig: BaseConfig{ConfigPath: path}}
	require.NoError(t, cfg.Load())
	assert.Equal(t, "from-file", cfg.ProjectID)
	assert.Equal(t, "gemini-2.5-flash", cfg.ModelName)
}

func TestGoogleConfigRequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_PROJECT_ID", "")
	cfg := GoogleConfig{}
	assert.Error(t, cfg.Load())
}

func TestLocalModelReplaysFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"foodName":"Maçã"}`), 0o600))

	t.Setenv("LOCAL_MODEL_PATH", "")
	model, err := NewModel("local", "")
	require.Error(t, err, "no fixture configured yet")
	assert.Nil(t, model)

	t.Setenv("LOCAL_MODEL_PATH", path)
	model, err = NewModel("local", "")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = model.Generate(ctx, &Prompt{Text: "x"})
	assert.Error(t, err, "generate before load")

	require.NoError(t, model.Load(ctx))
	text, err := model.Generate(ctx, &Prompt{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"foodName":"Maçã"}`, text)
	assert.NoError(t, model.Close())
}

func TestLocalModelHonoursCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	model, err := NewLocalModelFactory(LocalConfig{ModelPath: path}).CreateModel()
	require.NoError(t, err)
	require.NoError(t, model.Load(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = model.Generate(ctx, &Prompt{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewModelUnsupported(t *testing.T) {
	_, err := NewModel("openai", "")
	assert.Error(t, err)
}
