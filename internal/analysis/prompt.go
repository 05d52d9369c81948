package analysis

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/franckalain/nutrilens/internal/imaging"
	"github.com/franckalain/nutrilens/internal/ml"
	"github.com/franckalain/nutrilens/internal/models"
)

const systemInstruction = `
Você é um nutricionista e cientista de alimentos de referência mundial.
Analise o alimento recebido (imagem ou texto) e produza um relatório nutricional completo.
- Com imagem: identifique cada item do prato e estime as porções.
- Com texto: baseie-se na descrição fornecida.
- 'healthScore' é um inteiro de 0 a 100 que pondera densidade nutricional e grau de processamento.
- 'processingLevel' deve ser exatamente um destes valores: %s.
- Responda em Português Brasileiro.
`

const (
	imageOnlyInstruction = "Analise nutricionalmente o alimento nesta imagem."
	textInstructionFmt   = "Alimento para analisar: %s"
	responseMIMEType     = "application/json"
)

func processingLevelValues() []string {
	values := make([]string, 0, len(models.ProcessingLevels))
	for _, level := range models.ProcessingLevels {
		values = append(values, string(level))
	}
	return values
}

// SystemInstruction is the fixed persona and output policy sent with every prompt.
func SystemInstruction() string {
	quoted := make([]string, 0, len(models.ProcessingLevels))
	for _, v := range processingLevelValues() {
		quoted = append(quoted, "'"+v+"'")
	}
	return strings.TrimSpace(fmt.Sprintf(systemInstruction, strings.Join(quoted, ", ")))
}

func stringList(description string) *ml.Schema {
	return &ml.Schema{Type: ml.TypeArray, Description: description, Items: &ml.Schema{Type: ml.TypeString}}
}

// ResponseSchema declares the AnalysisResult shape to the model.
func ResponseSchema() *ml.Schema {
	number := func(description string) *ml.Schema {
		return &ml.Schema{Type: ml.TypeNumber, Description: description}
	}

	return &ml.Schema{
		Type: ml.TypeObject,
		Properties: map[string]*ml.Schema{
			"foodName":        {Type: ml.TypeString, Description: "Nome principal do prato ou alimento"},
			"confidence":      number("Nível de confiança da análise (0-1)"),
			"description":     {Type: ml.TypeString, Description: "Breve descrição do alimento e seus componentes"},
			"estimatedWeight": {Type: ml.TypeString, Description: "Peso estimado da porção analisada, por exemplo '150 g'"},
			"calories":        number("Total de calorias (kcal)"),
			"macros": {
				Type: ml.TypeObject,
				Properties: map[string]*ml.Schema{
					"protein": number("Proteínas (g)"),
					"carbs":   number("Carboidratos (g)"),
					"fat":     number("Gorduras (g)"),
					"fiber":   number("Fibras (g)"),
				},
				Required: []string{"protein", "carbs", "fat", "fiber"},
			},
			"micronutrients": {
				Type: ml.TypeArray,
				Items: &ml.Schema{
					Type: ml.TypeObject,
					Properties: map[string]*ml.Schema{
						"label": {Type: ml.TypeString},
						"value": {Type: ml.TypeNumber},
						"unit":  {Type: ml.TypeString},
					},
				},
			},
			"allergens":       stringList("Alergênicos presentes"),
			"healthScore":     {Type: ml.TypeInteger, Description: "Pontuação de saúde de 0 a 100"},
			"pros":            stringList("Lista de pontos positivos para a saúde"),
			"cons":            stringList("Lista de pontos de atenção ou negativos"),
			"tips":            stringList("Dicas de como tornar a refeição mais saudável"),
			"processingLevel": {Type: ml.TypeString, Enum: processingLevelValues()},
		},
		Required: append([]string(nil), models.RequiredResultFields...),
	}
}

// decodeImage strips any data URI prefix and decodes the base64 payload.
func decodeImage(image string) ([]byte, error) {
	payload := image
	if i := strings.IndexByte(payload, ','); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, nil
}

// buildPrompt composes the request for an image and/or a text query.
// text must already be trimmed.
func buildPrompt(image, text string) (*ml.Prompt, error) {
	prompt := &ml.Prompt{
		SystemInstruction: SystemInstruction(),
		ResponseMIMEType:  responseMIMEType,
		ResponseSchema:    ResponseSchema(),
	}

	if image != "" {
		data, err := decodeImage(image)
		if err != nil {
			return nil, err
		}
		// Bytes the decoder does not understand are sent as received
		if normalized, err := imaging.Normalize(data); err == nil {
			data = normalized
		}
		prompt.Image = &ml.Image{MIMEType: imaging.MIMEType, Data: data}
	}

	switch {
	case text != "":
		prompt.Text = fmt.Sprintf(textInstructionFmt, text)
	case image != "":
		prompt.Text = imageOnlyInstruction
	default:
		return nil, ErrNoInput
	}
	return prompt, nil
}
