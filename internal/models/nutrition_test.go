package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pizzaJSON = `{
	"foodName": "Pizza Margherita",
	"confidence": 0.92,
	"description": "Massa fina com molho de tomate, muçarela e manjericão.",
	"estimatedWeight": "300 g",
	"calories": 800,
	"macros": {"protein": 28, "carbs": 90, "fat": 35, "fiber": 4},
	"micronutrients": [{"label": "Cálcio", "value": 450, "unit": "mg"}],
	"allergens": ["gluten", "lactose"],
	"healthScore": 55,
	"pros": ["Boa fonte de cálcio"],
	"cons": ["Alto teor de sódio"],
	"tips": ["Prefira massa integral"],
	"processingLevel": "Processado"
}`

func TestParseAnalysisResult(t *testing.T) {
	result, err := ParseAnalysisResult([]byte(pizzaJSON))
	require.NoError(t, err)

	assert.Equal(t, "Pizza Margherita", result.FoodName)
	assert.Equal(t, 800.0, result.Calories)
	assert.Equal(t, 55, result.HealthScore)
	assert.Equal(t, Macros{Protein: 28, Carbs: 90, Fat: 35, Fiber: 4}, result.Macros)
	assert.Equal(t, ProcessingProcessed, result.ProcessingLevel)
	assert.Equal(t, []string{"gluten", "lactose"}, result.Allergens)
	assert.Equal(t, []Nutrient{{Label: "Cálcio", Value: 450, Unit: "mg"}}, result.Micronutrients)
}

func TestParseAnalysisResultStripsCodeFence(t *testing.T) {
	result, err := ParseAnalysisResult([]byte("```json\n" + pizzaJSON + "\n```"))
	require.NoError(t, err)
	assert.Equal(t, "Pizza Margherita", result.FoodName)
}

func TestParseAnalysisResultAcceptsIntegralFloatScore(t *testing.T) {
	doc := strings.Replace(pizzaJSON, `"healthScore": 55`, `"healthScore": 55.0`, 1)
	result, err := ParseAnalysisResult([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 55, result.HealthScore)
}

func TestParseAnalysisResultRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `Desculpe, não consegui.`},
		{"missing foodName", strings.Replace(pizzaJSON, `"foodName": "Pizza Margherita",`, ``, 1)},
		{"missing macro", strings.Replace(pizzaJSON, `"fiber": 4`, `"sugar": 4`, 1)},
		{"null allergens", strings.Replace(pizzaJSON, `["gluten", "lactose"]`, `null`, 1)},
		{"wrong type", strings.Replace(pizzaJSON, `"calories": 800`, `"calories": "800 kcal"`, 1)},
		{"negative calories", strings.Replace(pizzaJSON, `"calories": 800`, `"calories": -1`, 1)},
		{"fractional score", strings.Replace(pizzaJSON, `"healthScore": 55`, `"healthScore": 55.5`, 1)},
		{"score above range", strings.Replace(pizzaJSON, `"healthScore": 55`, `"healthScore": 140`, 1)},
		{"confidence above range", strings.Replace(pizzaJSON, `"confidence": 0.92`, `"confidence": 92`, 1)},
		{"unknown processing level", strings.Replace(pizzaJSON, `"Processado"`, `"Frito"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysisResult([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrMalformedResult)
		})
	}
}

func TestProcessingLevelValid(t *testing.T) {
	for _, level := range ProcessingLevels {
		assert.True(t, level.Valid(), level)
	}
	assert.False(t, ProcessingLevel("Ultra-processed").Valid())
}
