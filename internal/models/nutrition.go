package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ProcessingLevel classifies how industrially processed a food is.
// The values are the Portuguese labels the model is instructed to answer with.
type ProcessingLevel string

const (
	ProcessingNatural   ProcessingLevel = "Natural"
	ProcessingMinimal   ProcessingLevel = "Minimamente Processado"
	ProcessingProcessed ProcessingLevel = "Processado"
	ProcessingUltra     ProcessingLevel = "Ultraprocessado"
)

// ProcessingLevels lists every accepted processing level in rubric order.
var ProcessingLevels = []ProcessingLevel{
	ProcessingNatural,
	ProcessingMinimal,
	ProcessingProcessed,
	ProcessingUltra,
}

// Valid reports whether l is one of the enumerated processing levels.
func (l ProcessingLevel) Valid() bool {
	for _, level := range ProcessingLevels {
		if l == level {
			return true
		}
	}
	return false
}

// Macros holds macronutrients in grams.
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// Nutrient is a single micronutrient line of the report.
type Nutrient struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// AnalysisResult is the nutrition report returned by the model
type AnalysisResult struct {
	FoodName        string          `json:"foodName"`
	Confidence      float64         `json:"confidence"` // 0-1
	Description     string          `json:"description"`
	EstimatedWeight string          `json:"estimatedWeight"` // e.g. "150 g"
	Calories        float64         `json:"calories"`        // kcal
	Macros          Macros          `json:"macros"`
	Micronutrients  []Nutrient      `json:"micronutrients"`
	Allergens       []string        `json:"allergens"`
	HealthScore     int             `json:"healthScore"` // 0-100
	Pros            []string        `json:"pros"`
	Cons            []string        `json:"cons"`
	Tips            []string        `json:"tips"`
	ProcessingLevel ProcessingLevel `json:"processingLevel"`
}

// HistoryEntry is a session-local record of a past analysis.
type HistoryEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Image     string          `json:"image,omitempty"`
	Result    *AnalysisResult `json:"result"`
}

// AnalysisRecord is the journal entry kept for every analysis call
type AnalysisRecord struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id,omitempty"`
	Source      string        `json:"source"` // "image" or "text"
	Query       string        `json:"query,omitempty"`
	FoodName    string        `json:"food_name,omitempty"`
	Calories    float64       `json:"calories"`
	HealthScore int           `json:"health_score"`
	Status      string        `json:"status"` // "completed", "failed"
	Error       string        `json:"error,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RequiredResultFields are the fields the model must always answer with.
var RequiredResultFields = []string{
	"foodName", "calories", "macros", "healthScore", "description",
	"pros", "cons", "tips", "processingLevel", "allergens", "estimatedWeight",
}

var requiredMacroFields = []string{"protein", "carbs", "fat", "fiber"}

// ErrMalformedResult is returned when model output does not match the AnalysisResult shape.
var ErrMalformedResult = errors.New("malformed analysis result")

// ParseAnalysisResult decodes and validates the JSON text produced by the model.
func ParseAnalysisResult(data []byte) (*AnalysisResult, error) {
	data = stripCodeFence(data)

	// First unmarshal into a map to check for missing fields
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	for _, field := range RequiredResultFields {
		if v, ok := raw[field]; !ok || isNull(v) {
			return nil, fmt.Errorf("%w: missing required field '%s'", ErrMalformedResult, field)
		}
	}

	var macros map[string]json.RawMessage
	if err := json.Unmarshal(raw["macros"], &macros); err != nil {
		return nil, fmt.Errorf("%w: macros: %v", ErrMalformedResult, err)
	}
	for _, field := range requiredMacroFields {
		if v, ok := macros[field]; !ok || isNull(v) {
			return nil, fmt.Errorf("%w: missing required field 'macros.%s'", ErrMalformedResult, field)
		}
	}

	// healthScore is decoded as a number first so that 72.0 is accepted
	var wire struct {
		AnalysisResult
		HealthScore float64 `json:"healthScore"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	if wire.HealthScore != math.Trunc(wire.HealthScore) {
		return nil, fmt.Errorf("%w: healthScore %v is not an integer", ErrMalformedResult, wire.HealthScore)
	}

	result := wire.AnalysisResult
	result.HealthScore = int(wire.HealthScore)
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// Validate checks the value ranges of a decoded result.
func (r *AnalysisResult) Validate() error {
	if strings.TrimSpace(r.FoodName) == "" {
		return fmt.Errorf("%w: foodName is empty", ErrMalformedResult)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside 0-1", ErrMalformedResult, r.Confidence)
	}
	if r.HealthScore < 0 || r.HealthScore > 100 {
		return fmt.Errorf("%w: healthScore %d outside 0-100", ErrMalformedResult, r.HealthScore)
	}
	if !r.ProcessingLevel.Valid() {
		return fmt.Errorf("%w: unknown processingLevel %q", ErrMalformedResult, r.ProcessingLevel)
	}

	amounts := map[string]float64{
		"calories":       r.Calories,
		"macros.protein": r.Macros.Protein,
		"macros.carbs":   r.Macros.Carbs,
		"macros.fat":     r.Macros.Fat,
		"macros.fiber":   r.Macros.Fiber,
	}
	for name, v := range amounts {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative", ErrMalformedResult, name)
		}
	}
	for i, n := range r.Micronutrients {
		if n.Value < 0 {
			return fmt.Errorf("%w: micronutrients[%d] %q is negative", ErrMalformedResult, i, n.Label)
		}
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(data []byte) []byte {
	text := strings.TrimSpace(string(data))
	if !strings.HasPrefix(text, "```") {
		return data
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return []byte(strings.TrimSpace(text))
}
