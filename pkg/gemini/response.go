package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mealreel/mealreel/internal/domain"
)

// MalformedResponseError wraps a decode failure together with the raw
// model text so callers can log or inspect what came back.
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "malformed analysis response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return domain.ErrMalformedResponse
}

// ParseRecipe normalizes raw model output into a recipe payload.
// Code fences and surrounding prose are stripped before a strict JSON
// decode; step numbers must form a dense 1..N sequence. Violations are
// reported, never repaired.
func ParseRecipe(raw string) (*domain.RecipePayload, error) {
	cleaned := extractJSONObject(stripCodeFences(raw))
	if cleaned == "" {
		return nil, &MalformedResponseError{Raw: raw, Reason: "no JSON object in response"}
	}

	var payload domain.RecipePayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Reason: err.Error()}
	}

	for i, step := range payload.Steps {
		if step.Number != i+1 {
			return nil, &MalformedResponseError{
				Raw:    raw,
				Reason: fmt.Sprintf("step %d carries number %d, want dense 1..%d", i+1, step.Number, len(payload.Steps)),
			}
		}
	}

	if payload.Ingredients == nil {
		payload.Ingredients = []domain.IngredientItem{}
	}
	if payload.Steps == nil {
		payload.Steps = []domain.StepItem{}
	}

	return &payload, nil
}

// ParseNutrition decodes the narrower nutrition-enhancement payload.
// Accepts both a bare nutrition object and one nested under "nutrition".
func ParseNutrition(raw string) (*domain.Nutrition, error) {
	cleaned := extractJSONObject(stripCodeFences(raw))
	if cleaned == "" {
		return nil, &MalformedResponseError{Raw: raw, Reason: "no JSON object in response"}
	}

	var envelope struct {
		domain.Nutrition
		Nested *domain.Nutrition `json:"nutrition"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Reason: err.Error()}
	}
	if envelope.Nested != nil {
		return envelope.Nested, nil
	}
	n := envelope.Nutrition
	return &n, nil
}

// stripCodeFences removes leading/trailing markdown code fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONObject recovers the outermost {...} span when the model
// surrounds the JSON with prose. Returns "" when no braces exist.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
