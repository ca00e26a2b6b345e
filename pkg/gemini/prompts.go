package gemini

import (
	"fmt"
	"strings"

	"github.com/mealreel/mealreel/internal/domain"
)

// recipePrompt asks for the exact JSON shape ParseRecipe expects.
// Identical for video and frame analysis so both paths normalize the
// same way.
const recipePrompt = `Analyze this cooking video and extract the complete recipe.

Return ONLY a valid JSON object with exactly this structure:
{
  "title": "Recipe name",
  "description": "Brief description of the dish",
  "ingredients": [
    {"name": "ingredient name", "quantity": "amount", "unit": "unit of measurement"}
  ],
  "steps": [
    {"step_number": 1, "instruction": "what to do", "duration": "time estimate if shown"}
  ],
  "nutrition": {
    "calories": null,
    "protein": null,
    "carbs": null,
    "fats": null,
    "fiber": null,
    "servings": null
  }
}

Rules:
- step_number values must start at 1 and increase by 1 with no gaps
- Use null for any nutrition value not clearly stated in the video
- Quantities and units exactly as shown or spoken; empty string when absent
- Include every ingredient that appears, even garnishes
- Do not wrap the JSON in markdown code fences
- Do not add any text before or after the JSON object`

// nutritionPrompt asks for per-serving estimates over a known
// ingredient list.
func nutritionPrompt(title string, ingredients []domain.IngredientItem) string {
	var sb strings.Builder
	sb.WriteString("Estimate the per-serving nutrition for this recipe.\n\n")
	if title != "" {
		fmt.Fprintf(&sb, "Recipe: %s\n", title)
	}
	sb.WriteString("Ingredients:\n")
	for _, ing := range ingredients {
		sb.WriteString("- ")
		if ing.Quantity != "" {
			sb.WriteString(ing.Quantity)
			sb.WriteString(" ")
		}
		if ing.Unit != "" {
			sb.WriteString(ing.Unit)
			sb.WriteString(" ")
		}
		sb.WriteString(ing.Name)
		sb.WriteString("\n")
	}
	sb.WriteString(`
Return ONLY a valid JSON object with exactly this structure:
{"calories": 0, "protein": 0, "carbs": 0, "fats": 0, "fiber": 0, "servings": 1}

Values are numbers (grams for protein/carbs/fats/fiber). Use null for
anything you cannot reasonably estimate. No markdown, no explanation.`)
	return sb.String()
}
