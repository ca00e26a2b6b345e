package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/mealreel/mealreel/internal/repository"
	"github.com/mealreel/mealreel/internal/storage"
)

// ExportService renders stored recipes to shareable files under the
// exports directory.
type ExportService struct {
	recipes *repository.RecipeRepository
	paths   *storage.Paths
	logger  *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(recipes *repository.RecipeRepository, paths *storage.Paths, logger *slog.Logger) *ExportService {
	return &ExportService{
		recipes: recipes,
		paths:   paths,
		logger:  logger.With("component", "export"),
	}
}

// ExportJSON writes the full recipe graph as indented JSON and returns
// the canonical path of the file.
func (s *ExportService) ExportJSON(ctx context.Context, id uint) (string, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(recipe, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode recipe: %w", err)
	}

	canonical := storage.CategoryExports + "/recipe_" + strconv.FormatUint(uint64(id), 10) + ".json"
	if err := os.WriteFile(s.paths.Abs(canonical), data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	s.logger.Info("recipe exported", "recipe_id", id, "format", "json", "path", canonical)
	return canonical, nil
}

// ExportPDF renders the recipe as a printable PDF and returns the
// canonical path of the file.
func (s *ExportService) ExportPDF(ctx context.Context, id uint) (string, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, recipe.Title, "", "L", false)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, "Source: "+recipe.VideoURL, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	// Thumbnail, when the file still exists
	if recipe.ThumbnailPath != "" {
		thumbAbs := s.paths.Abs(recipe.ThumbnailPath)
		if _, err := os.Stat(thumbAbs); err == nil {
			pdf.ImageOptions(thumbAbs, pdf.GetX(), pdf.GetY(), 80, 0, true,
				fpdf.ImageOptions{ImageType: "JPG", ReadDpi: true}, 0, "")
			pdf.Ln(4)
		}
	}

	if recipe.Description != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, recipe.Description, "", "L", false)
		pdf.Ln(4)
	}

	s.writeNutritionTable(pdf, recipe.Nutrition)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Ingredients", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, ing := range recipe.Ingredients {
		line := "- " + ing.Name
		if ing.Quantity != "" {
			line = "- " + ing.Quantity + " " + ing.Unit + " " + ing.Name
		}
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Steps", "", 1, "L", false, 0, "")
	for _, step := range recipe.Steps {
		pdf.SetFont("Helvetica", "B", 11)
		header := strconv.Itoa(step.StepNumber) + "."
		if step.Duration != "" {
			header += " (" + step.Duration + ")"
		}
		pdf.CellFormat(0, 6, header, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, step.Instruction, "", "L", false)
		pdf.Ln(2)
	}

	canonical := storage.CategoryExports + "/recipe_" + strconv.FormatUint(uint64(id), 10) + ".pdf"
	if err := pdf.OutputFileAndClose(s.paths.Abs(canonical)); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	s.logger.Info("recipe exported", "recipe_id", id, "format", "pdf", "path", canonical)
	return canonical, nil
}

func (s *ExportService) writeNutritionTable(pdf *fpdf.Fpdf, n *repository.NutritionInfo) {
	if n == nil {
		return
	}

	rows := []struct {
		label string
		value string
	}{
		{"Calories", formatNutrient(n.Calories, "kcal")},
		{"Protein", formatNutrient(n.Protein, "g")},
		{"Carbs", formatNutrient(n.Carbs, "g")},
		{"Fats", formatNutrient(n.Fats, "g")},
		{"Fiber", formatNutrient(n.Fiber, "g")},
	}
	if n.Servings != nil {
		rows = append(rows, struct{ label, value string }{"Servings", strconv.Itoa(*n.Servings)})
	}

	populated := false
	for _, r := range rows {
		if r.value != "" {
			populated = true
			break
		}
	}
	if !populated {
		return
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Nutrition (per serving)", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		pdf.CellFormat(40, 6, r.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, r.value, "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func formatNutrient(v *float64, unit string) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}
