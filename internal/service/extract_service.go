package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/mealreel/mealreel/internal/config"
	"github.com/mealreel/mealreel/internal/domain"
	"github.com/mealreel/mealreel/internal/repository"
	"github.com/mealreel/mealreel/internal/storage"
	"github.com/mealreel/mealreel/internal/stores"
	"github.com/mealreel/mealreel/pkg/gemini"
)

// Acquirer downloads a platform video and its thumbnail.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (*domain.AcquiredVideo, error)
}

// FrameExtractor samples still frames for fallback analysis.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, outputDir string, count int) ([]string, error)
}

// ExtractService orchestrates the extraction pipeline: dedup check,
// acquisition, analysis, normalization, assembly, persistence, cleanup.
type ExtractService struct {
	recipes  *repository.RecipeRepository
	acquirer Acquirer
	analyzer gemini.Client
	frames   FrameExtractor
	paths    *storage.Paths
	cfg      config.AnalysisConfig
	logger   *slog.Logger
}

// NewExtractService creates a new extraction service.
func NewExtractService(
	recipes *repository.RecipeRepository,
	acquirer Acquirer,
	analyzer gemini.Client,
	frames FrameExtractor,
	paths *storage.Paths,
	cfg config.AnalysisConfig,
	logger *slog.Logger,
) *ExtractService {
	return &ExtractService{
		recipes:  recipes,
		acquirer: acquirer,
		analyzer: analyzer,
		frames:   frames,
		paths:    paths,
		cfg:      cfg,
		logger:   logger.With("component", "extract"),
	}
}

// Extract turns a video URL into a persisted recipe. A URL that was
// already extracted returns the stored recipe without touching the
// platform again. Once a video has been downloaded, the raw file is
// removed exactly once when the pipeline reaches a terminal state,
// success or failure; the thumbnail is always retained.
func (s *ExtractService) Extract(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error) {
	logger := s.logger.With("video_url", req.VideoURL, "extraction_id", uuid.NewString())

	existing, err := s.recipes.GetByURL(ctx, req.VideoURL)
	if err == nil {
		logger.Info("recipe already extracted", "recipe_id", existing.ID)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrRecipeNotFound) {
		return nil, domain.NewExtractError(domain.StageDedupCheck, req.VideoURL, false, err)
	}

	acquired, err := s.acquirer.Acquire(ctx, req.VideoURL)
	if err != nil {
		return nil, domain.NewExtractError(domain.StageAcquiring, req.VideoURL, false, err)
	}
	defer s.removeRawVideo(logger, acquired.VideoPath)

	raw, err := s.analyze(ctx, acquired, req.Model)
	if err != nil {
		return nil, domain.NewExtractError(domain.StageAnalyzing, req.VideoURL, true, err)
	}

	payload, err := gemini.ParseRecipe(raw)
	if err != nil {
		return nil, domain.NewExtractError(domain.StageNormalizing, req.VideoURL, true, err)
	}

	// Nutrition rarely appears on screen; fill the gap when the model
	// found ingredients but no numbers. Strictly best effort.
	if payload.Nutrition.IsEmpty() && len(payload.Ingredients) > 0 {
		payload.Nutrition = *s.analyzer.EnhanceNutrition(ctx, payload.Title, payload.Ingredients)
	}

	recipe, err := s.assemble(req, acquired, payload)
	if err != nil {
		return nil, domain.NewExtractError(domain.StageAssembling, req.VideoURL, true, err)
	}

	if err := s.recipes.Create(ctx, recipe); err != nil {
		if errors.Is(err, domain.ErrDuplicateRecipe) {
			// Another request finished the same URL first; its record wins.
			winner, getErr := s.recipes.GetByURL(ctx, req.VideoURL)
			if getErr == nil {
				logger.Info("lost extraction race, returning winner", "recipe_id", winner.ID)
				return winner, nil
			}
			err = getErr
		}
		return nil, domain.NewExtractError(domain.StagePersisting, req.VideoURL, true, err)
	}

	logger.Info("recipe extracted",
		"recipe_id", recipe.ID,
		"title", recipe.Title,
		"ingredients", len(recipe.Ingredients),
		"steps", len(recipe.Steps))

	return recipe, nil
}

// analyze runs video analysis, falling back to frame analysis only
// when the deployment explicitly enables it. Cancellation never falls
// back.
func (s *ExtractService) analyze(ctx context.Context, acquired *domain.AcquiredVideo, model string) (string, error) {
	videoAbs := s.paths.Abs(acquired.VideoPath)

	raw, err := s.analyzer.AnalyzeVideo(ctx, videoAbs, model)
	if err == nil {
		return raw, nil
	}
	if !s.cfg.FrameFallback || ctx.Err() != nil {
		return "", err
	}

	s.logger.Warn("video analysis failed, trying frame fallback", "error", err)

	framesDir, dirErr := os.MkdirTemp("", "mealreel-frames-*")
	if dirErr != nil {
		return "", err
	}
	defer os.RemoveAll(framesDir)

	framePaths, frameErr := s.frames.ExtractFrames(ctx, videoAbs, framesDir, s.cfg.MaxFrames)
	if frameErr != nil {
		s.logger.Warn("frame extraction failed", "error", frameErr)
		return "", err
	}

	return s.analyzer.AnalyzeFrames(ctx, framePaths, model)
}

// assemble builds the persistable graph and attaches store links.
func (s *ExtractService) assemble(req domain.ExtractRequest, acquired *domain.AcquiredVideo, payload *domain.RecipePayload) (*repository.Recipe, error) {
	recipe := &repository.Recipe{
		VideoURL:      req.VideoURL,
		Platform:      acquired.Platform.String(),
		Title:         payload.Title,
		Description:   payload.Description,
		ThumbnailPath: acquired.ThumbnailPath,
		VideoPath:     acquired.VideoPath,
		Nutrition: &repository.NutritionInfo{
			Calories: payload.Nutrition.Calories,
			Protein:  payload.Nutrition.Protein,
			Carbs:    payload.Nutrition.Carbs,
			Fats:     payload.Nutrition.Fats,
			Fiber:    payload.Nutrition.Fiber,
			Servings: payload.Nutrition.Servings,
		},
	}

	for _, ing := range payload.Ingredients {
		links, err := json.Marshal(stores.IngredientLinks(ing.Name))
		if err != nil {
			return nil, fmt.Errorf("encode store links: %w", err)
		}
		recipe.Ingredients = append(recipe.Ingredients, repository.Ingredient{
			Name:       ing.Name,
			Quantity:   ing.Quantity,
			Unit:       ing.Unit,
			StoreLinks: datatypes.JSON(links),
		})
	}

	for _, step := range payload.Steps {
		recipe.Steps = append(recipe.Steps, repository.CookingStep{
			StepNumber:  step.Number,
			Instruction: step.Instruction,
			Duration:    step.Duration,
		})
	}

	return recipe, nil
}

// removeRawVideo deletes the downloaded video at terminal state.
// Failures here are logged and never surfaced.
func (s *ExtractService) removeRawVideo(logger *slog.Logger, videoPath string) {
	removed, err := s.paths.Remove(videoPath)
	if err != nil {
		logger.Error("raw video cleanup failed", "video", videoPath, "error", err)
		return
	}
	if removed {
		logger.Debug("raw video removed", "video", videoPath)
	}
}

// DeleteResult reports what a recipe deletion actually removed.
type DeleteResult struct {
	RecipeID         uint `json:"recipe_id"`
	VideoDeleted     bool `json:"video_deleted"`
	ThumbnailDeleted bool `json:"thumbnail_deleted"`
}

// Delete removes a recipe row and whatever of its files still exist.
// Missing files yield false flags, not errors; the row must go.
func (s *ExtractService) Delete(ctx context.Context, id uint) (*DeleteResult, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{RecipeID: id}

	result.VideoDeleted = s.removeFile(recipe.VideoPath)
	result.ThumbnailDeleted = s.removeFile(recipe.ThumbnailPath)

	if err := s.recipes.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.logger.Info("recipe deleted",
		"recipe_id", id,
		"video_deleted", result.VideoDeleted,
		"thumbnail_deleted", result.ThumbnailDeleted)

	return result, nil
}

func (s *ExtractService) removeFile(canonical string) bool {
	removed, err := s.paths.Remove(canonical)
	if err != nil {
		s.logger.Error("file removal failed", "path", canonical, "error", err)
		return false
	}
	return removed
}

// Get returns a stored recipe by id.
func (s *ExtractService) Get(ctx context.Context, id uint) (*repository.Recipe, error) {
	return s.recipes.GetByID(ctx, id)
}

// List returns stored recipes newest first, with the total count.
func (s *ExtractService) List(ctx context.Context, limit, offset int) ([]repository.Recipe, int64, error) {
	recipes, err := s.recipes.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.recipes.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// GroceryList builds the shopping list for a stored recipe.
func (s *ExtractService) GroceryList(ctx context.Context, id uint) (*stores.ShoppingList, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items := make([]domain.IngredientItem, 0, len(recipe.Ingredients))
	for _, ing := range recipe.Ingredients {
		items = append(items, domain.IngredientItem{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}
	return stores.BuildShoppingList(items), nil
}
