package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealreel/mealreel/internal/domain"
)

// Open opens the SQLite database, enables foreign key enforcement and
// migrates the recipe schema.
func Open(path string) (*gorm.DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&Recipe{}, &Ingredient{}, &CookingStep{}, &NutritionInfo{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return db, nil
}

// RecipeRepository stores and retrieves recipe graphs.
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a repository over an open database.
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create inserts the full recipe graph in one transaction. A video URL
// collision surfaces as domain.ErrDuplicateRecipe; any other failure
// wraps domain.ErrPersistenceFailure and leaves nothing written.
func (r *RecipeRepository) Create(ctx context.Context, recipe *Recipe) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(recipe).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateRecipe, recipe.VideoURL)
		}
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return nil
}

// GetByID loads a recipe with its full graph.
func (r *RecipeRepository) GetByID(ctx context.Context, id uint) (*Recipe, error) {
	var recipe Recipe
	err := r.preloaded(ctx).First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return &recipe, nil
}

// GetByURL loads the recipe extracted from a video URL, if any.
func (r *RecipeRepository) GetByURL(ctx context.Context, videoURL string) (*Recipe, error) {
	var recipe Recipe
	err := r.preloaded(ctx).Where("video_url = ?", videoURL).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return &recipe, nil
}

// List returns recipes newest first.
func (r *RecipeRepository) List(ctx context.Context, limit, offset int) ([]Recipe, error) {
	if limit <= 0 {
		limit = 50
	}
	var recipes []Recipe
	err := r.preloaded(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return recipes, nil
}

// Count returns the number of stored recipes.
func (r *RecipeRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Recipe{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	return n, nil
}

// Delete removes a recipe row; children cascade.
func (r *RecipeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Recipe{}, id)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (r *RecipeRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Ingredients").
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_number ASC")
		}).
		Preload("Nutrition")
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
