// Package repository persists the recipe graph in SQLite via GORM.
package repository

import (
	"time"

	"gorm.io/datatypes"
)

// Recipe is the root of the persisted graph. VideoURL is unique: one
// extraction per source video, enforced by the database.
type Recipe struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	VideoURL      string `gorm:"uniqueIndex;not null" json:"video_url"`
	Platform      string `gorm:"not null" json:"platform"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ThumbnailPath string `json:"thumbnail_path"`
	VideoPath     string `json:"video_path"`

	Ingredients []Ingredient   `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
	Steps       []CookingStep  `gorm:"constraint:OnDelete:CASCADE" json:"steps"`
	Nutrition   *NutritionInfo `gorm:"constraint:OnDelete:CASCADE" json:"nutrition"`

	CreatedAt time.Time `json:"created_at"`
}

// Ingredient is one recipe ingredient with optional store links.
type Ingredient struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	RecipeID   uint           `gorm:"index;not null" json:"-"`
	Name       string         `gorm:"not null" json:"name"`
	Quantity   string         `json:"quantity"`
	Unit       string         `json:"unit"`
	StoreLinks datatypes.JSON `json:"store_links"`
}

// CookingStep is one ordered instruction. StepNumber is 1-based and
// dense within a recipe.
type CookingStep struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	RecipeID    uint   `gorm:"index;not null" json:"-"`
	StepNumber  int    `gorm:"not null" json:"step_number"`
	Instruction string `gorm:"not null" json:"instruction"`
	Duration    string `json:"duration,omitempty"`
}

// NutritionInfo holds per-serving estimates. Nullable columns keep
// "unknown" distinct from zero.
type NutritionInfo struct {
	ID       uint     `gorm:"primaryKey" json:"-"`
	RecipeID uint     `gorm:"uniqueIndex;not null" json:"-"`
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fats     *float64 `json:"fats"`
	Fiber    *float64 `json:"fiber"`
	Servings *int     `json:"servings"`
}
