package domain

import (
	"time"
)

// RecipeID is a unique identifier for a stored recipe.
type RecipeID uint

// Platform identifies the social network a video was sourced from.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
)

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// ExtractStage represents the pipeline stage an extraction is in.
type ExtractStage string

const (
	StageDedupCheck  ExtractStage = "dedup_check"
	StageAcquiring   ExtractStage = "acquiring"
	StageAnalyzing   ExtractStage = "analyzing"
	StageNormalizing ExtractStage = "normalizing"
	StageAssembling  ExtractStage = "assembling"
	StagePersisting  ExtractStage = "persisting"
	StageCleanup     ExtractStage = "cleanup"
)

// AcquiredVideo is the result of downloading a video from a platform.
// Paths are canonical category-relative paths ("videos/...", "images/...").
// ThumbnailPath is empty when frame extraction did not produce one.
type AcquiredVideo struct {
	Platform      Platform
	VideoPath     string
	ThumbnailPath string
}

// IngredientItem is a single ingredient as reported by analysis.
type IngredientItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// StepItem is a single cooking step. Number is 1-based and dense
// across a recipe's steps.
type StepItem struct {
	Number      int    `json:"step_number"`
	Instruction string `json:"instruction"`
	Duration    string `json:"duration,omitempty"`
}

// Nutrition holds per-serving nutrition estimates. Every field is a
// pointer so "unknown" survives serialization as null rather than zero.
type Nutrition struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Carbs    *float64 `json:"carbs"`
	Fats     *float64 `json:"fats"`
	Fiber    *float64 `json:"fiber"`
	Servings *int     `json:"servings"`
}

// IsEmpty reports whether no nutrition field is set.
func (n *Nutrition) IsEmpty() bool {
	if n == nil {
		return true
	}
	return n.Calories == nil && n.Protein == nil && n.Carbs == nil &&
		n.Fats == nil && n.Fiber == nil && n.Servings == nil
}

// RecipePayload is the normalized output of video analysis, before
// store links are attached and the graph is persisted.
type RecipePayload struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Ingredients []IngredientItem `json:"ingredients"`
	Steps       []StepItem       `json:"steps"`
	Nutrition   Nutrition        `json:"nutrition"`
}

// ExtractRequest is an inbound extraction order.
type ExtractRequest struct {
	VideoURL    string
	Model       string
	RequestedAt time.Time
}
