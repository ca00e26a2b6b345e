// Package gemini analyzes cooking videos with the Gemini API and
// normalizes the model output into recipe payloads.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/mealreel/mealreel/internal/config"
	"github.com/mealreel/mealreel/internal/domain"
)

// Client interfaces with Gemini for recipe extraction from videos.
type Client interface {
	// AnalyzeVideo uploads the video, waits for the asset to become
	// ready and runs one recipe-extraction generation over it. Returns
	// the raw model text.
	AnalyzeVideo(ctx context.Context, videoPath, model string) (string, error)
	// AnalyzeFrames runs recipe extraction over a set of still frames
	// instead of the full video.
	AnalyzeFrames(ctx context.Context, framePaths []string, model string) (string, error)
	// EnhanceNutrition estimates per-serving nutrition for an
	// ingredient list. Best effort: any failure yields all-null values.
	EnhanceNutrition(ctx context.Context, title string, ingredients []domain.IngredientItem) *domain.Nutrition
}

// AssetState mirrors the processing state of an uploaded file asset.
type AssetState string

const (
	AssetStateUnspecified AssetState = "STATE_UNSPECIFIED"
	AssetStateProcessing  AssetState = "PROCESSING"
	AssetStateActive      AssetState = "ACTIVE"
	AssetStateFailed      AssetState = "FAILED"
)

// asset is an uploaded file pending or ready for generation. Its
// identity lives only for the duration of one analysis call.
type asset struct {
	Name     string
	URI      string
	MIMEType string
	State    AssetState
}

// generateRequest carries one generation call to the backend.
type generateRequest struct {
	Model           string
	Prompt          string
	FileURI         string
	FileMIME        string
	Frames          [][]byte
	Temperature     float32
	TopP            float32
	MaxOutputTokens int32
	MaxThinking     bool
	HighResolution  bool
}

// backend is the transport seam between the client and the Gemini API.
type backend interface {
	UploadVideo(ctx context.Context, path string) (*asset, error)
	AssetState(ctx context.Context, name string) (AssetState, error)
	Generate(ctx context.Context, req generateRequest) (string, error)
}

// AssetTimeoutError reports that an uploaded asset never became ready
// within the polling budget.
type AssetTimeoutError struct {
	LastState AssetState
	Attempts  int
}

func (e *AssetTimeoutError) Error() string {
	return "asset not ready after " + strconv.Itoa(e.Attempts) + " polls, last state " + string(e.LastState)
}

func (e *AssetTimeoutError) Unwrap() error {
	return domain.ErrAnalysisTimeout
}

// GenAIClient implements Client on the Gemini API.
type GenAIClient struct {
	backend backend
	cfg     config.AnalysisConfig
	logger  *slog.Logger
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg config.AnalysisConfig, logger *slog.Logger) (*GenAIClient, error) {
	b, err := newGenAIBackend(ctx, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create gemini backend: %w", err)
	}
	return newClientWithBackend(b, cfg, logger), nil
}

func newClientWithBackend(b backend, cfg config.AnalysisConfig, logger *slog.Logger) *GenAIClient {
	return &GenAIClient{
		backend: b,
		cfg:     cfg,
		logger:  logger.With("component", "gemini"),
	}
}

// AnalyzeVideo uploads the video and runs one recipe extraction over it.
func (c *GenAIClient) AnalyzeVideo(ctx context.Context, videoPath, model string) (string, error) {
	a, err := c.backend.UploadVideo(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("%w: upload video: %v", domain.ErrAnalysisFailed, err)
	}

	c.logger.Info("video uploaded for analysis", "asset", a.Name, "state", a.State)

	if err := c.waitForAsset(ctx, a); err != nil {
		return "", err
	}

	text, err := c.backend.Generate(ctx, generateRequest{
		Model:           c.model(model),
		Prompt:          recipePrompt,
		FileURI:         a.URI,
		FileMIME:        a.MIMEType,
		Temperature:     analysisTemperature,
		TopP:            analysisTopP,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		MaxThinking:     true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", domain.ErrAnalysisFailed)
	}
	return text, nil
}

// waitForAsset polls until the asset is ready. The loop performs
// exactly pollBudget/pollInterval polls before giving up, suspends
// between polls and aborts as soon as ctx is done.
func (c *GenAIClient) waitForAsset(ctx context.Context, a *asset) error {
	switch a.State {
	case AssetStateActive:
		return nil
	case AssetStateFailed:
		return fmt.Errorf("%w: asset processing failed", domain.ErrAnalysisFailed)
	}

	attempts := int(c.cfg.PollBudget / c.cfg.PollInterval)
	lastState := a.State

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		state, err := c.backend.AssetState(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("%w: poll asset: %v", domain.ErrAnalysisFailed, err)
		}
		lastState = state

		switch state {
		case AssetStateActive:
			c.logger.Debug("asset ready", "asset", a.Name, "polls", i+1)
			return nil
		case AssetStateFailed:
			return fmt.Errorf("%w: asset processing failed", domain.ErrAnalysisFailed)
		}
	}

	return &AssetTimeoutError{LastState: lastState, Attempts: attempts}
}

// AnalyzeFrames runs recipe extraction over still frames. Frames are
// read concurrently; unreadable ones are skipped.
func (c *GenAIClient) AnalyzeFrames(ctx context.Context, framePaths []string, model string) (string, error) {
	if len(framePaths) > c.cfg.MaxFrames {
		framePaths = framePaths[:c.cfg.MaxFrames]
	}

	frames := make([][]byte, len(framePaths))
	var wg sync.WaitGroup
	for i, path := range framePaths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			data, err := os.ReadFile(path)
			if err != nil {
				c.logger.Warn("skipping unreadable frame", "frame", path, "error", err)
				return
			}
			frames[i] = data
		}(i, path)
	}
	wg.Wait()

	loaded := frames[:0]
	for _, f := range frames {
		if f != nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) == 0 {
		return "", fmt.Errorf("%w: no readable frames", domain.ErrAnalysisFailed)
	}

	text, err := c.backend.Generate(ctx, generateRequest{
		Model:           c.model(model),
		Prompt:          recipePrompt,
		Frames:          loaded,
		Temperature:     analysisTemperature,
		TopP:            analysisTopP,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		MaxThinking:     true,
		HighResolution:  true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAnalysisFailed, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", domain.ErrAnalysisFailed)
	}
	return text, nil
}

// EnhanceNutrition estimates nutrition for an ingredient list. Every
// failure path returns all-null values and logs a warning.
func (c *GenAIClient) EnhanceNutrition(ctx context.Context, title string, ingredients []domain.IngredientItem) *domain.Nutrition {
	empty := &domain.Nutrition{}
	if len(ingredients) == 0 {
		return empty
	}

	text, err := c.backend.Generate(ctx, generateRequest{
		Model:           c.model(""),
		Prompt:          nutritionPrompt(title, ingredients),
		Temperature:     nutritionTemperature,
		TopP:            nutritionTopP,
		MaxOutputTokens: nutritionMaxTokens,
	})
	if err != nil {
		c.logger.Warn("nutrition enhancement failed", "title", title, "error", err)
		return empty
	}

	nutrition, err := ParseNutrition(text)
	if err != nil {
		c.logger.Warn("nutrition response unusable", "title", title, "error", err)
		return empty
	}
	return nutrition
}

func (c *GenAIClient) model(override string) string {
	if override != "" {
		return override
	}
	return c.cfg.Model
}
