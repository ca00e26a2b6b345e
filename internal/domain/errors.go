package domain

import "errors"

// Domain errors.
var (
	// ErrUnsupportedPlatform is returned when a video URL belongs to no known platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrDownloadFailed is returned when the video download fails or produces no file.
	ErrDownloadFailed = errors.New("video download failed")

	// ErrAnalysisTimeout is returned when the uploaded asset never becomes ready
	// within the polling budget.
	ErrAnalysisTimeout = errors.New("analysis asset readiness timed out")

	// ErrAnalysisFailed is returned when asset processing or content generation fails.
	ErrAnalysisFailed = errors.New("analysis generation failed")

	// ErrMalformedResponse is returned when the model output cannot be decoded
	// into a recipe.
	ErrMalformedResponse = errors.New("malformed analysis response")

	// ErrDuplicateRecipe is returned when a recipe for the same video URL
	// already exists.
	ErrDuplicateRecipe = errors.New("recipe already extracted for this video")

	// ErrRecipeNotFound is returned when a recipe cannot be found.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrPersistenceFailure is returned when writing the recipe graph fails for
	// a reason other than a duplicate video URL.
	ErrPersistenceFailure = errors.New("recipe persistence failed")
)

// ExtractError wraps an error with extraction context. Downloaded reports
// whether a video file had been fetched before the failure, so callers can
// tell "nothing downloaded" apart from "downloaded and discarded".
type ExtractError struct {
	Stage      ExtractStage
	VideoURL   string
	Downloaded bool
	Err        error
}

func (e *ExtractError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// NewExtractError creates a new ExtractError.
func NewExtractError(stage ExtractStage, videoURL string, downloaded bool, err error) *ExtractError {
	return &ExtractError{
		Stage:      stage,
		VideoURL:   videoURL,
		Downloaded: downloaded,
		Err:        err,
	}
}
