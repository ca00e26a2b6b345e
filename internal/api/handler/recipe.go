package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mealreel/mealreel/internal/domain"
	"github.com/mealreel/mealreel/internal/repository"
	"github.com/mealreel/mealreel/internal/service"
	"github.com/mealreel/mealreel/internal/storage"
	"github.com/mealreel/mealreel/internal/stores"
)

// RecipeService is the extraction pipeline surface the handler needs.
type RecipeService interface {
	Extract(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error)
	Get(ctx context.Context, id uint) (*repository.Recipe, error)
	List(ctx context.Context, limit, offset int) ([]repository.Recipe, int64, error)
	Delete(ctx context.Context, id uint) (*service.DeleteResult, error)
	GroceryList(ctx context.Context, id uint) (*stores.ShoppingList, error)
}

// Exporter renders a stored recipe to a file and returns its canonical path.
type Exporter interface {
	ExportJSON(ctx context.Context, id uint) (string, error)
	ExportPDF(ctx context.Context, id uint) (string, error)
}

// RecipeHandler handles recipe-related HTTP requests.
type RecipeHandler struct {
	svc      RecipeService
	exporter Exporter
	paths    *storage.Paths
	logger   *slog.Logger
}

// NewRecipeHandler creates a new recipe handler.
func NewRecipeHandler(svc RecipeService, exporter Exporter, paths *storage.Paths, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		svc:      svc,
		exporter: exporter,
		paths:    paths,
		logger:   logger,
	}
}

// ExtractRequest is the JSON request body for recipe extraction.
type ExtractRequest struct {
	VideoURL string `json:"video_url"`
	Model    string `json:"model,omitempty"`
}

// ListResponse contains a paginated recipe list.
type ListResponse struct {
	Recipes []repository.Recipe `json:"recipes"`
	Total   int64               `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// Extract handles POST /api/v1/recipes/extract
func (h *RecipeHandler) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.VideoURL == "" {
		h.writeError(w, http.StatusBadRequest, "video_url is required", "")
		return
	}

	recipe, err := h.svc.Extract(r.Context(), domain.ExtractRequest{
		VideoURL: req.VideoURL,
		Model:    req.Model,
	})
	if err != nil {
		status := statusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("extraction failed", "video_url", req.VideoURL, "error", err)
		}
		h.writeError(w, status, err.Error(), stageOf(err))
		return
	}

	h.writeJSON(w, http.StatusOK, recipe)
}

// List handles GET /api/v1/recipes
func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	recipes, total, err := h.svc.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list recipes", "")
		return
	}

	if recipes == nil {
		recipes = []repository.Recipe{}
	}
	h.writeJSON(w, http.StatusOK, ListResponse{
		Recipes: recipes,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

// Get handles GET /api/v1/recipes/{recipeID}
func (h *RecipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	recipe, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, recipe)
}

// Delete handles DELETE /api/v1/recipes/{recipeID}
func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GroceryList handles GET /api/v1/recipes/{recipeID}/grocery-list
func (h *RecipeHandler) GroceryList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	list, err := h.svc.GroceryList(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

// ExportJSON handles GET /api/v1/recipes/{recipeID}/export/json
func (h *RecipeHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/json", h.exporter.ExportJSON)
}

// ExportPDF handles GET /api/v1/recipes/{recipeID}/export/pdf
func (h *RecipeHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/pdf", h.exporter.ExportPDF)
}

func (h *RecipeHandler) export(w http.ResponseWriter, r *http.Request, contentType string, render func(context.Context, uint) (string, error)) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	canonical, err := render(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(canonical)+`"`)
	http.ServeFile(w, r, h.paths.Abs(canonical))
}

func (h *RecipeHandler) recipeID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "recipeID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		h.writeError(w, http.StatusBadRequest, "invalid recipe ID", "")
		return 0, false
	}
	return uint(id), true
}

func (h *RecipeHandler) handleLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrRecipeNotFound) {
		h.writeError(w, http.StatusNotFound, "recipe not found", "")
		return
	}
	h.logger.Error("recipe operation failed", "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal error", "")
}

// statusForError maps pipeline failures to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedPlatform):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAnalysisTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrDownloadFailed),
		errors.Is(err, domain.ErrAnalysisFailed),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrRecipeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func stageOf(err error) string {
	var extractErr *domain.ExtractError
	if errors.As(err, &extractErr) {
		return string(extractErr.Stage)
	}
	return ""
}

func (h *RecipeHandler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *RecipeHandler) writeError(w http.ResponseWriter, status int, message, stage string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": message}
	if stage != "" {
		body["stage"] = stage
	}
	json.NewEncoder(w).Encode(body)
}
