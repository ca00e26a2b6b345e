package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mealreel/mealreel/internal/domain"
	"github.com/mealreel/mealreel/internal/repository"
	"github.com/mealreel/mealreel/internal/service"
	"github.com/mealreel/mealreel/internal/storage"
	"github.com/mealreel/mealreel/internal/stores"
)

type fakeRecipeService struct {
	extractFn func(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error)
	getFn     func(ctx context.Context, id uint) (*repository.Recipe, error)
	deleteFn  func(ctx context.Context, id uint) (*service.DeleteResult, error)
	recipes   []repository.Recipe
}

func (f *fakeRecipeService) Extract(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error) {
	return f.extractFn(ctx, req)
}

func (f *fakeRecipeService) Get(ctx context.Context, id uint) (*repository.Recipe, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return nil, domain.ErrRecipeNotFound
}

func (f *fakeRecipeService) List(ctx context.Context, limit, offset int) ([]repository.Recipe, int64, error) {
	return f.recipes, int64(len(f.recipes)), nil
}

func (f *fakeRecipeService) Delete(ctx context.Context, id uint) (*service.DeleteResult, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil, domain.ErrRecipeNotFound
}

func (f *fakeRecipeService) GroceryList(ctx context.Context, id uint) (*stores.ShoppingList, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return nil, err
	}
	return &stores.ShoppingList{Items: []stores.ShoppingItem{{Name: "rice"}}}, nil
}

type fakeExporter struct {
	paths *storage.Paths
}

func (f *fakeExporter) ExportJSON(ctx context.Context, id uint) (string, error) {
	canonical := "exports/recipe_1.json"
	if err := os.WriteFile(f.paths.Abs(canonical), []byte(`{"title":"Garlic Butter Noodles"}`), 0644); err != nil {
		return "", err
	}
	return canonical, nil
}

func (f *fakeExporter) ExportPDF(ctx context.Context, id uint) (string, error) {
	return "", domain.ErrRecipeNotFound
}

func testRouter(t *testing.T, svc RecipeService) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	paths := storage.NewPaths(t.TempDir(), logger)
	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}

	h := NewRecipeHandler(svc, &fakeExporter{paths: paths}, paths, logger)

	r := chi.NewRouter()
	r.Post("/api/v1/recipes/extract", h.Extract)
	r.Get("/api/v1/recipes", h.List)
	r.Get("/api/v1/recipes/{recipeID}", h.Get)
	r.Delete("/api/v1/recipes/{recipeID}", h.Delete)
	r.Get("/api/v1/recipes/{recipeID}/grocery-list", h.GroceryList)
	r.Get("/api/v1/recipes/{recipeID}/export/json", h.ExportJSON)
	r.Get("/api/v1/recipes/{recipeID}/export/pdf", h.ExportPDF)
	return r
}

func TestExtract_ReturnsRecipe(t *testing.T) {
	svc := &fakeRecipeService{
		extractFn: func(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error) {
			if req.VideoURL != "https://www.tiktok.com/@cook/video/123" {
				t.Errorf("video_url = %q", req.VideoURL)
			}
			return &repository.Recipe{ID: 1, Title: "Garlic Butter Noodles", Platform: "tiktok"}, nil
		},
	}
	router := testRouter(t, svc)

	body := bytes.NewBufferString(`{"video_url": "https://www.tiktok.com/@cook/video/123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/extract", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got repository.Recipe
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Title != "Garlic Butter Noodles" {
		t.Errorf("title = %q", got.Title)
	}
}

func TestExtract_Validation(t *testing.T) {
	svc := &fakeRecipeService{
		extractFn: func(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error) {
			t.Fatal("service called for invalid request")
			return nil, nil
		},
	}
	router := testRouter(t, svc)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "video_url=x"},
		{"missing url", `{"model": "pro"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/extract", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestExtract_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantStage  string
	}{
		{
			name:       "unsupported platform",
			err:        domain.NewExtractError(domain.StageAcquiring, "u", false, domain.ErrUnsupportedPlatform),
			wantStatus: http.StatusUnprocessableEntity,
			wantStage:  "acquiring",
		},
		{
			name:       "download failed",
			err:        domain.NewExtractError(domain.StageAcquiring, "u", false, domain.ErrDownloadFailed),
			wantStatus: http.StatusBadGateway,
			wantStage:  "acquiring",
		},
		{
			name:       "analysis timeout",
			err:        domain.NewExtractError(domain.StageAnalyzing, "u", true, domain.ErrAnalysisTimeout),
			wantStatus: http.StatusGatewayTimeout,
			wantStage:  "analyzing",
		},
		{
			name:       "analysis failed",
			err:        domain.NewExtractError(domain.StageAnalyzing, "u", true, domain.ErrAnalysisFailed),
			wantStatus: http.StatusBadGateway,
			wantStage:  "analyzing",
		},
		{
			name:       "malformed response",
			err:        domain.NewExtractError(domain.StageNormalizing, "u", true, domain.ErrMalformedResponse),
			wantStatus: http.StatusBadGateway,
			wantStage:  "normalizing",
		},
		{
			name:       "persistence",
			err:        domain.NewExtractError(domain.StagePersisting, "u", true, domain.ErrPersistenceFailure),
			wantStatus: http.StatusInternalServerError,
			wantStage:  "persisting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRecipeService{
				extractFn: func(ctx context.Context, req domain.ExtractRequest) (*repository.Recipe, error) {
					return nil, tt.err
				},
			}
			router := testRouter(t, svc)

			body := bytes.NewBufferString(`{"video_url": "https://example.com/x"}`)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/extract", body)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp["stage"] != tt.wantStage {
				t.Errorf("stage = %q, want %q", resp["stage"], tt.wantStage)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	router := testRouter(t, &fakeRecipeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGet_InvalidID(t *testing.T) {
	router := testRouter(t, &fakeRecipeService{})

	for _, id := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/"+id, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, rec.Code)
		}
	}
}

func TestDelete_ReturnsFlags(t *testing.T) {
	svc := &fakeRecipeService{
		deleteFn: func(ctx context.Context, id uint) (*service.DeleteResult, error) {
			return &service.DeleteResult{RecipeID: id, ThumbnailDeleted: true}, nil
		},
	}
	router := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/recipes/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var result service.DeleteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.RecipeID != 7 || !result.ThumbnailDeleted || result.VideoDeleted {
		t.Errorf("result = %+v", result)
	}
}

func TestList_EmptyIsArray(t *testing.T) {
	router := testRouter(t, &fakeRecipeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"recipes":[]`) {
		t.Errorf("empty list did not serialize as []: %s", rec.Body.String())
	}
}

func TestExportJSON_ServesFile(t *testing.T) {
	svc := &fakeRecipeService{
		getFn: func(ctx context.Context, id uint) (*repository.Recipe, error) {
			return &repository.Recipe{ID: id}, nil
		},
	}
	router := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/1/export/json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "recipe_1.json") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Garlic Butter Noodles") {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestExportPDF_NotFound(t *testing.T) {
	router := testRouter(t, &fakeRecipeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recipes/1/export/pdf", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
