package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mealreel/mealreel/internal/api/handler"
	mw "github.com/mealreel/mealreel/internal/api/middleware"
	"github.com/mealreel/mealreel/internal/storage"
)

// NewRouter creates the HTTP router with all routes configured.
// maxExtractions bounds how many extractions run at once; further
// requests wait for a slot.
func NewRouter(
	recipeHandler *handler.RecipeHandler,
	healthHandler *handler.HealthHandler,
	paths *storage.Paths,
	maxExtractions int,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(10 * time.Minute))

	// CORS for the web frontend
	r.Use(mw.CORS)

	// Health endpoints
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// Downloaded thumbnails and generated exports
	fileServer(r, "/images", paths.CategoryDir(storage.CategoryImages))
	fileServer(r, "/videos", paths.CategoryDir(storage.CategoryVideos))
	fileServer(r, "/exports", paths.CategoryDir(storage.CategoryExports))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", healthHandler.Stats)

		r.Group(func(r chi.Router) {
			// Extraction downloads and analyzes a whole video; cap
			// how many run concurrently.
			r.Use(middleware.Throttle(maxExtractions))
			r.Post("/recipes/extract", recipeHandler.Extract)
		})

		r.Get("/recipes", recipeHandler.List)
		r.Get("/recipes/{recipeID}", recipeHandler.Get)
		r.Delete("/recipes/{recipeID}", recipeHandler.Delete)
		r.Get("/recipes/{recipeID}/grocery-list", recipeHandler.GroceryList)
		r.Get("/recipes/{recipeID}/export/json", recipeHandler.ExportJSON)
		r.Get("/recipes/{recipeID}/export/pdf", recipeHandler.ExportPDF)
	})

	return r
}

func fileServer(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
