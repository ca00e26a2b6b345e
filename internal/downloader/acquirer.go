package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mealreel/mealreel/internal/domain"
	"github.com/mealreel/mealreel/internal/storage"
)

// Thumbnailer extracts a single representative frame from a video.
type Thumbnailer interface {
	ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error
}

// Acquirer downloads a platform video and prepares its thumbnail.
// It owns no file lifetimes; callers decide when downloads are removed.
type Acquirer struct {
	providers   map[domain.Platform]Provider
	paths       *storage.Paths
	thumbnailer Thumbnailer
	logger      *slog.Logger
}

// NewAcquirer creates an acquirer over the given providers.
func NewAcquirer(providers map[domain.Platform]Provider, paths *storage.Paths, thumbnailer Thumbnailer, logger *slog.Logger) *Acquirer {
	return &Acquirer{
		providers:   providers,
		paths:       paths,
		thumbnailer: thumbnailer,
		logger:      logger.With("component", "acquirer"),
	}
}

// Acquire downloads the video behind url and extracts a thumbnail.
// Platform detection happens before any I/O. A missing output file is a
// download failure; a failed thumbnail is not, and yields an empty
// ThumbnailPath. Returned paths are canonical category-relative.
func (a *Acquirer) Acquire(ctx context.Context, url string) (*domain.AcquiredVideo, error) {
	platform, err := DetectPlatform(url)
	if err != nil {
		return nil, err
	}

	provider, ok := a.providers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no provider for %s", domain.ErrUnsupportedPlatform, platform)
	}

	a.logger.Info("downloading video", "platform", platform, "url", url)

	videoPath, err := provider.Fetch(ctx, url, a.paths.CategoryDir(storage.CategoryVideos))
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: downloaded file missing: %v", domain.ErrDownloadFailed, err)
	}

	acquired := &domain.AcquiredVideo{
		Platform:  platform,
		VideoPath: a.paths.Normalize(videoPath),
	}

	thumbPath := a.thumbnailPath(videoPath)
	if err := a.thumbnailer.ExtractThumbnail(ctx, videoPath, thumbPath); err != nil {
		a.logger.Warn("thumbnail extraction failed",
			"video", acquired.VideoPath,
			"error", err)
	} else {
		acquired.ThumbnailPath = a.paths.Normalize(thumbPath)
	}

	a.logger.Info("video acquired",
		"platform", platform,
		"video", acquired.VideoPath,
		"thumbnail", acquired.ThumbnailPath)

	return acquired, nil
}

func (a *Acquirer) thumbnailPath(videoPath string) string {
	base := filepath.Base(videoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(a.paths.CategoryDir(storage.CategoryImages), name+"_thumb.jpg")
}
