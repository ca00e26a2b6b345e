// Package storage manages the on-disk data layout and canonical
// category-relative paths for media and export files.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// File categories under the data root.
const (
	CategoryImages  = "images"
	CategoryVideos  = "videos"
	CategoryExports = "exports"
)

var categories = []string{CategoryImages, CategoryVideos, CategoryExports}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

var exportExtensions = map[string]bool{
	".json": true,
	".pdf":  true,
}

// Paths resolves between canonical category-relative paths
// ("videos/abc.mp4") and absolute locations under the data root.
type Paths struct {
	root   string
	logger *slog.Logger
}

// NewPaths creates a Paths anchored at the given data root.
func NewPaths(root string, logger *slog.Logger) *Paths {
	return &Paths{
		root:   filepath.Clean(root),
		logger: logger.With("component", "storage"),
	}
}

// Root returns the data root directory.
func (p *Paths) Root() string {
	return p.root
}

// EnsureDirs creates the category directories under the data root.
func (p *Paths) EnsureDirs() error {
	for _, cat := range categories {
		dir := filepath.Join(p.root, cat)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s directory: %w", cat, err)
		}
	}
	return nil
}

// Normalize converts any path shape a downloader or exporter may hand
// back into the canonical "{category}/{filename}" form. It accepts both
// slash styles, never fails, and performs no filesystem access.
//
// Resolution order: a path under the data root keeps the category of the
// directory it sits in; otherwise the first segment naming a known
// category wins; otherwise the category is inferred from the extension.
func (p *Paths) Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	cleaned := path.Clean(strings.ReplaceAll(raw, `\`, "/"))
	base := path.Base(cleaned)
	if base == "." || base == "/" {
		base = ""
	}

	// Under the data root: trust the directory the file landed in.
	root := strings.ReplaceAll(p.root, `\`, "/")
	if rel, ok := strings.CutPrefix(cleaned, root+"/"); ok {
		if cat, rest, found := strings.Cut(rel, "/"); found && isCategory(cat) {
			return cat + "/" + path.Base(rest)
		}
	}

	// Any segment naming a category re-anchors the path there.
	for _, seg := range strings.Split(cleaned, "/") {
		if isCategory(seg) {
			return seg + "/" + base
		}
	}

	cat := categoryForExtension(path.Ext(base))
	p.logger.Warn("normalizing path with no category hint",
		"path", raw,
		"assumed_category", cat)
	return cat + "/" + base
}

// Abs returns the absolute filesystem location for a canonical path.
func (p *Paths) Abs(canonical string) string {
	return filepath.Join(p.root, filepath.FromSlash(canonical))
}

// CategoryDir returns the absolute directory for a category.
func (p *Paths) CategoryDir(category string) string {
	return filepath.Join(p.root, category)
}

// Remove deletes the file behind a canonical path. It reports whether a
// file was actually removed; a missing file is not an error.
func (p *Paths) Remove(canonical string) (bool, error) {
	if canonical == "" {
		return false, nil
	}
	err := os.Remove(p.Abs(canonical))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove %s: %w", canonical, err)
	}
	return true, nil
}

func isCategory(s string) bool {
	for _, cat := range categories {
		if s == cat {
			return true
		}
	}
	return false
}

func categoryForExtension(ext string) string {
	ext = strings.ToLower(ext)
	switch {
	case imageExtensions[ext]:
		return CategoryImages
	case exportExtensions[ext]:
		return CategoryExports
	default:
		return CategoryVideos
	}
}
