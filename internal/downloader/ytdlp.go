package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mealreel/mealreel/internal/domain"
)

// Provider fetches a platform video into the target directory and
// returns the absolute path of the downloaded file.
type Provider interface {
	Fetch(ctx context.Context, url, outputDir string) (string, error)
}

// YtDlpRunner invokes the yt-dlp binary to download a single video.
type YtDlpRunner struct {
	binaryPath string
	timeout    time.Duration
	userAgent  string
}

// NewYtDlpRunner creates a runner for the given yt-dlp binary.
func NewYtDlpRunner(binaryPath string, timeout time.Duration, userAgent string) *YtDlpRunner {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YtDlpRunner{
		binaryPath: binaryPath,
		timeout:    timeout,
		userAgent:  userAgent,
	}
}

// Download fetches the video behind url into outputDir, named by the
// platform's video id. Returns the absolute path yt-dlp reports for the
// final file.
func (r *YtDlpRunner) Download(ctx context.Context, url, outputDir string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := []string{
		"--no-warnings",
		"--no-playlist",
		"--no-simulate",
		"-f", "mp4/b",
		"-o", filepath.Join(outputDir, "%(id)s.%(ext)s"),
		// Print the final location after any post-processing move.
		"--print", "after_move:filepath",
	}
	if r.userAgent != "" {
		args = append(args, "--user-agent", r.userAgent)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, r.binaryPath, args...)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	filePath := strings.TrimSpace(out.String())
	if filePath == "" {
		return "", fmt.Errorf("yt-dlp reported no output file")
	}
	// Multiple lines can appear when a playlist sneaks through; take the first.
	if idx := strings.IndexByte(filePath, '\n'); idx != -1 {
		filePath = strings.TrimSpace(filePath[:idx])
	}
	return filePath, nil
}

// TikTokProvider downloads TikTok videos via yt-dlp.
type TikTokProvider struct {
	runner *YtDlpRunner
}

// NewTikTokProvider creates a TikTok provider.
func NewTikTokProvider(runner *YtDlpRunner) *TikTokProvider {
	return &TikTokProvider{runner: runner}
}

func (p *TikTokProvider) Fetch(ctx context.Context, url, outputDir string) (string, error) {
	path, err := p.runner.Download(ctx, url, outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	return path, nil
}

// InstagramProvider downloads Instagram posts, reels and IGTV videos
// via yt-dlp. URLs without a recognizable shortcode fail before any
// network access.
type InstagramProvider struct {
	runner *YtDlpRunner
}

// NewInstagramProvider creates an Instagram provider.
func NewInstagramProvider(runner *YtDlpRunner) *InstagramProvider {
	return &InstagramProvider{runner: runner}
}

func (p *InstagramProvider) Fetch(ctx context.Context, url, outputDir string) (string, error) {
	if InstagramShortcode(url) == "" {
		return "", fmt.Errorf("%w: no shortcode in instagram URL", domain.ErrDownloadFailed)
	}
	path, err := p.runner.Download(ctx, url, outputDir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	return path, nil
}
