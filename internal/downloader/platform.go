// Package downloader acquires videos from supported social platforms and
// prepares them for analysis.
package downloader

import (
	"regexp"
	"strings"

	"github.com/mealreel/mealreel/internal/domain"
)

// instagramShortcodeRegexes match the shortcode in the supported
// Instagram URL shapes (posts, reels, IGTV, short links).
var instagramShortcodeRegexes = []*regexp.Regexp{
	regexp.MustCompile(`instagram\.com/p/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`instagram\.com/reel/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`instagram\.com/tv/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`instagr\.am/p/([A-Za-z0-9_-]+)`),
}

// DetectPlatform identifies the platform a video URL belongs to.
// Returns domain.ErrUnsupportedPlatform for anything unrecognized;
// no network access happens here.
func DetectPlatform(url string) (domain.Platform, error) {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "tiktok.com"):
		return domain.PlatformTikTok, nil
	case strings.Contains(lower, "instagram.com"), strings.Contains(lower, "instagr.am"):
		return domain.PlatformInstagram, nil
	default:
		return "", domain.ErrUnsupportedPlatform
	}
}

// InstagramShortcode extracts the post shortcode from an Instagram URL.
// Returns an empty string when the URL carries none.
func InstagramShortcode(url string) string {
	for _, re := range instagramShortcodeRegexes {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}
