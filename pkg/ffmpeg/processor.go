// Package ffmpeg extracts thumbnails and sample frames from downloaded
// videos by shelling out to ffmpeg/ffprobe.
package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// VideoProcessor handles frame extraction using ffmpeg.
type VideoProcessor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewVideoProcessor creates a new video processor.
// It will attempt to find ffmpeg and ffprobe in PATH.
func NewVideoProcessor() (*VideoProcessor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	return &VideoProcessor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}, nil
}

// VideoInfo contains metadata about a video file.
type VideoInfo struct {
	Duration  float64 // Duration in seconds
	Width     int
	Height    int
	FrameRate float64
	FileSize  int64
}

// GetVideoInfo extracts metadata from a video file.
func (p *VideoProcessor) GetVideoInfo(ctx context.Context, videoPath string) (*VideoInfo, error) {
	stat, err := os.Stat(videoPath)
	if err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		videoPath,
	)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	type ffprobeFormat struct {
		Duration string `json:"duration"`
	}
	type ffprobeStream struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	}
	type ffprobeOutput struct {
		Format  ffprobeFormat   `json:"format"`
		Streams []ffprobeStream `json:"streams"`
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &VideoInfo{
		FileSize: stat.Size(),
	}

	if parsed.Format.Duration != "" {
		if dur, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.Duration = dur
		}
	}

	for _, s := range parsed.Streams {
		if s.CodecType != "video" {
			continue
		}
		if info.Width == 0 && s.Width > 0 {
			info.Width = s.Width
		}
		if info.Height == 0 && s.Height > 0 {
			info.Height = s.Height
		}
		if info.FrameRate == 0 && s.AvgFrameRate != "" && s.AvgFrameRate != "0/0" {
			parts := strings.SplitN(s.AvgFrameRate, "/", 2)
			if len(parts) == 2 {
				num, err1 := strconv.ParseFloat(parts[0], 64)
				den, err2 := strconv.ParseFloat(parts[1], 64)
				if err1 == nil && err2 == nil && den != 0 {
					info.FrameRate = num / den
				}
			}
		}
	}

	return info, nil
}

// ExtractThumbnail writes the first readable frame of the video to
// outputPath as a JPEG.
func (p *VideoProcessor) ExtractThumbnail(ctx context.Context, videoPath, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "3",
		"-y",
		outputPath,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("extract thumbnail: %w", err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("thumbnail not created: %w", err)
	}
	return nil
}

// ExtractFrames extracts up to count frames spread evenly across the
// video's duration. Returns paths to the extracted JPEGs in order.
func (p *VideoProcessor) ExtractFrames(ctx context.Context, videoPath, outputDir string, count int) ([]string, error) {
	if count < 1 {
		count = 1
	}

	info, err := p.GetVideoInfo(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("get video info: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	// Spread timestamps over the duration, avoiding the exact end which
	// often has no decodable frame.
	var frames []string
	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return frames, ctx.Err()
		default:
		}

		var timestamp float64
		if info.Duration > 0 {
			timestamp = info.Duration * float64(i) / float64(count)
		}

		outputPath := filepath.Join(outputDir, fmt.Sprintf("frame_%03d.jpg", i))
		cmd := exec.CommandContext(ctx, p.ffmpegPath,
			"-i", videoPath,
			// Seek after opening input for better compatibility with some
			// container/codec combinations.
			"-ss", fmt.Sprintf("%.2f", timestamp),
			"-vframes", "1",
			"-q:v", "3",
			"-y",
			outputPath,
		)
		if err := cmd.Run(); err != nil {
			// Skip frames that fail (might be past end of video)
			continue
		}

		if _, err := os.Stat(outputPath); err == nil {
			frames = append(frames, outputPath)
		}
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from video")
	}
	return frames, nil
}

// CleanupTempFiles removes temporary files created during processing.
func CleanupTempFiles(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}

// IsAvailable checks if ffmpeg is available on the system.
func IsAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	if err != nil {
		return false
	}
	_, err = exec.LookPath("ffprobe")
	return err == nil
}

// GetVersion returns the ffmpeg version string.
func GetVersion() (string, error) {
	cmd := exec.Command("ffmpeg", "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0]), nil
	}
	return "unknown", nil
}
