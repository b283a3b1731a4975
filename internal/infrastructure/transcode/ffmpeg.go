// Package transcode shells out to ffmpeg/ffprobe for duration probing,
// trimming and preview frame extraction. Argument construction is kept in
// pure functions so the exact invocations stay testable without the
// binaries installed.
package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clip-server/internal/config"
)

// Worker invokes the external transcoding tool. Every call is bounded by
// the configured timeout on top of the caller's context.
type Worker struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
	log         zerolog.Logger
}

func NewWorker(cfg *config.Config, log zerolog.Logger) *Worker {
	return &Worker{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		timeout:     cfg.TranscodeTimeout,
		log:         log.With().Str("component", "transcode-worker").Logger(),
	}
}

// ProbeDuration returns the media duration in seconds.
func (w *Worker) ProbeDuration(ctx context.Context, localPath string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, w.ffprobePath, probeArgs(localPath)...).Output()
	if err != nil {
		return 0, fmt.Errorf("unreadable media: %w", err)
	}
	return parseProbeDuration(string(out))
}

// TrimToMax re-encodes the first maxSeconds of the input into a new file
// next to the original and returns its path. The target bitrate and
// resolution are fixed so output size stays predictable.
func (w *Worker) TrimToMax(ctx context.Context, localPath string, maxSeconds int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	outPath := localPath + ".trimmed.mp4"
	cmd := exec.CommandContext(ctx, w.ffmpegPath, trimArgs(localPath, maxSeconds, outPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		w.log.Error().Err(err).Str("input", localPath).Str("output", string(output)).Msg("ffmpeg trim failed")
		return "", fmt.Errorf("transcode failed: %w", err)
	}
	return outPath, nil
}

// ExtractPreviewFrame writes a single still frame taken at the given
// fraction of the media's duration and returns its path.
func (w *Worker) ExtractPreviewFrame(ctx context.Context, localPath string, atFraction float64) (string, error) {
	duration, err := w.ProbeDuration(ctx, localPath)
	if err != nil {
		return "", fmt.Errorf("preview failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	outPath := localPath + ".preview.jpg"
	cmd := exec.CommandContext(ctx, w.ffmpegPath, previewArgs(localPath, duration*atFraction, outPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		w.log.Error().Err(err).Str("input", localPath).Str("output", string(output)).Msg("ffmpeg preview extraction failed")
		return "", fmt.Errorf("preview failed: %w", err)
	}
	return outPath, nil
}

func probeArgs(input string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		input,
	}
}

func trimArgs(input string, maxSeconds int, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-t", strconv.Itoa(maxSeconds),
		"-c:v", "libx264",
		"-b:v", "1500k",
		"-maxrate", "1500k",
		"-bufsize", "3000k",
		"-vf", "scale=-2:720",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		output,
	}
}

func previewArgs(input string, seekSeconds float64, output string) []string {
	return []string{
		"-y",
		"-ss", strconv.FormatFloat(seekSeconds, 'f', 3, 64),
		"-i", input,
		"-vframes", "1",
		"-vf", "scale=320:-1",
		"-q:v", "2",
		output,
	}
}

func parseProbeDuration(out string) (float64, error) {
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unreadable media: parse duration %q: %w", strings.TrimSpace(out), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("unreadable media: non-positive duration %f", duration)
	}
	return duration, nil
}
