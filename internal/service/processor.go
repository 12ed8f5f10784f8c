package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopclip/api/internal/config"
	"github.com/shopclip/api/internal/model"
)

// ClipProcessor produces the fixed-format silent clip from a local input
// file.
type ClipProcessor interface {
	Process(ctx context.Context, inputPath, outputFilename string, crop *model.CropSpec) (string, error)
}

// Processor drives external ffmpeg/ffprobe binaries. The codec invocation
// is a black box from the caller's perspective: the request blocks until
// the process exits, and failure surfaces as an error carrying the stderr
// tail.
type Processor struct {
	cfg *config.MediaConfig
}

func NewProcessor(cfg *config.MediaConfig) *Processor {
	return &Processor{cfg: cfg}
}

// Available reports whether the configured ffmpeg binary can be found.
func (p *Processor) Available() bool {
	_, err := exec.LookPath(p.cfg.FFmpegPath)
	return err == nil
}

// Process transforms inputPath into a silent MP4 at the target frame size
// under tempDir/outputFilename. A crop rectangle selects manual mode and is
// passed through untouched; an out-of-bounds rectangle fails inside ffmpeg
// and that failure propagates. Without one the source is probed and the
// automatic heuristic applies.
func (p *Processor) Process(ctx context.Context, inputPath, outputFilename string, crop *model.CropSpec) (string, error) {
	outputPath := filepath.Join(p.cfg.TempDir, outputFilename)

	var filters, inputArgs []string
	if crop != nil {
		filters, inputArgs = p.buildFilterGraph(crop, 0, 0)
	} else {
		width, height, err := p.probe(ctx, inputPath)
		if err != nil {
			return "", err
		}
		log.Printf("processor: probed %s as %dx%d", inputPath, width, height)
		filters, inputArgs = p.buildFilterGraph(nil, width, height)
	}

	args := append([]string{"-y"}, inputArgs...)
	args = append(args,
		"-i", inputPath,
		"-vf", strings.Join(filters, ","),
		"-an",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-f", "mp4",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, p.cfg.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	log.Printf("processor: %s %s", p.cfg.FFmpegPath, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, stderrTail(stderr.String(), 20))
	}
	return outputPath, nil
}

// buildFilterGraph returns the -vf chain and the input-side seek arguments.
// Manual mode crops the requested rectangle and scales to the target frame,
// with the trim applied before decode. Automatic mode first trims the
// central 72% band of height (shedding letterboxing), then fits the target:
// portrait sources scale to target width and center-crop to target height,
// while landscape sources scale straight to the target size, which does not
// preserve aspect ratio.
func (p *Processor) buildFilterGraph(crop *model.CropSpec, width, height int) (filters, inputArgs []string) {
	tw, th := p.cfg.TargetWidth, p.cfg.TargetHeight

	if crop != nil {
		filters = []string{
			fmt.Sprintf("crop=%d:%d:%d:%d", crop.Width, crop.Height, crop.X, crop.Y),
			fmt.Sprintf("scale=%d:%d", tw, th),
		}
		inputArgs = []string{
			"-ss", formatSeconds(crop.StartTime),
			"-t", formatSeconds(crop.EndTime - crop.StartTime),
		}
		return filters, inputArgs
	}

	if height > width {
		filters = []string{
			"crop=in_w:in_h*0.72:0:in_h*0.08",
			fmt.Sprintf("scale=%d:-1", tw),
			fmt.Sprintf("crop=%d:%d:0:(ih-%d)/2", tw, th, th),
		}
	} else {
		filters = []string{
			"crop=in_w:in_h*0.72:0:in_h*0.08",
			fmt.Sprintf("scale=%d:%d", tw, th),
		}
	}
	return filters, nil
}

// probe reads the first video stream's dimensions. A missing stream or
// unparsable output is fatal for the request and not retried.
func (p *Processor) probe(ctx context.Context, inputPath string) (width, height int, err error) {
	cmd := exec.CommandContext(ctx, p.cfg.FFprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0",
		inputPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(string(out))
}

func parseProbeOutput(out string) (width, height int, err error) {
	parts := strings.Split(strings.TrimSpace(out), ",")
	if len(parts) < 2 {
		return 0, 0, ErrNoVideoStream
	}
	width, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 0, 0, ErrNoVideoStream
	}
	return width, height, nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func stderrTail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
