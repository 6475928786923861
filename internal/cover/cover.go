// Package cover derives cover images for uploaded videos.
package cover

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Extractor pulls a single frame out of a video with ffmpeg and sizes it
// to the thumbnail resolution.
type Extractor struct {
	FFmpegPath string
	Width      int
	Height     int
	WorkDir    string
}

func NewExtractor(ffmpegPath, workDir string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Extractor{FFmpegPath: ffmpegPath, Width: 320, Height: 240, WorkDir: workDir}
}

// FrameAt extracts the frame at the given offset. input is anything
// ffmpeg accepts: a local path or an http(s) URL, which lets the caller
// feed a presigned object URL without downloading the video first.
func (e *Extractor) FrameAt(ctx context.Context, input string, at time.Duration) ([]byte, error) {
	out := filepath.Join(e.WorkDir, fmt.Sprintf("%d-autocover-%s.jpg", time.Now().UnixMilli(), uuid.NewString()[:8]))
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, e.FFmpegPath,
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', -1, 64),
		"-i", input,
		"-frames:v", "1",
		"-y", out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cover: ffmpeg frame extraction: %w: %s", err, bytes.TrimSpace(output))
	}

	img, err := imaging.Open(out)
	if err != nil {
		return nil, fmt.Errorf("cover: decode frame: %w", err)
	}

	thumb := imaging.Resize(img, e.Width, e.Height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("cover: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
