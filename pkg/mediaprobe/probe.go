package mediaprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// ErrNoDuration is returned when the probe ran but reported no usable duration.
var ErrNoDuration = errors.New("media has no usable duration")

// Prober extracts the playback duration of a media file in whole seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (int, error)
}

// FFProbe shells out to the ffprobe binary to read container metadata.
type FFProbe struct {
	bin     string
	timeout time.Duration
}

// New returns an FFProbe using the ffprobe binary on PATH.
func New() *FFProbe {
	return &FFProbe{bin: "ffprobe", timeout: 15 * time.Second}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration runs ffprobe against path and returns the container duration
// rounded to whole seconds.
func (f *FFProbe) Duration(ctx context.Context, path string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var result probeOutput
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil || math.IsNaN(seconds) || seconds <= 0 {
		return 0, ErrNoDuration
	}

	return int(math.Round(seconds)), nil
}
