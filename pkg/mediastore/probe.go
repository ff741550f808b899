package mediastore

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DurationProbe reports the playback length of a local media file in seconds.
type DurationProbe func(ctx context.Context, localPath string) (float64, error)

func FFProbe(binary string) DurationProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return func(ctx context.Context, localPath string) (float64, error) {
		args := []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			localPath,
		}
		output, err := exec.CommandContext(ctx, binary, args...).CombinedOutput()
		if err != nil {
			return 0, fmt.Errorf("ffprobe execution failed: %w: %s", err, strings.TrimSpace(string(output)))
		}
		return parseDuration(string(output))
	}
}

func parseDuration(output string) (float64, error) {
	value := strings.TrimSpace(output)
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", value, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %v", duration)
	}
	return duration, nil
}
