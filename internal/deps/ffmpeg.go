package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	vorbisEncoder      = "libvorbis"
	encoderProbeTimeout = 10 * time.Second
)

// CheckVorbisEncoder reports whether ffmpegBinary was built with libvorbis.
// Builds without it can decode sounds but fail on every re-encode.
func CheckVorbisEncoder(ctx context.Context, ffmpegBinary string) Status {
	status := Status{
		Name:        "libvorbis",
		Command:     strings.TrimSpace(ffmpegBinary),
		Description: "FFmpeg Vorbis encoder",
	}
	if status.Command == "" {
		status.Detail = "ffmpeg not configured"
		return status
	}

	probeCtx, cancel := context.WithTimeout(ctx, encoderProbeTimeout)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, status.Command, "-hide_banner", "-encoders").Output() //nolint:gosec
	if err != nil {
		status.Detail = fmt.Sprintf("list encoders: %v", err)
		return status
	}
	if !listsEncoder(out, vorbisEncoder) {
		status.Detail = "ffmpeg was built without " + vorbisEncoder
		return status
	}
	status.Available = true
	return status
}

// listsEncoder scans `ffmpeg -encoders` output, whose rows look like
// " A....D libvorbis            libvorbis (codec vorbis)".
func listsEncoder(out []byte, name string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
