package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"mineardmg/internal/audio"
	"mineardmg/internal/media/ffprobe"
	"mineardmg/internal/services"
)

const (
	defaultQuality     = 5
	defaultBlockFrames = 4096
	stderrLimit        = 512
)

// Option configures the FFmpeg codec.
type Option func(*FFmpeg)

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpegBinary, ffprobeBinary string) Option {
	return func(c *FFmpeg) {
		if v := strings.TrimSpace(ffmpegBinary); v != "" {
			c.ffmpeg = v
		}
		if v := strings.TrimSpace(ffprobeBinary); v != "" {
			c.ffprobe = v
		}
	}
}

// WithQuality sets the libvorbis VBR quality (-1 to 10).
func WithQuality(q float64) Option {
	return func(c *FFmpeg) {
		c.quality = q
	}
}

// WithBlockFrames sets how many frames each decoded block holds.
func WithBlockFrames(frames int) Option {
	return func(c *FFmpeg) {
		if frames > 0 {
			c.blockFrames = frames
		}
	}
}

// FFmpeg is a Codec backed by ffmpeg and ffprobe subprocesses. It holds no
// per-call state and is safe for concurrent use.
type FFmpeg struct {
	ffmpeg      string
	ffprobe     string
	quality     float64
	blockFrames int
}

// NewFFmpeg constructs the subprocess codec.
func NewFFmpeg(opts ...Option) *FFmpeg {
	c := &FFmpeg{
		ffmpeg:      "ffmpeg",
		ffprobe:     "ffprobe",
		quality:     defaultQuality,
		blockFrames: defaultBlockFrames,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Decode probes data with ffprobe, then streams ffmpeg's float output.
func (c *FFmpeg) Decode(ctx context.Context, data []byte) (audio.Format, audio.BlockReadCloser, error) {
	if len(data) == 0 {
		return audio.Format{}, nil, services.Wrap(services.ErrDecode, "decode", "probe", "empty payload", nil)
	}
	probe, err := ffprobe.InspectReader(ctx, c.ffprobe, bytes.NewReader(data))
	if err != nil {
		return audio.Format{}, nil, services.Wrap(services.ErrDecode, "decode", "probe", "", err)
	}
	format, err := formatFromProbe(probe)
	if err != nil {
		return audio.Format{}, nil, services.Wrap(services.ErrDecode, "decode", "probe", "", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-map", "0:a:0",
		"-ac", strconv.Itoa(int(format.Channels)),
		"-ar", strconv.FormatUint(uint64(format.SampleRate), 10),
		"-f", "f32le",
		"pipe:1",
	}
	cmd := exec.CommandContext(runCtx, c.ffmpeg, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(data)
	stderr := &cappedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return audio.Format{}, nil, services.Wrap(services.ErrDecode, "decode", "ffmpeg", "stdout pipe", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return audio.Format{}, nil, services.Wrap(services.ErrDecode, "decode", "ffmpeg", "start", err)
	}

	frameBytes := int(format.Channels) * audio.BytesPerSample
	return format, &decodeStream{
		cmd:      cmd,
		cancel:   cancel,
		stdout:   stdout,
		stderr:   stderr,
		channels: int(format.Channels),
		buf:      make([]byte, c.blockFrames*frameBytes),
	}, nil
}

func formatFromProbe(probe ffprobe.Result) (audio.Format, error) {
	stream, ok := probe.FirstAudio()
	if !ok {
		return audio.Format{}, errors.New("no audio stream")
	}
	rate := stream.SampleRateHz()
	if rate <= 0 || int64(rate) > math.MaxUint32 {
		return audio.Format{}, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}
	if stream.Channels <= 0 || stream.Channels > math.MaxUint8 {
		return audio.Format{}, fmt.Errorf("invalid channel count %d", stream.Channels)
	}
	return audio.Format{SampleRate: uint32(rate), Channels: uint8(stream.Channels)}, nil
}

type decodeStream struct {
	cmd      *exec.Cmd
	cancel   context.CancelFunc
	stdout   io.Reader
	stderr   *cappedBuffer
	channels int
	buf      []byte

	done    bool
	waited  bool
	waitErr error
}

func (s *decodeStream) ReadBlock() (audio.Block, error) {
	if s.done {
		return audio.Block{}, io.EOF
	}
	n, err := io.ReadFull(s.stdout, s.buf)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		if waitErr := s.wait(); waitErr != nil {
			return audio.Block{}, services.Wrap(services.ErrDecode, "decode", "ffmpeg", s.stderr.String(), waitErr)
		}
		if n == 0 {
			return audio.Block{}, io.EOF
		}
	default:
		s.done = true
		_ = s.Close()
		return audio.Block{}, services.Wrap(services.ErrDecode, "decode", "read", "", err)
	}

	block, err := audio.FromF32LE(s.buf[:n], s.channels)
	if err != nil {
		return audio.Block{}, services.Wrap(services.ErrDecode, "decode", "read", "", err)
	}
	return block, nil
}

func (s *decodeStream) wait() error {
	if !s.waited {
		s.waited = true
		s.waitErr = s.cmd.Wait()
		s.cancel()
	}
	return s.waitErr
}

// Close stops ffmpeg if it is still running. It never reports the exit
// status of a killed process.
func (s *decodeStream) Close() error {
	s.done = true
	if s.waited {
		return nil
	}
	s.cancel()
	_ = s.wait()
	return nil
}

// Encode writes src as f32le into ffmpeg's stdin and collects the Ogg output.
func (c *FFmpeg) Encode(ctx context.Context, format audio.Format, src audio.BlockReader) ([]byte, error) {
	if err := format.Validate(); err != nil {
		return nil, services.Wrap(services.ErrEncode, "encode", "format", "", err)
	}
	if src == nil {
		return nil, services.Wrap(services.ErrEncode, "encode", "input", "nil block reader", nil)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "f32le",
		"-ar", strconv.FormatUint(uint64(format.SampleRate), 10),
		"-ac", strconv.Itoa(int(format.Channels)),
		"-i", "pipe:0",
		"-c:a", "libvorbis",
		"-q:a", strconv.FormatFloat(c.quality, 'f', -1, 64),
		"-f", "ogg",
		"pipe:1",
	}
	cmd := exec.CommandContext(runCtx, c.ffmpeg, args...) //nolint:gosec
	var stdout bytes.Buffer
	stderr := &cappedBuffer{limit: stderrLimit}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrEncode, "encode", "ffmpeg", "stdin pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrEncode, "encode", "ffmpeg", "start", err)
	}

	abort := func(cause error) error {
		_ = stdin.Close()
		cancel()
		_ = cmd.Wait()
		return cause
	}

	channels := int(format.Channels)
	var scratch []byte
	for {
		block, err := src.ReadBlock()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Input errors already carry the marker of the stage that failed.
			return nil, abort(fmt.Errorf("encode: read input: %w", err))
		}
		if err := block.Check(channels); err != nil {
			return nil, abort(services.Wrap(services.ErrEncode, "encode", "input", "", err))
		}
		scratch = audio.AppendF32LE(scratch[:0], block)
		if _, err := stdin.Write(scratch); err != nil {
			_ = stdin.Close()
			waitErr := cmd.Wait()
			return nil, services.Wrap(services.ErrEncode, "encode", "ffmpeg", stderr.String(), errors.Join(err, waitErr))
		}
	}

	if err := stdin.Close(); err != nil {
		return nil, abort(services.Wrap(services.ErrEncode, "encode", "ffmpeg", "close stdin", err))
	}
	if err := cmd.Wait(); err != nil {
		return nil, services.Wrap(services.ErrEncode, "encode", "ffmpeg", stderr.String(), err)
	}
	if stdout.Len() == 0 {
		return nil, services.Wrap(services.ErrEncode, "encode", "ffmpeg", "no output produced", nil)
	}
	return stdout.Bytes(), nil
}

// cappedBuffer keeps the first limit bytes of subprocess stderr.
type cappedBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
