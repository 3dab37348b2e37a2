package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/panics"

	"mineardmg/internal/assets"
	"mineardmg/internal/audio"
	"mineardmg/internal/codec"
	"mineardmg/internal/logging"
	"mineardmg/internal/services"
)

// Stage names the step an item failed in.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
)

// ItemError records why a single hash could not be processed.
type ItemError struct {
	Hash  string
	Stage Stage
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("process %s: %s: %v", e.Hash, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Processor runs the fetch, decode, gain, encode chain for one hash at a time.
type Processor struct {
	fetcher assets.Fetcher
	codec   codec.Codec
	logger  *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger attaches a logger for per-item debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a Processor.
func New(fetcher assets.Fetcher, c codec.Codec, opts ...Option) *Processor {
	p := &Processor{fetcher: fetcher, codec: c, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetcher returns the asset source this processor downloads from.
func (p *Processor) Fetcher() assets.Fetcher {
	return p.fetcher
}

// Process returns the re-encoded bytes for hash with gainDB applied. Errors
// are always *ItemError.
func (p *Processor) Process(ctx context.Context, hash string, gainDB float64) ([]byte, error) {
	ctx = services.WithHash(ctx, hash)
	stage := StageFetch
	var (
		out []byte
		err error
	)

	var catcher panics.Catcher
	catcher.Try(func() {
		out, err = p.run(ctx, hash, gainDB, &stage)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return nil, &ItemError{Hash: hash, Stage: stage, Err: fmt.Errorf("panic: %v", recovered.Value)}
	}
	if err != nil {
		return nil, &ItemError{Hash: hash, Stage: stage, Err: err}
	}
	return out, nil
}

func (p *Processor) run(ctx context.Context, hash string, gainDB float64, stage *Stage) ([]byte, error) {
	logger := logging.WithContext(ctx, p.logger)
	start := time.Now()

	*stage = StageFetch
	payload, err := p.fetcher.Fetch(ctx, hash)
	if err != nil {
		return nil, err
	}

	*stage = StageDecode
	format, blocks, err := p.codec.Decode(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer blocks.Close()

	// Decode errors that surface mid-stream arrive through Encode's reads.
	*stage = StageEncode
	src := &stageTracker{src: audio.NewGainReader(blocks, gainDB), stage: stage}
	out, err := p.codec.Encode(ctx, format, src)
	if err != nil {
		return nil, err
	}

	logger.Debug("item processed",
		logging.String(logging.FieldStage, string(*stage)),
		logging.String("format", format.String()),
		logging.Int("input_bytes", len(payload)),
		logging.Int("output_bytes", len(out)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// stageTracker attributes read failures to the decode stage.
type stageTracker struct {
	src   audio.BlockReader
	stage *Stage
}

func (t *stageTracker) ReadBlock() (audio.Block, error) {
	block, err := t.src.ReadBlock()
	if err != nil && !errors.Is(err, io.EOF) {
		*t.stage = StageDecode
	}
	return block, err
}
