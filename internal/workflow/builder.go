package workflow

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"mineardmg/internal/assets"
	"mineardmg/internal/codec"
	"mineardmg/internal/config"
	"mineardmg/internal/logging"
	"mineardmg/internal/manifest"
	"mineardmg/internal/pipeline"
	"mineardmg/internal/processor"
)

// CodecFactory builds the codec owned by one worker.
type CodecFactory func(worker int) codec.Codec

// Builder turns a configuration into resource packs.
type Builder struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpClient *http.Client
	customHTTP bool
	limiter    *rate.Limiter
	newCodec   CodecFactory
	now        func() time.Time
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLogger routes build logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithHTTPClient overrides the client used for metadata requests. Each
// worker receives its own copy sharing the client's transport.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Builder) {
		if client != nil {
			b.httpClient = client
			b.customHTTP = true
		}
	}
}

// WithCodec replaces the ffmpeg codec. Binary preflight checks are skipped
// for custom codecs.
func WithCodec(factory CodecFactory) Option {
	return func(b *Builder) {
		b.newCodec = factory
	}
}

// WithClock fixes the timestamp stamped on archive entries.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a Builder for cfg.
func New(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:    cfg,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.httpClient == nil {
		b.httpClient = &http.Client{Timeout: b.requestTimeout()}
	}
	b.limiter = assets.NewLimiter(cfg.Network.RequestsPerSecond)
	return b
}

func (b *Builder) metadataClient() (*manifest.Client, error) {
	return manifest.New(b.cfg.Network.ManifestURL,
		manifest.WithHTTPClient(b.httpClient),
		manifest.WithUserAgent(b.cfg.Network.UserAgent),
	)
}

func (b *Builder) requestTimeout() time.Duration {
	return time.Duration(b.cfg.Network.RequestTimeout) * time.Second
}

// workerHTTPClient returns a client no other worker holds.
func (b *Builder) workerHTTPClient() *http.Client {
	if b.customHTTP {
		client := *b.httpClient
		return &client
	}
	client := &http.Client{Timeout: b.requestTimeout()}
	if transport, ok := http.DefaultTransport.(*http.Transport); ok {
		client.Transport = transport.Clone()
	}
	return client
}

// processorFactory builds one asset client and codec per worker. Only the
// rate limiter is shared.
func (b *Builder) processorFactory(workers int) (func(int) pipeline.ItemProcessor, error) {
	fetchers := make([]*assets.Client, workers)
	for i := range fetchers {
		fetcher, err := assets.New(b.cfg.Network.AssetBaseURL,
			assets.WithHTTPClient(b.workerHTTPClient()),
			assets.WithUserAgent(b.cfg.Network.UserAgent),
			assets.WithLimiter(b.limiter),
		)
		if err != nil {
			return nil, err
		}
		fetchers[i] = fetcher
	}
	// Run, worker and hash fields come from the item context.
	logger := logging.NewComponentLogger(b.logger, "processor")
	return func(worker int) pipeline.ItemProcessor {
		return processor.New(fetchers[worker], b.codecFor(worker), processor.WithLogger(logger))
	}, nil
}

func (b *Builder) codecFor(worker int) codec.Codec {
	if b.newCodec != nil {
		return b.newCodec(worker)
	}
	return codec.NewFFmpeg(
		codec.WithBinaries(b.cfg.Codec.FFmpegBinary, b.cfg.Codec.FFprobeBinary),
		codec.WithQuality(b.cfg.Codec.Quality),
		codec.WithBlockFrames(b.cfg.Codec.BlockFrames),
	)
}
