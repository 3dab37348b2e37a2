package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"mineardmg/internal/logging"
	"mineardmg/internal/services"
)

// ItemProcessor turns one hash into output bytes.
type ItemProcessor interface {
	Process(ctx context.Context, hash string, gainDB float64) ([]byte, error)
}

// Event describes one finished item.
type Event struct {
	Worker   int
	Hash     string
	Err      error
	Elapsed  time.Duration
	Progress Snapshot
}

// Reporter receives one Event per item. It is called from worker goroutines
// and must be safe for concurrent use.
type Reporter func(Event)

// Options configures Run.
type Options struct {
	// Workers is the pool size; it must be at least 1 and is clamped to the
	// number of distinct hashes.
	Workers int
	GainDB  float64
	// NewProcessor builds the processor owned by one worker.
	NewProcessor func(worker int) ItemProcessor
	Reporter     Reporter
	Logger       *slog.Logger
}

// Outcome is the per-hash result of a Run.
type Outcome struct {
	Results  *ResultMap
	Failures map[string]error
	Total    int
	Workers  int
	Elapsed  time.Duration
}

// Succeeded returns how many hashes produced output.
func (o *Outcome) Succeeded() int {
	return o.Results.Len()
}

// FailedHashes returns the failed hashes in sorted order.
func (o *Outcome) FailedHashes() []string {
	hashes := make([]string, 0, len(o.Failures))
	for hash := range o.Failures {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)
	return hashes
}

// FailureClasses counts failures by services.Classify.
func (o *Outcome) FailureClasses() map[string]int {
	classes := make(map[string]int)
	for _, err := range o.Failures {
		classes[services.Classify(err)]++
	}
	return classes
}

type failureLog struct {
	mu     sync.Mutex
	errors map[string]error
}

func (f *failureLog) record(hash string, err error) {
	f.mu.Lock()
	f.errors[hash] = err
	f.mu.Unlock()
}

// Run processes every distinct hash and returns once all workers have exited.
// It fails only for invalid options; item failures are reported in the Outcome.
func Run(ctx context.Context, hashes []string, opts Options) (*Outcome, error) {
	if opts.Workers < 1 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "options", fmt.Sprintf("workers must be at least 1, got %d", opts.Workers), nil)
	}
	if opts.NewProcessor == nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "options", "processor factory required", nil)
	}
	logger := logging.NewComponentLogger(opts.Logger, "pipeline")

	items := dedupe(hashes)
	workers := min(opts.Workers, len(items))
	queue := NewWorkQueue(items)
	results := NewResultMap()
	progress := NewProgress(len(items))
	failures := &failureLog{errors: make(map[string]error)}
	sampler := logging.NewProgressSampler(5)

	logger.Info("processing sounds",
		logging.Int("items", len(items)),
		logging.Int("duplicates", len(hashes)-len(items)),
		logging.Int("workers", workers),
		logging.Float64("gain_db", opts.GainDB),
	)

	start := time.Now()
	var wg conc.WaitGroup
	for id := range workers {
		wg.Go(func() {
			w := &worker{
				id:       id,
				proc:     opts.NewProcessor(id),
				gainDB:   opts.GainDB,
				queue:    queue,
				results:  results,
				progress: progress,
				failures: failures,
				reporter: opts.Reporter,
				sampler:  sampler,
				logger:   logger.With(logging.Int(logging.FieldWorker, id)),
			}
			w.loop(services.WithWorker(ctx, id))
		})
	}
	wg.Wait()

	outcome := &Outcome{
		Results:  results,
		Failures: failures.errors,
		Total:    len(items),
		Workers:  workers,
		Elapsed:  time.Since(start),
	}
	logger.Info("processing finished",
		logging.Int("succeeded", outcome.Succeeded()),
		logging.Int("failed", len(outcome.Failures)),
		logging.Duration("elapsed", outcome.Elapsed),
	)
	return outcome, nil
}

func dedupe(hashes []string) []string {
	seen := make(map[string]struct{}, len(hashes))
	out := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, hash)
	}
	return out
}

type worker struct {
	id       int
	proc     ItemProcessor
	gainDB   float64
	queue    *WorkQueue
	results  *ResultMap
	progress *Progress
	failures *failureLog
	reporter Reporter
	sampler  *logging.ProgressSampler
	logger   *slog.Logger
}

func (w *worker) loop(ctx context.Context) {
	for {
		hash, ok := w.queue.Pop()
		if !ok {
			return
		}
		w.handle(ctx, hash)
	}
}

func (w *worker) handle(ctx context.Context, hash string) {
	start := time.Now()
	data, err := w.process(ctx, hash)
	if err == nil {
		err = w.results.Store(hash, data)
	}

	var snap Snapshot
	if err != nil {
		w.failures.record(hash, err)
		snap = w.progress.Fail()
		logging.WarnWithContext(w.logger, "sound failed", "item_failed",
			logging.String(logging.FieldHash, hash),
			logging.String("failure", services.Classify(err)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(err)),
			logging.String(logging.FieldImpact, "sound will be missing from the pack"),
		)
	} else {
		snap = w.progress.Complete()
	}

	if w.reporter != nil {
		w.reporter(Event{Worker: w.id, Hash: hash, Err: err, Elapsed: time.Since(start), Progress: snap})
	}
	if w.sampler.ShouldLog(snap.Percent(), "processing") {
		w.logger.Info("processing progress",
			logging.Int("done", snap.Done()),
			logging.Int("total", snap.Total),
			logging.Int("failed", snap.Failed),
			logging.Float64("percent", float64(int(snap.Percent()*10))/10),
		)
	}
}

func (w *worker) process(ctx context.Context, hash string) (data []byte, err error) {
	var catcher panics.Catcher
	catcher.Try(func() {
		data, err = w.proc.Process(ctx, hash, w.gainDB)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return nil, fmt.Errorf("process %s: panic: %v", hash, recovered.Value)
	}
	return data, err
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrNetwork):
		return "check connectivity to the asset CDN"
	case errors.Is(err, services.ErrDecode):
		return "the asset may be corrupt or not Ogg Vorbis"
	case errors.Is(err, services.ErrEncode):
		return "verify ffmpeg was built with libvorbis"
	default:
		return "check logs for details"
	}
}
