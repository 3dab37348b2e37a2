package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"mineardmg/internal/logging"
	"mineardmg/internal/manifest"
	"mineardmg/internal/pack"
	"mineardmg/internal/pipeline"
	"mineardmg/internal/services"
)

// Request selects what one build produces. Zero values fall back to the
// Builder's configuration.
type Request struct {
	// Version is "latest", "release", "snapshot" or an exact version id.
	Version string
	GainDB  *int
	Workers int
	// Output overrides the archive path.
	Output string
	// AllowPartial packages the successful sounds even when some failed.
	AllowPartial bool
	// OnPlan is called once the sound list is known, before processing.
	OnPlan func(Plan)
	// Reporter receives one event per processed hash.
	Reporter pipeline.Reporter
}

// Plan describes the work a build is about to do.
type Plan struct {
	RunID       string
	Version     manifest.Version
	PackVersion int
	Sounds      int
	Unique      int
	// Bytes is the combined size of the unique source objects.
	Bytes  uint64
	Output string
}

// Summary reports a finished build.
type Summary struct {
	Plan    Plan
	GainDB  int
	Outcome *pipeline.Outcome
	Archive *pack.Archive
	Elapsed time.Duration
}

type metadata struct {
	version     manifest.Version
	packVersion int
	sounds      []manifest.Sound
}

// Build runs one build end to end. Item failures are reported in the
// Summary; the returned error is set when no archive was written.
func (b *Builder) Build(ctx context.Context, req Request) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	base := logging.WithContext(ctx, b.logger)
	logger := logging.NewComponentLogger(base, "workflow")

	gainDB := b.cfg.Processing.GainDB
	if req.GainDB != nil {
		gainDB = *req.GainDB
	}
	workers := req.Workers
	if workers <= 0 {
		workers = b.cfg.WorkerCount()
	}
	policy, err := b.missingPolicy(req.AllowPartial)
	if err != nil {
		return nil, err
	}

	meta, err := b.loadMetadata(ctx, logger, req.Version)
	if err != nil {
		return nil, err
	}

	lookup := pack.NewPathLookup()
	sizes := make(map[string]int64, len(meta.sounds))
	for _, sound := range meta.sounds {
		if err := lookup.Add(sound.Hash, sound.PackPath()); err != nil {
			return nil, err
		}
		sizes[sound.Hash] = sound.Size
	}
	hashes := lookup.Hashes()
	var totalBytes uint64
	for _, size := range sizes {
		totalBytes += uint64(max(size, 0)) //nolint:gosec
	}

	output := strings.TrimSpace(req.Output)
	if output == "" {
		output = b.cfg.ArchivePath(meta.version.ID, gainDB)
	}
	plan := Plan{
		RunID:       runID,
		Version:     meta.version,
		PackVersion: meta.packVersion,
		Sounds:      lookup.Len(),
		Unique:      len(hashes),
		Bytes:       totalBytes,
		Output:      output,
	}
	logger.Info("build planned",
		logging.String(logging.FieldEventType, "build_planned"),
		logging.String("version", plan.Version.ID),
		logging.Int("pack_version", plan.PackVersion),
		logging.Int("sounds", plan.Sounds),
		logging.Int("unique", plan.Unique),
		logging.Int("gain_db", gainDB),
		logging.String("output", output),
	)

	if err := b.runPreflight(ctx, logger, plan); err != nil {
		return nil, err
	}
	if req.OnPlan != nil {
		req.OnPlan(plan)
	}

	newProcessor, err := b.processorFactory(workers)
	if err != nil {
		return nil, err
	}
	outcome, err := pipeline.Run(ctx, hashes, pipeline.Options{
		Workers:      workers,
		GainDB:       float64(gainDB),
		NewProcessor: newProcessor,
		Reporter:     req.Reporter,
		Logger:       base,
	})
	if err != nil {
		return nil, err
	}

	summary := &Summary{Plan: plan, GainDB: gainDB, Outcome: outcome}
	archive, err := pack.Assemble(ctx, pack.Request{
		Output:      output,
		PackVersion: meta.packVersion,
		GainDB:      gainDB,
		Lookup:      lookup,
		Results:     outcome.Results,
		Policy:      policy,
		Modified:    b.now(),
		Logger:      base,
	})
	summary.Elapsed = time.Since(start)
	if err != nil {
		var missing *pack.MissingResultError
		if errors.As(err, &missing) {
			logging.ErrorWithContext(logger, "build failed on missing sounds", "build_failed",
				logging.Int("failed", len(outcome.Failures)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "rerun the build or pass --allow-partial"),
			)
		}
		return summary, err
	}
	summary.Archive = archive

	logger.Info("build finished",
		logging.String(logging.FieldEventType, "build_complete"),
		logging.Int("succeeded", outcome.Succeeded()),
		logging.Int("failed", len(outcome.Failures)),
		logging.String("archive", archive.Path),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

func (b *Builder) missingPolicy(allowPartial bool) (pack.MissingPolicy, error) {
	if allowPartial {
		return pack.MissingSkip, nil
	}
	policy, err := pack.ParseMissingPolicy(b.cfg.Processing.MissingPolicy)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "workflow", "missing policy", "", err)
	}
	return policy, nil
}

// loadMetadata resolves the version and downloads its client jar and asset
// index concurrently.
func (b *Builder) loadMetadata(ctx context.Context, logger *slog.Logger, selector string) (*metadata, error) {
	client, err := b.metadataClient()
	if err != nil {
		return nil, err
	}
	list, err := client.Versions(ctx)
	if err != nil {
		return nil, err
	}
	version, err := list.Resolve(selector)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "resolve version", "", err)
	}
	clientManifest, err := client.ClientManifest(ctx, version)
	if err != nil {
		return nil, err
	}

	var (
		packVersion int
		index       *manifest.AssetIndex
	)
	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		jar, err := client.ClientJar(ctx, clientManifest)
		if err != nil {
			return err
		}
		packVersion, err = manifest.PackVersionFromJar(jar)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		index, err = client.AssetIndex(ctx, clientManifest)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, err
	}

	sounds := index.Sounds()
	if len(sounds) == 0 {
		return nil, services.Wrap(services.ErrValidation, "workflow", "select sounds", fmt.Sprintf("asset index for %s lists no sounds", version.ID), nil)
	}
	logger.Debug("metadata loaded",
		logging.String("version", version.ID),
		logging.Int("objects", len(index.Objects)),
		logging.Int("sounds", len(sounds)),
	)
	return &metadata{version: version, packVersion: packVersion, sounds: sounds}, nil
}
