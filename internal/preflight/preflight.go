package preflight

import (
	"context"

	"mineardmg/internal/config"
	"mineardmg/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Plan carries build facts that only exist once the asset index is known.
type Plan struct {
	// RequiredBytes is the space the archive is expected to need.
	RequiredBytes uint64
}

// RunAll executes every preflight check for cfg.
func RunAll(ctx context.Context, cfg *config.Config, plan Plan) []Result {
	if cfg == nil {
		return nil
	}

	results := CheckDependencies(ctx, cfg)
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Output.Dir))
	if plan.RequiredBytes > 0 {
		results = append(results, CheckFreeSpace("Free space", cfg.Output.Dir, plan.RequiredBytes))
	}
	return results
}

// CheckDependencies converts codec binary checks into preflight results.
func CheckDependencies(ctx context.Context, cfg *config.Config) []Result {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	ffmpegFound := len(statuses) > 0 && statuses[0].Available
	if ffmpegFound {
		statuses = append(statuses, deps.CheckVorbisEncoder(ctx, statuses[0].Command))
	}

	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		r := Result{Name: s.Name, Passed: s.Available, Detail: s.Detail}
		if s.Available {
			r.Detail = s.Command
		}
		results = append(results, r)
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
