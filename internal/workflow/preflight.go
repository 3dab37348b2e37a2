package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"mineardmg/internal/logging"
	"mineardmg/internal/preflight"
	"mineardmg/internal/services"
)

// runPreflight validates the environment before any sound is downloaded.
// Returns nil when all checks pass, or an error describing all failures.
func (b *Builder) runPreflight(ctx context.Context, logger *slog.Logger, plan Plan) error {
	if err := b.cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "prepare directories", "", err)
	}

	var results []preflight.Result
	if b.newCodec == nil {
		results = preflight.CheckDependencies(ctx, b.cfg)
	}
	results = append(results, preflight.CheckDirectoryAccess("Output directory", b.cfg.Output.Dir))
	if plan.Bytes > 0 {
		results = append(results, preflight.CheckFreeSpace("Free space", b.cfg.Output.Dir, plan.Bytes))
	}

	var failures []string
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the reported issue and rerun the build"),
		)
		failures = append(failures, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	if len(failures) > 0 {
		return services.Wrap(services.ErrConfiguration, "workflow", "preflight", strings.Join(failures, "; "), nil)
	}
	return nil
}
