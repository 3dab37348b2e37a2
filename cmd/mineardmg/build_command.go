package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mineardmg/internal/pack"
	"mineardmg/internal/services"
	"mineardmg/internal/workflow"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		version      string
		gainDB       int
		workers      int
		output       string
		allowPartial bool
		noProgress   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a resource pack with every sound shifted by a fixed gain",
		Example: `  mineardmg build --gain -6
  mineardmg build --version 1.20.4 --gain 10 --output loud.zip`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if workers < 0 {
				return fmt.Errorf("--workers must not be negative, got %d", workers)
			}

			progress := newBuildProgress(cmd.ErrOrStderr(), !noProgress)
			req := workflow.Request{
				Version:      version,
				Workers:      workers,
				Output:       output,
				AllowPartial: allowPartial,
				OnPlan:       progress.start,
				Reporter:     progress.report,
			}
			if cmd.Flags().Changed("gain") {
				req.GainDB = &gainDB
			}

			summary, err := workflow.New(cfg, workflow.WithLogger(logger)).Build(cmd.Context(), req)
			progress.finish()

			out := cmd.OutOrStdout()
			if summary != nil {
				fmt.Fprintln(out, renderKeyValues(summaryRows(summary)))
				printFailures(out, summary)
			}
			if err != nil {
				var missing *pack.MissingResultError
				if errors.As(err, &missing) {
					return fmt.Errorf("build failed: %w (rerun, or pass --allow-partial to package the sounds that succeeded)", err)
				}
				return fmt.Errorf("build failed: %w", err)
			}
			if skipped := summary.Archive.Skipped; len(skipped) > 0 {
				fmt.Fprintf(out, "\n%d path(s) left out of the pack:\n", len(skipped))
				for _, path := range skipped {
					fmt.Fprintf(out, "  %s\n", path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "latest", "Game version: latest, release, snapshot, or an exact id")
	cmd.Flags().IntVarP(&gainDB, "gain", "g", 0, "Gain in dB applied to every sound (default processing.gain_db)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count (default processing.workers, or one per CPU)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive path (default <output.dir>/mineardmg-<version>-<gain>db.zip)")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "Write the pack even when some sounds failed")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

func summaryRows(s *workflow.Summary) [][2]string {
	rows := [][2]string{
		{"Version", s.Plan.Version.ID},
		{"Pack format", fmt.Sprintf("%d", s.Plan.PackVersion)},
		{"Gain", fmt.Sprintf("%+d dB", s.GainDB)},
		{"Sounds", fmt.Sprintf("%d (%d unique, %s)", s.Plan.Sounds, s.Plan.Unique, humanize.IBytes(s.Plan.Bytes))},
	}
	if s.Outcome != nil {
		rows = append(rows,
			[2]string{"Workers", fmt.Sprintf("%d", s.Outcome.Workers)},
			[2]string{"Succeeded", fmt.Sprintf("%d", s.Outcome.Succeeded())},
			[2]string{"Failed", failureCell(s.Outcome.FailureClasses())},
		)
	}
	if s.Archive != nil {
		rows = append(rows,
			[2]string{"Archive", s.Archive.Path},
			[2]string{"Archive size", humanize.IBytes(uint64(max(s.Archive.Bytes, 0)))}, //nolint:gosec
			[2]string{"Partial", yesNo(len(s.Archive.Skipped) > 0)},
		)
	}
	rows = append(rows, [2]string{"Elapsed", s.Elapsed.Round(time.Millisecond).String()})
	return rows
}

func failureCell(classes map[string]int) string {
	total := 0
	names := make([]string, 0, len(classes))
	for name, n := range classes {
		total += n
		names = append(names, name)
	}
	if total == 0 {
		return "0"
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, classes[name])
	}
	return fmt.Sprintf("%d (%s)", total, strings.Join(parts, ", "))
}

func printFailures(out io.Writer, s *workflow.Summary) {
	if s.Outcome == nil || len(s.Outcome.Failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(s.Outcome.Failures))
	for _, hash := range s.Outcome.FailedHashes() {
		err := s.Outcome.Failures[hash]
		rows = append(rows, []string{hash, services.Classify(err), err.Error()})
	}
	fmt.Fprintln(out, renderTable([]string{"Hash", "Class", "Error"}, rows, nil))
}
