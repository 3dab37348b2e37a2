package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"mineardmg/internal/pipeline"
	"mineardmg/internal/workflow"
)

// buildProgress draws a progress bar on terminals and stays silent otherwise;
// structured logs already carry sampled progress for non-interactive runs.
type buildProgress struct {
	out     io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

func newBuildProgress(out io.Writer, want bool) *buildProgress {
	return &buildProgress{out: out, enabled: want && isTerminal(out)}
}

func (p *buildProgress) start(plan workflow.Plan) {
	if !p.enabled {
		return
	}
	p.bar = progressbar.NewOptions(plan.Unique,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%s sounds", plan.Version.ID)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *buildProgress) report(pipeline.Event) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

func (p *buildProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
