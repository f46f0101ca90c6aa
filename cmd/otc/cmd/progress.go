package cmd

import (
	"time"

	"github.com/charmbracelet/log"
)

// progress logs Build stages and reports completion with elapsed time
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) Report(stage string, done, total int) {
	p.logger.Debug("build", "stage", stage, "done", done, "total", total)
}

// Cancelled never asks a build to stop; interrupts arrive through the
// command context.
func (p *progress) Cancelled() bool { return false }

// done logs msg along with the elapsed time since p was created
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
