// Package report collects task failures and renders the run summary.
package report

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// Failure identifies one failed task in one package directory.
type Failure struct {
	Dir  string
	Task string
}

// Collector accumulates failures in the order they are recorded.
// Failures are data, not errors; a run with failures still completes.
type Collector struct {
	mu       sync.Mutex
	failures []Failure
}

func NewCollector() *Collector {
	return &Collector{}
}

// Record notes a failed task. Safe for concurrent use.
func (c *Collector) Record(dir, task string) {
	c.mu.Lock()
	c.failures = append(c.failures, Failure{Dir: dir, Task: task})
	c.mu.Unlock()
	log.Error().Str("dir", dir).Str("task", task).Msg("report: task failed")
}

// Append copies a finished directory's failures onto the collector,
// preserving their order. Parallel runs append per-directory batches
// in execution order so summaries stay deterministic.
func (c *Collector) Append(batch []Failure) {
	if len(batch) == 0 {
		return
	}
	c.mu.Lock()
	c.failures = append(c.failures, batch...)
	c.mu.Unlock()
}

// Failures returns a copy of everything recorded so far.
func (c *Collector) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// OK reports whether nothing has failed.
func (c *Collector) OK() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures) == 0
}

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Summarize renders the human summary for a finished run. Every
// recorded failure appears exactly once, in recorded order.
func Summarize(failures []Failure) (ok bool, text string) {
	if len(failures) == 0 {
		return true, passStyle.Render("CI passed") + "\n"
	}
	var b strings.Builder
	b.WriteString(failStyle.Render("CI failed") + "\n")
	for _, f := range failures {
		fmt.Fprintf(&b, "  %s: %s\n", f.Dir, f.Task)
	}
	return false, b.String()
}

// ExitCode maps a run outcome to the process exit status.
func ExitCode(ok bool) int {
	if ok {
		return 0
	}
	return 1
}
