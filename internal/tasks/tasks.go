package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cictl/internal/observability"
	"github.com/danmuck/cictl/internal/report"
	"github.com/danmuck/cictl/internal/tools"
)

// Task names. Bundle is the dependency step, not a selectable task;
// the rest run in the order Order fixes.
const (
	Bundle     = "bundle"
	Test       = "test"
	Rubocop    = "rubocop"
	Build      = "build"
	Yard       = "yard"
	Linkinator = "linkinator"
)

// Order fixes the execution order of tasks within a directory.
var Order = []string{Test, Rubocop, Build, Yard, Linkinator}

// ToplevelDir labels repository-root steps in failure records. It is
// not an on-disk name; the runner maps it to the root itself.
const ToplevelDir = "toplevel"

// Spec is one task's command line. VerboseArgs are appended only when
// the plan asks for verbose output. AppendSpecFile appends the
// directory's self-named spec file to the command; gem build needs the
// gemspec it compiles.
type Spec struct {
	Name           string
	Command        []string
	VerboseArgs    []string
	AppendSpecFile bool
}

// BundleMode selects the dependency step that precedes a directory's
// tasks.
type BundleMode int

const (
	BundleInstall BundleMode = iota
	BundleUpdate
	BundleSkip
)

func (m BundleMode) String() string {
	switch m {
	case BundleInstall:
		return "install"
	case BundleUpdate:
		return "update"
	case BundleSkip:
		return "skip"
	default:
		return fmt.Sprintf("BundleMode(%d)", int(m))
	}
}

// Plan is everything needed to execute one directory.
type Plan struct {
	Tasks   []Spec
	Bundle  BundleMode
	Retries int
	Verbose bool
}

// Enabled assembles the plan's task list: the canonical order filtered
// down to the enabled names, each bound to its configured spec.
func Enabled(enabled map[string]bool, specs map[string]Spec) ([]Spec, error) {
	for name, on := range enabled {
		if on && !slices.Contains(Order, name) {
			return nil, fmt.Errorf("tasks: unknown task %q", name)
		}
	}
	var out []Spec
	for _, name := range Order {
		if !enabled[name] {
			continue
		}
		spec, ok := specs[name]
		if !ok || len(spec.Command) == 0 {
			return nil, fmt.Errorf("tasks: task %q has no command configured", name)
		}
		out = append(out, spec)
	}
	return out, nil
}

// Runner executes plans against package directories under a fixed
// repository root. specExt names the self-named spec file extension
// for tasks that take the spec file as an argument.
type Runner struct {
	root    string
	specExt string
	exec    tools.Runner
	stdout  io.Writer
	stderr  io.Writer
}

func NewRunner(root, specExt string, exec tools.Runner, stdout, stderr io.Writer) *Runner {
	return &Runner{root: root, specExt: specExt, exec: exec, stdout: stdout, stderr: stderr}
}

// RunDir executes the plan against one directory. A failed bundle step
// records a single bundle failure and skips the directory's tasks; a
// failed task records its failure and execution continues with the
// next task. Returns whether the directory finished clean.
func (r *Runner) RunDir(ctx context.Context, dir string, plan Plan, rec *report.Collector) bool {
	log.Info().
		Str("dir", dir).
		Stringer("bundle", plan.Bundle).
		Int("tasks", len(plan.Tasks)).
		Msg("tasks: starting directory")
	ok := true
	if plan.Bundle != BundleSkip {
		if err := r.bundle(ctx, dir, plan); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("tasks: bundle failed, skipping directory")
			rec.Record(dir, Bundle)
			observability.ObserveDirectory(false)
			return false
		}
	}
	for _, spec := range plan.Tasks {
		if ctx.Err() != nil {
			ok = false
			break
		}
		if err := r.runTask(ctx, dir, spec, plan.Verbose); err != nil {
			log.Error().Err(err).Str("dir", dir).Str("task", spec.Name).Msg("tasks: task failed")
			rec.Record(dir, spec.Name)
			ok = false
		}
	}
	observability.ObserveDirectory(ok)
	return ok
}

// RunToplevel executes the plan against the repository root itself.
// The caller supplies the root lint spec as the plan's only task.
func (r *Runner) RunToplevel(ctx context.Context, plan Plan, rec *report.Collector) bool {
	return r.RunDir(ctx, ToplevelDir, plan, rec)
}

// RunDirs executes dirs with up to jobs directories in flight. Each
// directory's failures are appended to rec in execution order, not
// completion order, so summaries are stable across timings. The
// returned error is non-nil only when ctx ended the run early; task
// failures are data in rec, never errors.
func (r *Runner) RunDirs(ctx context.Context, dirs []string, plan Plan, jobs int, rec *report.Collector) error {
	if jobs <= 1 || len(dirs) < 2 {
		for _, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.RunDir(ctx, dir, plan, rec)
		}
		return ctx.Err()
	}
	locals := make([]*report.Collector, len(dirs))
	for i := range locals {
		locals[i] = report.NewCollector()
	}
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				r.RunDir(ctx, dirs[i], plan, locals[i])
			}
		}()
	}
	for i := range dirs {
		if ctx.Err() != nil {
			break
		}
		work <- i
	}
	close(work)
	wg.Wait()
	for i := range dirs {
		rec.Append(locals[i].Failures())
	}
	return ctx.Err()
}

func (r *Runner) bundle(ctx context.Context, dir string, plan Plan) error {
	verb := "install"
	if plan.Bundle == BundleUpdate {
		verb = "update"
	}
	argv := []string{verb, fmt.Sprintf("--retry=%d", plan.Retries)}
	log.Info().Str("dir", dir).Strs("argv", append([]string{"bundle"}, argv...)).Msg("tasks: bundling")
	start := time.Now()
	code, err := r.exec.RunStreaming(ctx, r.path(dir), r.stdout, r.stderr, "bundle", argv...)
	observability.ObserveTask(dir, Bundle, time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("tasks: bundle %s failed exit=%d: %w", verb, code, err)
	}
	return nil
}

func (r *Runner) runTask(ctx context.Context, dir string, spec Spec, verbose bool) error {
	if len(spec.Command) == 0 {
		return fmt.Errorf("tasks: task %q has an empty command", spec.Name)
	}
	argv := append([]string(nil), spec.Command...)
	if verbose {
		argv = append(argv, spec.VerboseArgs...)
	}
	if spec.AppendSpecFile {
		argv = append(argv, filepath.Base(dir)+r.specExt)
	}
	log.Info().Str("dir", dir).Str("task", spec.Name).Strs("argv", argv).Msg("tasks: running")
	start := time.Now()
	code, err := r.exec.RunStreaming(ctx, r.path(dir), r.stdout, r.stderr, argv[0], argv[1:]...)
	observability.ObserveTask(dir, spec.Name, time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("tasks: %s failed exit=%d: %w", spec.Name, code, err)
	}
	log.Debug().Str("dir", dir).Str("task", spec.Name).Msg("tasks: task passed")
	return nil
}

func (r *Runner) path(dir string) string {
	if dir == ToplevelDir {
		return r.root
	}
	return filepath.Join(r.root, dir)
}
