package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/cictl/internal/observability"
	"github.com/danmuck/cictl/internal/report"
	"github.com/danmuck/cictl/internal/tasks"
)

type runFlags struct {
	selectionFlags

	bundle        bool
	noBundle      bool
	bundleUpdate  bool
	bundleRetries int

	test       bool
	rubocop    bool
	build      bool
	yard       bool
	linkinator bool
	allTasks   bool

	toplevel    bool
	jobs        int
	verbose     bool
	metricsFile string
	configPath  string
}

var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select package directories and run the CI task plan in each",
		Long: `run resolves the diff base from the CI event, maps changed files to
package directories, filters them through the toolchain version gate,
and executes the enabled tasks in every selected directory. Failures
are collected, never short-circuited across directories; the exit
status is zero only when nothing failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, &f)
		},
	}
	addSelectionFlags(cmd, &f.selectionFlags)
	fl := cmd.Flags()
	fl.BoolVar(&f.bundle, "bundle", false, "run the dependency install step (implied by any task)")
	fl.BoolVar(&f.noBundle, "no-bundle", false, "skip the dependency step entirely")
	fl.BoolVar(&f.bundleUpdate, "bundle-update", false, "update dependencies instead of installing")
	fl.IntVar(&f.bundleRetries, "bundle-retries", 0, "dependency step retry count (default from config)")
	fl.BoolVar(&f.test, "test", false, "run the unit test task")
	fl.BoolVar(&f.rubocop, "rubocop", false, "run the style lint task")
	fl.BoolVar(&f.build, "build", false, "run the gem build task")
	fl.BoolVar(&f.yard, "yard", false, "run the docs generation task")
	fl.BoolVar(&f.linkinator, "linkinator", false, "run the docs link check task")
	fl.BoolVar(&f.allTasks, "all-tasks", false, "enable every task")
	fl.BoolVar(&f.toplevel, "toplevel", false, "also bundle and lint the repository root")
	fl.IntVar(&f.jobs, "jobs", 1, "directories to run concurrently")
	fl.BoolVar(&f.verbose, "verbose", false, "pass each task's verbose arguments")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here when the run ends")
	fl.StringVar(&f.configPath, "config", "", "config file path (default <root>/cictl.toml)")
	return cmd
}

func runRun(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	if err := validateRunFlags(f); err != nil {
		return err
	}
	w, err := openWorkspace(ctx, f.configPath)
	if err != nil {
		return err
	}
	observability.Register()

	sel, refs, err := w.selection(ctx, cmd, &f.selectionFlags, true)
	if err != nil {
		return err
	}
	observability.SetRunInfo(eventLabel(f.event), sel.Strategy)
	log.Info().
		Str("event", eventLabel(f.event)).
		Str("base", refs.Base).
		Int("dirs", len(sel.Dirs)).
		Int("jobs", f.jobs).
		Msg("run: starting")

	retries := w.cfg.BundleRetries
	if cmd.Flags().Changed("bundle-retries") {
		retries = f.bundleRetries
	}
	plan, err := buildPlan(f, w, retries)
	if err != nil {
		return err
	}
	runner := tasks.NewRunner(w.root, w.cfg.SpecExt, w.run, os.Stdout, os.Stderr)
	collector := report.NewCollector()

	if f.toplevel {
		top, err := toplevelPlan(f, w, plan)
		if err != nil {
			return err
		}
		runner.RunToplevel(ctx, top, collector)
	}
	if err := runner.RunDirs(ctx, sel.Order, plan, f.jobs, collector); err != nil {
		return err
	}

	ok, text := report.Summarize(collector.Failures())
	fmt.Fprint(cmd.OutOrStdout(), text)
	if f.metricsFile != "" {
		if err := observability.WriteTextfile(f.metricsFile); err != nil {
			log.Warn().Err(err).Str("path", f.metricsFile).Msg("run: metrics export failed")
		}
	}
	exitCode = report.ExitCode(ok)
	return nil
}

func validateRunFlags(f *runFlags) error {
	if f.noBundle && (f.bundle || f.bundleUpdate) {
		return errors.New("--no-bundle conflicts with --bundle and --bundle-update")
	}
	anyTask := f.test || f.rubocop || f.build || f.yard || f.linkinator || f.allTasks
	if !anyTask && !f.bundle && !f.bundleUpdate {
		return errors.New("nothing to do: enable at least one task, --all-tasks, or the bundle step")
	}
	if f.jobs < 1 {
		return fmt.Errorf("--jobs must be >= 1, got %d", f.jobs)
	}
	if f.bundleRetries < 0 {
		return fmt.Errorf("--bundle-retries must be >= 0, got %d", f.bundleRetries)
	}
	return nil
}

func buildPlan(f *runFlags, w *workspace, retries int) (tasks.Plan, error) {
	enabled := map[string]bool{
		tasks.Test:       f.test || f.allTasks,
		tasks.Rubocop:    f.rubocop || f.allTasks,
		tasks.Build:      f.build || f.allTasks,
		tasks.Yard:       f.yard || f.allTasks,
		tasks.Linkinator: f.linkinator || f.allTasks,
	}
	list, err := tasks.Enabled(enabled, w.cfg.TaskSpecs())
	if err != nil {
		return tasks.Plan{}, err
	}
	return tasks.Plan{
		Tasks:   list,
		Bundle:  bundleMode(f),
		Retries: retries,
		Verbose: f.verbose,
	}, nil
}

// toplevelPlan is the repository-root step: the dependency step plus
// the lint task when lint is part of the run, never the full list.
func toplevelPlan(f *runFlags, w *workspace, plan tasks.Plan) (tasks.Plan, error) {
	top := tasks.Plan{Bundle: plan.Bundle, Retries: plan.Retries, Verbose: plan.Verbose}
	if f.rubocop || f.allTasks {
		lint, err := w.cfg.LintSpec()
		if err != nil {
			return tasks.Plan{}, err
		}
		top.Tasks = []tasks.Spec{lint}
	}
	return top, nil
}

func bundleMode(f *runFlags) tasks.BundleMode {
	switch {
	case f.noBundle:
		return tasks.BundleSkip
	case f.bundleUpdate:
		return tasks.BundleUpdate
	default:
		return tasks.BundleInstall
	}
}
