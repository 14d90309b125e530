package main

import (
	"context"
	"errors"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/danmuck/cictl/internal/changes"
	"github.com/danmuck/cictl/internal/config"
	"github.com/danmuck/cictl/internal/event"
	"github.com/danmuck/cictl/internal/gate"
	"github.com/danmuck/cictl/internal/selector"
	"github.com/danmuck/cictl/internal/tools"
	"github.com/danmuck/cictl/internal/vcs"
)

// workspace bundles the per-invocation wiring every git-touching
// subcommand needs.
type workspace struct {
	cwd  string
	root string
	cfg  config.Config
	run  tools.Runner
	repo *vcs.Repo
}

func openWorkspace(ctx context.Context, configPath string) (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	run := tools.ExecRunner{}
	root, err := vcs.Toplevel(ctx, run, cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root, configPath)
	if err != nil {
		return nil, err
	}
	return &workspace{
		cwd:  cwd,
		root: root,
		cfg:  cfg,
		run:  run,
		repo: vcs.NewRepo(root, run),
	}, nil
}

// loadConfig reads the explicit config path, or the repo-root default
// when present. A missing default file means compiled-in defaults; a
// missing explicit file is an error.
func loadConfig(root, explicit string) (config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	path := filepath.Join(root, config.DefaultFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return config.Config{}, err
	}
	return config.Load(path)
}

// gate resolves the toolchain version (config override or probe) and
// builds the eligibility gate.
func (w *workspace) gate(ctx context.Context) (*gate.Gate, error) {
	version, err := w.toolchainVersion(ctx)
	if err != nil {
		return nil, err
	}
	var source gate.ConstraintSource = gate.SpecScan{}
	if w.cfg.ConstraintSource == config.SourceLoader {
		source = gate.LoaderProbe{Toolchain: w.cfg.Toolchain, Runner: w.run}
	}
	return gate.New(gate.Config{
		Root:     w.root,
		Manifest: w.cfg.Manifest,
		SpecExt:  w.cfg.SpecExt,
		Version:  version,
		Source:   source,
	}), nil
}

func (w *workspace) toolchainVersion(ctx context.Context) (*semver.Version, error) {
	if w.cfg.ToolchainVersion != "" {
		return gate.ParseVersion(w.cfg.ToolchainVersion)
	}
	return gate.ProbeToolchain(ctx, w.run, w.cfg.Toolchain)
}

// selectionFlags is the flag surface shared by run and list.
type selectionFlags struct {
	event    string
	payload  string
	base     string
	head     string
	packages []string
	all      bool
	files    []string
	seed     int64
}

func addSelectionFlags(cmd *cobra.Command, f *selectionFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.event, "event", os.Getenv("GITHUB_EVENT_NAME"), "CI event name driving ref resolution")
	fl.StringVar(&f.payload, "payload", os.Getenv("GITHUB_EVENT_PATH"), "path to the event payload JSON")
	fl.StringVar(&f.base, "base", "", "diff base ref when no event provides one")
	fl.StringVar(&f.head, "head", "", "head ref to check out before diffing")
	fl.StringSliceVar(&f.packages, "packages", nil, "explicit package directories, skipping change detection")
	fl.BoolVar(&f.all, "all", false, "select every package directory")
	fl.StringSliceVar(&f.files, "files", nil, "with --all, keep only directories containing one of these files")
	fl.Int64Var(&f.seed, "seed", 0, "execution order shuffle seed; omit for a time seed")
}

func (f *selectionFlags) rng(cmd *cobra.Command) *rand.Rand {
	if cmd.Flags().Changed("seed") {
		return rand.New(rand.NewSource(f.seed))
	}
	return nil
}

// selection runs the interpret-and-select half of a run. When checkout
// is true a differing head ref moves the working tree first; list
// passes false to stay read-only.
func (w *workspace) selection(ctx context.Context, cmd *cobra.Command, f *selectionFlags, checkout bool) (selector.Selection, event.Refs, error) {
	refs, err := event.Interpret(f.event, f.payload, f.base, f.head)
	if err != nil {
		return selector.Selection{}, event.Refs{}, err
	}
	if checkout {
		if err := event.PrepareHead(ctx, w.repo, refs); err != nil {
			return selector.Selection{}, event.Refs{}, err
		}
	}
	g, err := w.gate(ctx)
	if err != nil {
		return selector.Selection{}, event.Refs{}, err
	}
	resolver := changes.NewResolver(w.repo, w.root)
	sel := selector.New(w.root, w.cfg.SpecExt, g, resolver, f.rng(cmd))
	out, err := sel.Select(ctx, selector.Inputs{
		Explicit: f.packages,
		All:      f.all || refs.All,
		Files:    f.files,
		WorkDir:  w.cwd,
		Base:     refs.Base,
	})
	if err != nil {
		return selector.Selection{}, event.Refs{}, err
	}
	return out, refs, nil
}

// eventLabel names the run's trigger for metrics and logs.
func eventLabel(name string) string {
	if name == "" {
		return "local"
	}
	return name
}
