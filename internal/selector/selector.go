// Package selector decides which package directories a run operates on
// and in what order.
package selector

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Eligibility filters candidate directories down to runnable packages.
type Eligibility interface {
	Eligible(ctx context.Context, dir string) bool
}

// Changes resolves the changed directories for a diff base.
type Changes interface {
	Changed(ctx context.Context, base string) ([]string, error)
}

// Inputs carries everything selection considers. Sources are consulted
// in a fixed priority: explicit directories, the all-packages signal,
// changed directories under the working directory's subtree, then the
// full change set.
type Inputs struct {
	Explicit []string
	All      bool
	Files    []string // marker files narrowing the all-packages glob
	WorkDir  string
	Base     string
}

// Selection is the outcome of directory selection. Dirs is the sorted
// candidate set; Order is the shuffled execution order over the same
// set. Shuffling keeps slow packages from always anchoring the tail of
// every run.
type Selection struct {
	Strategy string
	Dirs     []string
	Order    []string
}

// Selector owns candidate discovery, gating, and ordering.
type Selector struct {
	root    string
	specExt string
	gate    Eligibility
	changes Changes
	rng     *rand.Rand
}

// New builds a Selector rooted at root. A nil rng gets a time-seeded
// source; tests inject a fixed seed for reproducible orders.
func New(root, specExt string, gate Eligibility, changes Changes, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{root: root, specExt: specExt, gate: gate, changes: changes, rng: rng}
}

// Select resolves the directories for this run.
func (s *Selector) Select(ctx context.Context, in Inputs) (Selection, error) {
	candidates, strategy, err := s.candidates(ctx, in)
	if err != nil {
		return Selection{}, err
	}
	dirs := s.gated(ctx, dedupe(candidates))
	order := make([]string, len(dirs))
	copy(order, dirs)
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	log.Info().
		Str("strategy", strategy).
		Int("candidates", len(candidates)).
		Strs("dirs", dirs).
		Msg("selector: selected")
	return Selection{Strategy: strategy, Dirs: dirs, Order: order}, nil
}

func (s *Selector) candidates(ctx context.Context, in Inputs) ([]string, string, error) {
	if len(in.Explicit) > 0 {
		return in.Explicit, "explicit", nil
	}
	if in.All {
		dirs, err := s.allDirs(in.Files)
		return dirs, "all", err
	}
	changed, err := s.changes.Changed(ctx, in.Base)
	if err != nil {
		return nil, "", err
	}
	// Invoked from inside a package subtree: prefer that package if it
	// changed, otherwise fall through to the full change set.
	if dir, ok := s.subtreeDir(in.WorkDir); ok && slices.Contains(changed, dir) {
		return []string{dir}, "subtree", nil
	}
	return changed, "changed", nil
}

// allDirs globs top-level directories carrying a self-named spec file.
// Marker files, when given, narrow the set to directories containing
// at least one of them.
func (s *Selector) allDirs(markers []string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !fileExists(filepath.Join(s.root, name, name+s.specExt)) {
			continue
		}
		if len(markers) > 0 && !s.hasMarker(name, markers) {
			continue
		}
		dirs = append(dirs, name)
	}
	return dirs, nil
}

func (s *Selector) hasMarker(dir string, markers []string) bool {
	for _, marker := range markers {
		if fileExists(filepath.Join(s.root, dir, marker)) {
			return true
		}
	}
	return false
}

// subtreeDir maps a working directory strictly inside the repository
// to its owning top-level directory.
func (s *Selector) subtreeDir(wd string) (string, bool) {
	if wd == "" {
		return "", false
	}
	rel, err := filepath.Rel(s.root, wd)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	top := rel
	if i := strings.IndexByte(rel, filepath.Separator); i >= 0 {
		top = rel[:i]
	}
	return top, true
}

func (s *Selector) gated(ctx context.Context, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if s.gate.Eligible(ctx, dir) {
			out = append(out, dir)
		}
	}
	return out
}

func dedupe(dirs []string) []string {
	set := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		dir = strings.TrimRight(strings.TrimSpace(dir), "/")
		if dir == "" {
			continue
		}
		set[dir] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for dir := range set {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
