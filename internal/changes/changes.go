// Package changes maps a git diff onto the package directories that
// own the changed files.
package changes

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Tree is the slice of git the resolver consumes.
type Tree interface {
	StatusPaths(ctx context.Context) ([]string, error)
	DiffNames(ctx context.Context, sha string) ([]string, error)
	EnsureFetched(ctx context.Context, ref string) (string, error)
}

// versionedDir matches a versioned service directory such as
// "pubsub-v2" or "vision-v1p3beta1" and captures its wrapper name.
var versionedDir = regexp.MustCompile(`^(.+)-v\d[a-z0-9]*$`)

// Resolver turns a git view of the repository into the set of changed
// package directories.
type Resolver struct {
	tree Tree
	root string
}

func NewResolver(tree Tree, root string) *Resolver {
	return &Resolver{tree: tree, root: root}
}

// Files lists the paths that differ from base, or the uncommitted
// working tree paths when base is empty.
func (r *Resolver) Files(ctx context.Context, base string) ([]string, error) {
	if base == "" {
		return r.tree.StatusPaths(ctx)
	}
	sha, err := r.tree.EnsureFetched(ctx, base)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("base", base).Str("sha", sha).Msg("changes: diffing against base")
	return r.tree.DiffNames(ctx, sha)
}

// Dirs maps changed files to the top-level directories owning them.
// Files at the repository root belong to no package and are dropped.
// A change inside a versioned service directory also implicates its
// wrapper directory when one exists on disk; wrappers re-export the
// versioned client, so they must be retested with it.
func (r *Resolver) Dirs(files []string) []string {
	set := make(map[string]struct{})
	for _, file := range files {
		top, _, found := strings.Cut(file, "/")
		if !found || top == "" {
			continue
		}
		set[top] = struct{}{}
		if m := versionedDir.FindStringSubmatch(top); m != nil && r.dirExists(m[1]) {
			set[m[1]] = struct{}{}
		}
	}
	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Changed resolves base and returns the owning directories in one step.
func (r *Resolver) Changed(ctx context.Context, base string) ([]string, error) {
	files, err := r.Files(ctx, base)
	if err != nil {
		return nil, err
	}
	dirs := r.Dirs(files)
	log.Info().Int("files", len(files)).Strs("dirs", dirs).Msg("changes: resolved")
	return dirs, nil
}

func (r *Resolver) dirExists(dir string) bool {
	info, err := os.Stat(filepath.Join(r.root, dir))
	return err == nil && info.IsDir()
}
