package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cictl/internal/tools"
)

var (
	// ErrUnresolvableRef reports a ref that did not resolve to a local commit.
	ErrUnresolvableRef = errors.New("vcs: ref did not resolve to a commit")
	// ErrCheckoutFailed reports a working tree that could not be moved.
	ErrCheckoutFailed = errors.New("vcs: checkout failed")
)

// TempRefSpace is the local namespace shallow-fetched refs land in.
// Fetching into a throwaway namespace keeps remote-tracking refs untouched.
const TempRefSpace = "refs/temp/"

// Repo runs git against a single repository root. Every command is
// dispatched through the injected runner with the root as its working
// directory.
type Repo struct {
	root   string
	runner tools.Runner
}

func NewRepo(root string, runner tools.Runner) *Repo {
	return &Repo{root: root, runner: runner}
}

// Root returns the repository root every command runs against.
func (r *Repo) Root() string { return r.root }

// Toplevel resolves the repository root enclosing dir.
func Toplevel(ctx context.Context, runner tools.Runner, dir string) (string, error) {
	stdout, stderr, code, err := runner.Run(ctx, dir, "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("vcs: not inside a git repository dir=%q exit=%d stderr=%q: %w", dir, code, trim(stderr), err)
	}
	return firstLine(string(stdout)), nil
}

// StatusPaths lists every uncommitted path in the working tree, both
// sides of a rename included.
func (r *Repo) StatusPaths(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		// porcelain v1: two status chars, a space, then the path
		if len(line) < 4 {
			continue
		}
		entry := line[3:]
		if from, to, ok := strings.Cut(entry, " -> "); ok {
			paths = append(paths, from, to)
			continue
		}
		paths = append(paths, entry)
	}
	return paths, nil
}

// DiffNames lists the files changed between sha and the working tree.
func (r *Repo) DiffNames(ctx context.Context, sha string) ([]string, error) {
	out, err := r.git(ctx, "diff", "--name-only", sha)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// Head resolves the current HEAD commit hash.
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return firstLine(out), nil
}

// CommitHash resolves ref to a full commit hash. A ref whose object is
// not present locally maps to ErrUnresolvableRef; callers that can
// fetch should use EnsureFetched instead.
func (r *Repo) CommitHash(ctx context.Context, ref string) (string, error) {
	stdout, stderr, code, err := r.runner.Run(ctx, r.root, "git", "show", "--no-patch", "--format=%H", ref)
	if err != nil {
		return "", fmt.Errorf("%w: ref=%q exit=%d stderr=%q", ErrUnresolvableRef, ref, code, trim(stderr))
	}
	hash := firstLine(string(stdout))
	if hash == "" {
		return "", fmt.Errorf("%w: ref=%q produced no hash", ErrUnresolvableRef, ref)
	}
	return hash, nil
}

// EnsureFetched resolves ref to a commit hash, shallow-fetching from
// origin when the object is missing locally. HEAD^ cannot be fetched by
// name from a shallow clone, so a missing parent deepens the clone by
// one commit instead of fetching the ref itself.
func (r *Repo) EnsureFetched(ctx context.Context, ref string) (string, error) {
	if hash, err := r.CommitHash(ctx, ref); err == nil {
		return hash, nil
	}
	log.Debug().Str("ref", ref).Msg("vcs: ref missing locally, fetching")
	if ref == "HEAD^" {
		head, err := r.Head(ctx)
		if err != nil {
			return "", err
		}
		if err := r.fetch(ctx, "--depth=2", "origin", head); err != nil {
			return "", err
		}
		return r.CommitHash(ctx, ref)
	}
	if err := r.fetch(ctx, "--depth=1", "origin", ref+":"+TempRefSpace+ref); err != nil {
		return "", err
	}
	return r.CommitHash(ctx, TempRefSpace+ref)
}

// Checkout moves the working tree to hash.
func (r *Repo) Checkout(ctx context.Context, hash string) error {
	_, stderr, code, err := r.runner.Run(ctx, r.root, "git", "checkout", hash)
	if err != nil {
		return fmt.Errorf("%w: hash=%q exit=%d stderr=%q", ErrCheckoutFailed, hash, code, trim(stderr))
	}
	log.Info().Str("hash", hash).Msg("vcs: checked out head")
	return nil
}

func (r *Repo) fetch(ctx context.Context, args ...string) error {
	argv := append([]string{"fetch"}, args...)
	stdout, stderr, code, err := r.runner.Run(ctx, r.root, "git", argv...)
	if err != nil {
		return fmt.Errorf("vcs: git fetch failed args=%q exit=%d stdout=%q stderr=%q: %w", args, code, trim(stdout), trim(stderr), err)
	}
	return nil
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	stdout, stderr, code, err := r.runner.Run(ctx, r.root, "git", args...)
	if err != nil {
		return "", fmt.Errorf("vcs: git %s failed exit=%d stderr=%q: %w", args[0], code, trim(stderr), err)
	}
	return string(stdout), nil
}

func trim(b []byte) string { return strings.TrimSpace(string(b)) }

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
